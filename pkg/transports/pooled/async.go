package pooled

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/opbeat/opbeat-go"
	"github.com/opbeat/opbeat-go/pkg/transport"
)

// AsyncTransportName is the name of the callback based variant of this transport.
const AsyncTransportName = "pooled-async"

// AsyncTransport gives Transport the callback interface expected by asynchronous callers.  The send
// itself still happens on the calling goroutine.
type AsyncTransport struct {
	*Transport
}

// NewAsyncTransportFromViper constructs an AsyncTransport which uses the pool client named by pooled.transport.
func NewAsyncTransportFromViper(url string, v *viper.Viper, logger logrus.FieldLogger, pool *transport.TransportPool) (opbeat.Transport, error) {
	t, err := newTransportFromViper(url, v, logger, pool)
	if err != nil {
		return nil, err
	}
	return &AsyncTransport{Transport: t}, nil
}

// NewAsyncTransport constructs an AsyncTransport posting to url.
func NewAsyncTransport(logger logrus.FieldLogger, url string, client *transport.Client) (*AsyncTransport, error) {
	t, err := NewTransport(logger, url, client)
	if err != nil {
		return nil, err
	}
	return &AsyncTransport{Transport: t}, nil
}

// Name returns the name of the transport.
func (at *AsyncTransport) Name() string {
	return AsyncTransportName
}

// SendAsync sends data with the default timeout, then calls onSuccess with the Location of the stored
// report, or onFailure with the error.  Exactly one of them is called; a nil callback is skipped.
func (at *AsyncTransport) SendAsync(ctx context.Context, data []byte, headers map[string]string, onSuccess opbeat.SuccessCallback, onFailure opbeat.FailureCallback) {
	url, err := at.Send(ctx, data, headers, 0)
	if err != nil {
		if onFailure != nil {
			onFailure(err)
		}
		return
	}
	if onSuccess != nil {
		onSuccess(url)
	}
}
