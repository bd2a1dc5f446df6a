package null

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/opbeat/opbeat-go"
	"github.com/opbeat/opbeat-go/pkg/transport"
)

// TransportName is the name of this transport.
const TransportName = "null"

// client represents a discarding transport.
type client struct{}

// NewTransportFromViper constructs a discarding transport.
func NewTransportFromViper(url string, v *viper.Viper, logger logrus.FieldLogger, pool *transport.TransportPool) (opbeat.Transport, error) {
	return NewTransport(), nil
}

// NewTransport constructs a discarding transport.
func NewTransport() opbeat.AsyncTransport {
	return client{}
}

// Name returns the name of the transport.
func (client) Name() string {
	return TransportName
}

// Send discards data.
func (client) Send(ctx context.Context, data []byte, headers map[string]string, timeout time.Duration) (string, error) {
	return "", nil
}

// SendAsync discards data and reports success.
func (client) SendAsync(ctx context.Context, data []byte, headers map[string]string, onSuccess opbeat.SuccessCallback, onFailure opbeat.FailureCallback) {
	if onSuccess != nil {
		onSuccess("")
	}
}
