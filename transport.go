package opbeat

import (
	"context"
	"time"
)

// SuccessCallback is called by AsyncTransport.SendAsync() with the location of the stored payload.
type SuccessCallback func(url string)

// FailureCallback is called by AsyncTransport.SendAsync() with the error which prevented delivery.
type FailureCallback func(err error)

// Transport delivers serialized error reports to a remote collector.
type Transport interface {
	// Name returns the name of the transport.
	Name() string
	// Send posts data with the provided headers, and returns the Location of the created resource.
	// A timeout of zero uses DefaultTimeout.  Delivery failures are reported as a *TransportError.
	Send(ctx context.Context, data []byte, headers map[string]string, timeout time.Duration) (string, error)
}

// AsyncTransport is a Transport which reports the outcome of a send through callbacks.
type AsyncTransport interface {
	Transport
	// SendAsync sends data and invokes exactly one of onSuccess or onFailure.  Either may be nil.
	SendAsync(ctx context.Context, data []byte, headers map[string]string, onSuccess SuccessCallback, onFailure FailureCallback)
}
