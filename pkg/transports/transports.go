package transports

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/opbeat/opbeat-go"
	"github.com/opbeat/opbeat-go/pkg/transport"
	"github.com/opbeat/opbeat-go/pkg/transports/null"
	"github.com/opbeat/opbeat-go/pkg/transports/pooled"
)

// Factory creates a Transport which delivers to url.
type Factory func(url string, v *viper.Viper, logger logrus.FieldLogger, pool *transport.TransportPool) (opbeat.Transport, error)

// All known transports.
var transports = map[string]Factory{
	null.TransportName:        null.NewTransportFromViper,
	pooled.TransportName:      pooled.NewTransportFromViper,
	pooled.AsyncTransportName: pooled.NewAsyncTransportFromViper,
}

// GetTransport creates an instance of the named transport, or nil if
// the name is not known. The error return is only used if the named transport
// was known but failed to initialize.
func GetTransport(name, url string, v *viper.Viper, logger logrus.FieldLogger, pool *transport.TransportPool) (opbeat.Transport, error) {
	f, found := transports[name]
	if !found {
		return nil, nil
	}
	return f(url, v, logger, pool)
}

// InitTransport creates an instance of the named transport.
func InitTransport(name, url string, v *viper.Viper, logger logrus.FieldLogger, pool *transport.TransportPool) (opbeat.Transport, error) {
	if name == "" {
		return nil, fmt.Errorf("no transport specified")
	}

	t, err := GetTransport(name, url, v, logger, pool)
	if err != nil {
		return nil, fmt.Errorf("could not init transport %q: %v", name, err)
	}
	if t == nil {
		return nil, fmt.Errorf("unknown transport %q", name)
	}
	logger.Infof("Initialised transport %q", name)

	return t, nil
}
