package transport

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/opbeat/opbeat-go"
	"github.com/opbeat/opbeat-go/internal/util"
)

const paramTransportClientTimeout = "client-timeout"
const paramTransportCustomHeaders = "custom-headers"
const paramTransportType = "type"
const paramTransportUserAgent = "user-agent"

// The per-send timeout is applied through the request context, so the client itself has no limit by default.
const defaultTransportClientTimeout = time.Duration(0)
const transportTypeHttp = "http"
const defaultTransportType = transportTypeHttp

// TransportPool creates Clients as required, using the provided viper.Viper for configuration.
// Clients are cached by name, so every user of a name shares the same connection pool.
type TransportPool struct {
	config *viper.Viper
	logger logrus.FieldLogger

	mu      sync.Mutex
	clients map[string]*Client
}

func NewTransportPool(logger logrus.FieldLogger, config *viper.Viper) *TransportPool {
	config.SetDefault("transport.default", map[string]interface{}{})
	return &TransportPool{
		logger:  logger,
		clients: map[string]*Client{},
		config:  config,
	}
}

// Get returns the Client configured under transport.<name>, creating it on first use.  Names
// without configuration use transport.default.
func (tp *TransportPool) Get(name string) (*Client, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if hc, ok := tp.clients[name]; ok {
		return hc, nil
	}

	hc, err := tp.newClient(name)
	if err != nil {
		return nil, err
	}
	tp.clients[name] = hc
	return hc, nil
}

func (tp *TransportPool) newClient(name string) (*Client, error) {
	sub := tp.config.Sub("transport." + name)
	if sub == nil {
		tp.logger.WithField("name", name).Warn("request for non-configured transport, using transport.default")
		sub = tp.config.Sub("transport.default")
		if sub == nil {
			sub = viper.New()
		}
	}
	util.InitViper(sub, "transport."+name)

	sub.SetDefault(paramTransportClientTimeout, defaultTransportClientTimeout)
	sub.SetDefault(paramTransportType, defaultTransportType)
	sub.SetDefault(paramTransportUserAgent, opbeat.DefaultUserAgent)

	clientTimeout := sub.GetDuration(paramTransportClientTimeout)
	transportType := sub.GetString(paramTransportType)
	userAgent := sub.GetString(paramTransportUserAgent)
	customHeaders := sub.GetStringMapString(paramTransportCustomHeaders)

	if clientTimeout < 0 {
		return nil, errors.New(paramTransportClientTimeout + " must not be negative") // 0 = no timeout
	}

	var transport *http.Transport
	var err error

	switch transportType {
	case transportTypeHttp:
		transport, err = tp.newHttpTransport(name, sub)
	default:
		err = errors.New(paramTransportType + " must be " + transportTypeHttp)
	}
	if err != nil {
		return nil, err
	}

	logger := tp.logger.WithField("transport", name)
	logger.WithFields(logrus.Fields{
		paramTransportType:          transportType,
		paramTransportClientTimeout: clientTimeout,
		paramTransportUserAgent:     userAgent,
	}).Info("created client")

	return NewClient(
		logger,
		&http.Client{
			Transport: transport,
			Timeout:   clientTimeout,
		},
		userAgent,
		customHeaders,
	), nil
}
