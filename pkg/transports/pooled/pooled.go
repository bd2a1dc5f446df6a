// Package pooled implements an opbeat.Transport which posts payloads to the intake using a
// connection pooling client from the TransportPool.
package pooled

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tilinna/clock"

	"github.com/opbeat/opbeat-go"
	"github.com/opbeat/opbeat-go/internal/util"
	"github.com/opbeat/opbeat-go/pkg/transport"
)

// TransportName is the name of this transport.
const TransportName = "pooled"

const (
	paramTransport   = "transport"
	defaultTransport = "default"

	// Only the start of an error response is kept for the error message.
	maxErrorBodySize = 64 * 1024
)

// Schemes are the URL schemes this transport can deliver to.
var Schemes = []string{"http", "https"}

// Transport sends payloads synchronously to a single URL.
type Transport struct {
	sent        uint64 // atomic - payloads accepted by the intake
	timedOut    uint64 // atomic - sends which hit the timeout
	rateLimited uint64 // atomic - sends rejected with 429
	failed      uint64 // atomic - all other failures

	logger logrus.FieldLogger
	url    string
	client *transport.Client
}

// Stats is a snapshot of the counters of a Transport.
type Stats struct {
	Sent        uint64
	TimedOut    uint64
	RateLimited uint64
	Failed      uint64
}

// NewTransportFromViper constructs a Transport which uses the pool client named by pooled.transport.
func NewTransportFromViper(url string, v *viper.Viper, logger logrus.FieldLogger, pool *transport.TransportPool) (opbeat.Transport, error) {
	t, err := newTransportFromViper(url, v, logger, pool)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func newTransportFromViper(url string, v *viper.Viper, logger logrus.FieldLogger, pool *transport.TransportPool) (*Transport, error) {
	sub := util.GetSubViper(v, TransportName)
	sub.SetDefault(paramTransport, defaultTransport)

	client, err := pool.Get(sub.GetString(paramTransport))
	if err != nil {
		return nil, err
	}
	return NewTransport(logger, url, client)
}

// NewTransport constructs a Transport posting to url.
func NewTransport(logger logrus.FieldLogger, url string, client *transport.Client) (*Transport, error) {
	if err := checkURL(url); err != nil {
		return nil, err
	}
	return &Transport{
		logger: logger.WithFields(logrus.Fields{
			"transport": TransportName,
			"url":       url,
		}),
		url:    url,
		client: client,
	}, nil
}

func checkURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %v", rawURL, err)
	}
	for _, scheme := range Schemes {
		if u.Scheme == scheme {
			return nil
		}
	}
	return fmt.Errorf("url %q: scheme must be one of %s", rawURL, strings.Join(Schemes, ", "))
}

// Name returns the name of the transport.
func (t *Transport) Name() string {
	return TransportName
}

// Send posts data to the intake and returns the Location of the stored report.
func (t *Transport) Send(ctx context.Context, data []byte, headers map[string]string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = opbeat.DefaultTimeout
	}
	clck := clock.FromContext(ctx)
	start := clck.Now()

	// net/http checks deadlines against wall time, so the clock in ctx only measures the duration.
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var location string
	responded := false
	err := t.client.Post(sendCtx, t.url, headers, data, func(resp *http.Response) error {
		responded = true
		if resp.StatusCode >= http.StatusBadRequest {
			return t.statusError(resp, data)
		}
		location = resp.Header.Get("Location")
		return nil
	})
	if err != nil && !responded {
		err = t.networkError(ctx, sendCtx, err, data, timeout)
	}

	logger := t.logger.WithField("duration", clck.Now().Sub(start))
	if err != nil {
		logger.WithError(err).Debug("failed to send payload")
		return "", err
	}
	atomic.AddUint64(&t.sent, 1)
	logger.WithField("location", location).Debug("sent payload")
	return location, nil
}

func (t *Transport) networkError(ctx, sendCtx context.Context, err error, data []byte, timeout time.Duration) error {
	if isTimeout(ctx, sendCtx, err) {
		atomic.AddUint64(&t.timedOut, 1)
		message := fmt.Sprintf("Connection to Opbeat server timed out (url: %s, timeout: %s)", t.url, timeout)
		return opbeat.NewTransportError(message, data, false, err)
	}
	atomic.AddUint64(&t.failed, 1)
	message := fmt.Sprintf("Unable to reach Opbeat server: %v (url: %s)", err, t.url)
	return opbeat.NewTransportError(message, data, true, err)
}

// isTimeout reports whether err was caused by the send timeout, or a timeout in the network stack.  A
// canceled or expired ctx belongs to the caller and is not a send timeout.
func isTimeout(ctx, sendCtx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if sendCtx.Err() != nil {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (t *Transport) statusError(resp *http.Response, data []byte) error {
	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		atomic.AddUint64(&t.failed, 1)
		return pkgerrors.Wrapf(err, "reading body of HTTP %d response", resp.StatusCode)
	}
	text := strings.ToValidUTF8(string(body), "\uFFFD")

	if resp.StatusCode == http.StatusTooManyRequests {
		atomic.AddUint64(&t.rateLimited, 1)
		return opbeat.NewTransportError("Temporarily rate limited: "+text, data, false, nil)
	}
	atomic.AddUint64(&t.failed, 1)
	return opbeat.NewTransportError(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, text), data, true, nil)
}

// Stats returns the current counters of the transport.
func (t *Transport) Stats() Stats {
	return Stats{
		Sent:        atomic.LoadUint64(&t.sent),
		TimedOut:    atomic.LoadUint64(&t.timedOut),
		RateLimited: atomic.LoadUint64(&t.rateLimited),
		Failed:      atomic.LoadUint64(&t.failed),
	}
}
