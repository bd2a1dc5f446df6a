package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Client is a holder of an http.Client, adding the headers configured for the transport to every
// request.  The underlying Client is exposed so that things that require a real http.Client can
// still utilize the TransportPool.
type Client struct {
	requestsSent   uint64 // atomic - requests which received a response, of any status
	requestsFailed uint64 // atomic - requests which failed before a response was received

	logger        logrus.FieldLogger
	customHeaders map[string]string
	userAgent     string

	Client *http.Client
}

// ClientStats is a snapshot of the counters of a Client.
type ClientStats struct {
	RequestsSent   uint64
	RequestsFailed uint64
}

// NewClient wraps an http.Client.  customHeaders are applied after the caller's headers, and an
// empty value removes the header.
func NewClient(logger logrus.FieldLogger, client *http.Client, userAgent string, customHeaders map[string]string) *Client {
	return &Client{
		logger:        logger,
		customHeaders: customHeaders,
		userAgent:     userAgent,
		Client:        client,
	}
}

// Post will POST body to url, and pass the response to handle.  The response body is drained and
// closed once handle returns, regardless of the outcome.  Errors from the round trip are returned
// unmodified so the caller can classify them.
func (hc *Client) Post(ctx context.Context, url string, headers map[string]string, body []byte, handle func(*http.Response) error) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("unable to create http.Request: %v", err)
	}

	req = req.WithContext(ctx)

	// Base headers
	if hc.userAgent != "" {
		req.Header.Set("User-Agent", hc.userAgent)
	}

	// Caller headers
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	// Custom headers always win
	for key, value := range hc.customHeaders {
		if value == "" { // Provide a way to delete headers
			req.Header.Del(key)
		} else {
			req.Header.Set(key, value)
		}
	}

	resp, err := hc.Client.Do(req)
	if err != nil {
		atomic.AddUint64(&hc.requestsFailed, 1)
		return err
	}
	defer consumeAndClose(resp.Body)
	atomic.AddUint64(&hc.requestsSent, 1)

	hc.logger.WithFields(logrus.Fields{
		"url":    url,
		"status": resp.StatusCode,
	}).Debug("received response")

	return handle(resp)
}

// Stats returns the current counters of the client.
func (hc *Client) Stats() ClientStats {
	return ClientStats{
		RequestsSent:   atomic.LoadUint64(&hc.requestsSent),
		RequestsFailed: atomic.LoadUint64(&hc.requestsFailed),
	}
}
