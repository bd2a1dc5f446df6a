package fixtures

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// CollectedRequest is a request received by a Collector.
type CollectedRequest struct {
	OrganizationID string
	AppID          string
	Header         http.Header
	Body           []byte
}

// Collector is a fake intake server.  It records every error report posted to it and replies with
// a programmable status and body.  By default it accepts reports and returns a Location.
type Collector struct {
	Server *httptest.Server

	mu           sync.Mutex
	requests     []CollectedRequest
	status       int
	body         string
	location     string
	autoLocation bool
}

// NewCollector starts a Collector which is closed when the test completes.
func NewCollector(tb testing.TB) *Collector {
	c := &Collector{
		status:       http.StatusAccepted,
		autoLocation: true,
	}
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/organizations/{org}/apps/{app}/errors/", c.handleErrors).Methods(http.MethodPost)
	c.Server = httptest.NewServer(router)
	tb.Cleanup(c.Server.Close)
	return c
}

// Respond makes all following requests receive the given status, Location and body.  An empty location
// means no Location header is sent.
func (c *Collector) Respond(status int, location, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.location = location
	c.body = body
	c.autoLocation = false
}

// Requests returns the requests received so far.
func (c *Collector) Requests() []CollectedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CollectedRequest(nil), c.requests...)
}

// ErrorLocation is the Location returned for the n-th (0 based) report of an app while the default response is used.
func (c *Collector) ErrorLocation(org, app string, n int) string {
	return fmt.Sprintf("%s/%s/%s/errors/%d/", c.Server.URL, org, app, n)
}

func (c *Collector) handleErrors(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	n := len(c.requests)
	c.requests = append(c.requests, CollectedRequest{
		OrganizationID: vars["org"],
		AppID:          vars["app"],
		Header:         r.Header.Clone(),
		Body:           body,
	})
	status, location, respBody, autoLocation := c.status, c.location, c.body, c.autoLocation
	c.mu.Unlock()

	if autoLocation {
		location = c.ErrorLocation(vars["org"], vars["app"], n)
	}
	if location != "" {
		w.Header().Set("Location", location)
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(respBody))
}
