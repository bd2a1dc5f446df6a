package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/opbeat/opbeat-go"
	"github.com/opbeat/opbeat-go/internal/fixtures"
	"github.com/opbeat/opbeat-go/pkg/payload"
)

const report = `{"message": "boom", "level": "error", "culprit": "main.go"}`

func collectorArgs(c *fixtures.Collector, extra ...string) []string {
	return append([]string{
		"--" + opbeat.ParamServer, c.Server.URL,
		"--" + opbeat.ParamOrganizationID, "org",
		"--" + opbeat.ParamAppID, "app",
		"--" + opbeat.ParamSecretToken, "token",
	}, extra...)
}

func TestSend(t *testing.T) {
	t.Parallel()

	for _, transportName := range []string{"pooled", "pooled-async"} {
		transportName := transportName
		t.Run(transportName, func(t *testing.T) {
			t.Parallel()
			c := fixtures.NewCollector(t)
			v, version, err := setupConfiguration(collectorArgs(c, "--"+opbeat.ParamTransportName, transportName))
			require.NoError(t, err)
			require.False(t, version)

			stdout := &bytes.Buffer{}
			err = send(context.Background(), fixtures.NewTestLogger(t), v, strings.NewReader(report), stdout)
			require.NoError(t, err)
			require.Equal(t, c.ErrorLocation("org", "app", 0)+"\n", stdout.String())

			requests := c.Requests()
			require.Len(t, requests, 1)
			require.Equal(t, "Bearer token", requests[0].Header.Get("Authorization"))
			require.Equal(t, opbeat.DefaultUserAgent, requests[0].Header.Get("User-Agent"))

			var received map[string]interface{}
			require.NoError(t, payload.Decode(requests[0].Body, &received))
			require.Equal(t, "boom", received["message"])
		})
	}
}

func TestSendAsyncIgnoresTimeout(t *testing.T) {
	t.Parallel()
	c := fixtures.NewCollector(t)
	v, _, err := setupConfiguration(collectorArgs(c,
		"--"+opbeat.ParamTransportName, "pooled-async",
		"--"+opbeat.ParamTimeout, "5s",
	))
	require.NoError(t, err)

	var hook *test.Hook
	logger := fixtures.NewTestLogger(t, func(l *logrus.Logger) {
		hook = test.NewLocal(l)
	})
	err = send(context.Background(), logger, v, strings.NewReader(report), ioutil.Discard)
	require.NoError(t, err)

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "timeout is ignored by async transports, using the default" {
			found = true
			require.Equal(t, 5*time.Second, entry.Data["timeout"])
		}
	}
	require.True(t, found)
}

func TestSendFailure(t *testing.T) {
	t.Parallel()
	c := fixtures.NewCollector(t)
	c.Respond(http.StatusForbidden, "", "invalid token")

	v, _, err := setupConfiguration(collectorArgs(c))
	require.NoError(t, err)

	stdout := &bytes.Buffer{}
	err = send(context.Background(), fixtures.NewTestLogger(t), v, strings.NewReader(report), stdout)
	require.Equal(t, errSendFailed, err)
	require.Empty(t, stdout.String())
}

func TestSendPayloadFromFile(t *testing.T) {
	t.Parallel()
	c := fixtures.NewCollector(t)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(report), 0600))

	v, _, err := setupConfiguration(collectorArgs(c, "--"+ParamPayload, path))
	require.NoError(t, err)

	err = send(context.Background(), fixtures.NewTestLogger(t), v, strings.NewReader(""), ioutil.Discard)
	require.NoError(t, err)
	require.Len(t, c.Requests(), 1)
}

func TestSendRejectsInvalidPayload(t *testing.T) {
	t.Parallel()
	c := fixtures.NewCollector(t)

	v, _, err := setupConfiguration(collectorArgs(c))
	require.NoError(t, err)

	for _, body := range []string{"", "not json", `["a", "list"]`} {
		err = send(context.Background(), fixtures.NewTestLogger(t), v, strings.NewReader(body), ioutil.Discard)
		require.Error(t, err, body)
		require.NotEqual(t, errSendFailed, err)
	}
	require.Empty(t, c.Requests())
}

func TestSendRequiresApp(t *testing.T) {
	t.Parallel()

	v, _, err := setupConfiguration([]string{"--" + opbeat.ParamOrganizationID, "org"})
	require.NoError(t, err)

	err = send(context.Background(), fixtures.NewTestLogger(t), v, strings.NewReader(report), ioutil.Discard)
	require.Error(t, err)
	require.Contains(t, err.Error(), opbeat.ParamAppID)
}

func TestSetupConfigurationFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
organization-id = "file-org"
app-id = "file-app"
transport-name = "null"

[transport.default]
client-timeout = "5s"
`), 0600))

	v, _, err := setupConfiguration([]string{"--" + ParamConfigPath, path})
	require.NoError(t, err)
	require.Equal(t, "file-org", v.GetString(opbeat.ParamOrganizationID))
	require.Equal(t, "file-app", v.GetString(opbeat.ParamAppID))
	require.Equal(t, "null", v.GetString(opbeat.ParamTransportName))
	require.Equal(t, opbeat.DefaultServer, v.GetString(opbeat.ParamServer))

	stdout := &bytes.Buffer{}
	err = send(context.Background(), fixtures.NewTestLogger(t), v, strings.NewReader(report), stdout)
	require.NoError(t, err)
	require.Equal(t, "\n", stdout.String())
}

func TestSetupConfigurationVersion(t *testing.T) {
	t.Parallel()

	_, version, err := setupConfiguration([]string{"--" + ParamVersion})
	require.NoError(t, err)
	require.True(t, version)
}
