package opbeat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorsURL(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		server   string
		org      string
		app      string
		expected string
		failure  string
	}{
		{"https://intake.opbeat.com", "org", "app", "https://intake.opbeat.com/api/v1/organizations/org/apps/app/errors/", ""},
		{"http://localhost:8080/", "org", "app", "http://localhost:8080/api/v1/organizations/org/apps/app/errors/", ""},
		{"https://intake.opbeat.com", "a b", "app/1", "https://intake.opbeat.com/api/v1/organizations/a%20b/apps/app%2F1/errors/", ""},
		{"https://intake.opbeat.com", "", "app", "", ParamOrganizationID},
		{"https://intake.opbeat.com", "org", "", "", ParamAppID},
		{"ftp://intake.opbeat.com", "org", "app", "", ParamServer},
		{"https://", "org", "app", "", ParamServer},
		{"://bad", "org", "app", "", ParamServer},
	} {
		u, err := ErrorsURL(tc.server, tc.org, tc.app)
		if tc.failure != "" {
			require.Error(t, err, tc.server)
			require.Contains(t, err.Error(), tc.failure)
			continue
		}
		require.NoError(t, err, tc.server)
		require.Equal(t, tc.expected, u)
	}
}

func TestHeaders(t *testing.T) {
	t.Parallel()

	require.Equal(t, map[string]string{
		"Authorization":    "Bearer token",
		"Content-Type":     "application/octet-stream",
		"Content-Encoding": "deflate",
		"User-Agent":       "agent",
	}, Headers("token", "agent"))

	_, ok := Headers("", "agent")["Authorization"]
	require.False(t, ok)
}
