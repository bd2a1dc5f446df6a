package opbeat

import (
	"fmt"
	"net/url"
	"strings"
)

const errorsPath = "/api/v1/organizations/%s/apps/%s/errors/"

// ErrorsURL returns the intake URL which error reports for an app are posted to.
func ErrorsURL(server, organizationID, appID string) (string, error) {
	if organizationID == "" {
		return "", fmt.Errorf("%s is required", ParamOrganizationID)
	}
	if appID == "" {
		return "", fmt.Errorf("%s is required", ParamAppID)
	}
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %v", ParamServer, server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s (%s) must be an http or https URL", ParamServer, server)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%s (%s) has no host", ParamServer, server)
	}
	return strings.TrimRight(server, "/") + fmt.Sprintf(errorsPath, url.PathEscape(organizationID), url.PathEscape(appID)), nil
}

// Headers returns the headers required by the intake for a payload produced by payload.Encode.
func Headers(secretToken, userAgent string) map[string]string {
	headers := map[string]string{
		"Content-Type":     "application/octet-stream",
		"Content-Encoding": "deflate",
		"User-Agent":       userAgent,
	}
	if secretToken != "" {
		headers["Authorization"] = "Bearer " + secretToken
	}
	return headers
}
