package opbeat

import (
	"time"

	"github.com/spf13/pflag"
)

const (
	// DefaultServer is the default intake server.
	DefaultServer = "https://intake.opbeat.com"
	// DefaultTimeout is the default timeout for a single send.
	DefaultTimeout = 20 * time.Second
	// DefaultTransport is the name of the default transport.
	DefaultTransport = "pooled"
	// DefaultUserAgent is the default User-Agent sent to the intake.
	DefaultUserAgent = "opbeat-go"
)

const (
	// ParamServer is the name of parameter with the intake server URL.
	ParamServer = "server"
	// ParamOrganizationID is the name of parameter with the organization id.
	ParamOrganizationID = "organization-id"
	// ParamAppID is the name of parameter with the app id.
	ParamAppID = "app-id"
	// ParamSecretToken is the name of parameter with the secret token used to authenticate with the intake.
	ParamSecretToken = "secret-token"
	// ParamTimeout is the name of parameter with the timeout for a single send.
	ParamTimeout = "timeout"
	// ParamTransportName is the name of parameter with the name of the transport.
	ParamTransportName = "transport-name"
	// ParamUserAgent is the name of parameter with the User-Agent sent to the intake.
	ParamUserAgent = "user-agent"
)

// AddFlags adds flags to the specified FlagSet.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ParamServer, DefaultServer, "Intake server URL")
	fs.String(ParamOrganizationID, "", "Organization id")
	fs.String(ParamAppID, "", "App id")
	fs.String(ParamSecretToken, "", "Secret token used to authenticate with the intake")
	fs.Duration(ParamTimeout, DefaultTimeout, "Timeout for a single send, async transports always use the default")
	fs.String(ParamTransportName, DefaultTransport, "Name of the transport used to send payloads")
	fs.String(ParamUserAgent, DefaultUserAgent, "User-Agent sent to the intake")
}
