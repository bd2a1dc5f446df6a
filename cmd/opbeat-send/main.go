package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/opbeat/opbeat-go"
	"github.com/opbeat/opbeat-go/internal/util"
	"github.com/opbeat/opbeat-go/pkg/payload"
	"github.com/opbeat/opbeat-go/pkg/transport"
	"github.com/opbeat/opbeat-go/pkg/transports"
	"github.com/opbeat/opbeat-go/pkg/transports/pooled"
)

const (
	// ParamVerbose enables verbose logging.
	ParamVerbose = "verbose"
	// ParamJSON makes logger log in JSON format.
	ParamJSON = "json"
	// ParamConfigPath provides file with configuration.
	ParamConfigPath = "config-path"
	// ParamVersion makes program output its version.
	ParamVersion = "version"
	// ParamPayload is the file holding the JSON error report, - for stdin.
	ParamPayload = "payload"
)

var (
	// BuildDate is the date when the binary was built.
	BuildDate string
	// GitCommit is the commit hash that built the binary.
	GitCommit string
	// Version is the version.
	Version string
)

// errSendFailed is returned by send once the failure has been logged.
var errSendFailed = errors.New("failed to send payload")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	v, version, err := setupConfiguration(os.Args[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			return
		}
		logrus.Fatalf("Error while parsing configuration: %v", err)
	}
	if version {
		fmt.Printf("Version: %s - Commit: %s - Date: %s\n", Version, GitCommit, BuildDate)
		return
	}

	ctx, cancelFunc := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelFunc()

	if err := send(ctx, logrus.StandardLogger(), v, os.Stdin, os.Stdout); err != nil {
		if err == errSendFailed {
			cancelFunc()
			os.Exit(1)
		}
		logrus.Fatalf("%v", err)
	}
}

// send reads a report, and delivers it with the configured transport.  The Location of the stored report
// is written to stdout.
func send(ctx context.Context, logger logrus.FieldLogger, v *viper.Viper, stdin io.Reader, stdout io.Writer) error {
	body, err := readPayload(v.GetString(ParamPayload), stdin)
	if err != nil {
		return err
	}

	url, err := opbeat.ErrorsURL(v.GetString(opbeat.ParamServer), v.GetString(opbeat.ParamOrganizationID), v.GetString(opbeat.ParamAppID))
	if err != nil {
		return err
	}
	headers := opbeat.Headers(v.GetString(opbeat.ParamSecretToken), v.GetString(opbeat.ParamUserAgent))

	pool := transport.NewTransportPool(logger, v)
	t, err := transports.InitTransport(v.GetString(opbeat.ParamTransportName), url, v, logger, pool)
	if err != nil {
		return err
	}

	var location string
	if at, ok := t.(opbeat.AsyncTransport); ok {
		if timeout := v.GetDuration(opbeat.ParamTimeout); timeout != opbeat.DefaultTimeout {
			logger.WithFields(logrus.Fields{
				"timeout":   timeout,
				"transport": t.Name(),
			}).Debug("timeout is ignored by async transports, using the default")
		}
		at.SendAsync(ctx, body, headers,
			func(url string) { location = url },
			func(e error) { err = e },
		)
	} else {
		location, err = t.Send(ctx, body, headers, v.GetDuration(opbeat.ParamTimeout))
	}

	if s, ok := t.(interface{ Stats() pooled.Stats }); ok {
		stats := s.Stats()
		logger.WithFields(logrus.Fields{
			"sent":         stats.Sent,
			"timed-out":    stats.TimedOut,
			"rate-limited": stats.RateLimited,
			"failed":       stats.Failed,
		}).Debug("transport stats")
	}

	if err != nil {
		opbeat.LogTransportError(logger, err)
		return errSendFailed
	}

	logger.WithField("location", location).Info("sent payload")
	_, err = fmt.Fprintln(stdout, location)
	return err
}

// readPayload reads a JSON object from path, or stdin if path is empty or -, and encodes it for the intake.
func readPayload(path string, stdin io.Reader) ([]byte, error) {
	var raw []byte
	var err error
	if path == "" || path == "-" {
		raw, err = ioutil.ReadAll(stdin)
	} else {
		raw, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read payload: %v", err)
	}

	var report map[string]interface{}
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %v", err)
	}
	return payload.Encode(report)
}

func setupConfiguration(args []string) (*viper.Viper, bool, error) {
	v := viper.New()
	defer setupLogger(v) // Apply logging configuration in case of early exit
	util.InitViper(v, "")

	var version bool

	cmd := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)

	cmd.BoolVar(&version, ParamVersion, false, "Print the version and exit")
	cmd.Bool(ParamVerbose, false, "Verbose")
	cmd.Bool(ParamJSON, false, "Log in JSON format")
	cmd.String(ParamConfigPath, "", "Path to the configuration file")
	cmd.String(ParamPayload, "-", "File holding the JSON error report, - for stdin")

	opbeat.AddFlags(cmd)

	cmd.VisitAll(func(flag *pflag.Flag) {
		if err := v.BindPFlag(flag.Name, flag); err != nil {
			panic(err) // Should never happen
		}
	})

	if err := cmd.Parse(args); err != nil {
		return nil, false, err
	}

	configPath := v.GetString(ParamConfigPath)
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, false, err
		}
	}

	return v, version, nil
}

func setupLogger(v *viper.Viper) {
	if v.GetBool(ParamVerbose) {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if v.GetBool(ParamJSON) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
