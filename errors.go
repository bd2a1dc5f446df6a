package opbeat

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TransportError is returned by a Transport when a payload could not be delivered.  It carries the
// payload so the caller can decide what to do with it, and whether the failure is unexpected enough
// to log a stack trace for.
type TransportError struct {
	Message    string
	Data       []byte
	PrintTrace bool

	cause  error
	traced error // holds the stack captured at creation
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// NewTransportError creates a TransportError, recording the stack of the caller.  cause may be nil.
func NewTransportError(message string, data []byte, printTrace bool, cause error) *TransportError {
	return &TransportError{
		Message:    message,
		Data:       data,
		PrintTrace: printTrace,
		cause:      cause,
		traced:     errors.New(message),
	}
}

func (e *TransportError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *TransportError) Unwrap() error {
	return e.cause
}

// StackTrace returns the stack captured when the error was created.
func (e *TransportError) StackTrace() errors.StackTrace {
	return e.traced.(stackTracer).StackTrace()
}

// Format supports %+v to render the message, the stack, and the cause.
func (e *TransportError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%+v", e.traced)
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\ncaused by: %v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Message)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Message)
	}
}

// LogTransportError logs err the way a reporting client should: a TransportError which asks for a
// trace is logged as an error with its stack, one which doesn't is a warning.  Anything else is an
// unexpected failure and is logged with its full rendering.
func LogTransportError(logger logrus.FieldLogger, err error) {
	var te *TransportError
	if !errors.As(err, &te) {
		logger.WithField("error", fmt.Sprintf("%+v", err)).Error("failed to send payload")
		return
	}

	fields := logrus.Fields{
		"payload-size": len(te.Data),
	}
	if te.cause != nil {
		fields["cause"] = te.cause.Error()
	}
	if !te.PrintTrace {
		logger.WithFields(fields).Warn(te.Message)
		return
	}
	fields["stack"] = fmt.Sprintf("%+v", te.StackTrace())
	logger.WithFields(fields).Error(te.Message)
}
