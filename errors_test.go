package opbeat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransportError(t *testing.T) {
	t.Parallel()

	data := []byte("payload")
	err := NewTransportError("HTTP 500: oops", data, true, nil)

	require.Equal(t, "HTTP 500: oops", err.Error())
	require.Equal(t, data, err.Data)
	require.True(t, err.PrintTrace)
	require.Nil(t, err.Unwrap())
	require.NotEmpty(t, err.StackTrace())
}

func TestTransportErrorUnwrap(t *testing.T) {
	t.Parallel()

	var err error = NewTransportError("timed out", nil, false, context.DeadlineExceeded)

	require.True(t, errors.Is(err, context.DeadlineExceeded))

	var te *TransportError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &te))
	require.Equal(t, "timed out", te.Message)
}

func TestTransportErrorFormat(t *testing.T) {
	t.Parallel()

	err := NewTransportError("unable to reach", nil, true, errors.New("connection refused"))

	require.Equal(t, "unable to reach", fmt.Sprintf("%v", err))
	require.Equal(t, "unable to reach", fmt.Sprintf("%s", err))
	require.Equal(t, `"unable to reach"`, fmt.Sprintf("%q", err))

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "unable to reach")
	assert.Contains(t, verbose, "TestTransportErrorFormat")
	assert.Contains(t, verbose, "caused by: connection refused")
}

func TestLogTransportError(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name      string
		err       error
		level     logrus.Level
		message   string
		withStack bool
	}{
		{
			name:      "trace",
			err:       NewTransportError("HTTP 500: oops", []byte("abc"), true, nil),
			level:     logrus.ErrorLevel,
			message:   "HTTP 500: oops",
			withStack: true,
		},
		{
			name:    "no trace",
			err:     NewTransportError("Temporarily rate limited: slow down", []byte("abc"), false, nil),
			level:   logrus.WarnLevel,
			message: "Temporarily rate limited: slow down",
		},
		{
			name:    "other",
			err:     errors.New("boom"),
			level:   logrus.ErrorLevel,
			message: "failed to send payload",
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			logger, hook := test.NewNullLogger()

			LogTransportError(logger, tc.err)

			require.Len(t, hook.AllEntries(), 1)
			entry := hook.LastEntry()
			require.Equal(t, tc.level, entry.Level)
			require.Equal(t, tc.message, entry.Message)
			_, hasStack := entry.Data["stack"]
			require.Equal(t, tc.withStack, hasStack)
		})
	}
}

func TestLogTransportErrorPayloadSize(t *testing.T) {
	t.Parallel()
	logger, hook := test.NewNullLogger()

	LogTransportError(logger, NewTransportError("x", []byte("12345"), false, errors.New("cause")))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, 5, entry.Data["payload-size"])
	require.Equal(t, "cause", entry.Data["cause"])
}
