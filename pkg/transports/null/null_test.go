package null

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullTransport(t *testing.T) {
	t.Parallel()
	tr := NewTransport()
	require.Equal(t, TransportName, tr.Name())

	location, err := tr.Send(context.Background(), []byte("data"), nil, 0)
	require.NoError(t, err)
	require.Empty(t, location)

	successes := 0
	tr.SendAsync(context.Background(), []byte("data"), nil, func(string) { successes++ }, func(error) {
		require.Fail(t, "onFailure must not be called")
	})
	require.Equal(t, 1, successes)
}
