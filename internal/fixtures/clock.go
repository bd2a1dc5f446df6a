package fixtures

import (
	"context"
	"time"

	"github.com/tilinna/clock"
)

// NewMockClock attaches a clock.Mock to a context.
func NewMockClock(ctx context.Context) (context.Context, *clock.Mock) {
	clck := clock.NewMock(time.Unix(1, 0))
	return clock.Context(ctx, clck), clck
}
