package common

import (
	"context"
	"time"

	"chatrelay-go/internal/constants"
)

// WithUpstreamTimeout bounds a streaming upstream call. The parent is the
// inbound request context, so a client disconnect cancels it too.
func WithUpstreamTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = constants.UpstreamStreamTimeout
	}
	return context.WithTimeout(parent, timeout)
}
