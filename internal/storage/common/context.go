package common

import (
	"context"
	"time"

	"chatrelay-go/internal/constants"
)

// WithStorageTimeout adds a timeout to ctx unless it already carries a
// deadline. A non-positive timeout falls back to constants.StorageTimeout.
func WithStorageTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = constants.StorageTimeout
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
