package upstream

import (
	"context"
	"io"
	"net/http"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
)

// WithRequestID 将入站请求 ID 附着到 context，上游请求会带上 X-Request-ID。
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestID 从 context 中读取请求 ID。
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}

// readErrorBody reads at most 64 KiB of an error response and closes it.
func readErrorBody(resp *http.Response) []byte {
	if resp == nil || resp.Body == nil {
		return nil
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return b
}
