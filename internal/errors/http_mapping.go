package errors

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

type statusMapping struct {
	code, typ, fallback string
}

// 上游状态码 -> 客户端错误；未列出的一律视为 502
var httpStatusMappings = map[int]statusMapping{
	http.StatusBadRequest:          {"invalid_request_error", "invalid_request_error", "Invalid request"},
	http.StatusUnauthorized:        {"invalid_api_key", "authentication_error", "Invalid authentication"},
	http.StatusForbidden:           {"permission_denied", "permission_error", "Permission denied"},
	http.StatusNotFound:            {"model_not_found", "invalid_request_error", "Model not found"},
	http.StatusTooManyRequests:     {"rate_limit_exceeded", "rate_limit_error", "Rate limit exceeded"},
	http.StatusInternalServerError: {"server_error", "server_error", "Internal server error"},
	http.StatusBadGateway:          {"bad_gateway", "server_error", "Bad gateway"},
	http.StatusServiceUnavailable:  {"service_unavailable", "server_error", "Service temporarily unavailable"},
	http.StatusGatewayTimeout:      {"timeout", "timeout_error", "Request timeout"},
}

// MapHTTPError turns a provider's non-2xx status and body into the error
// the client receives. The provider's own message is preferred when the
// body carries one.
func MapHTTPError(statusCode int, upstreamBody []byte) *APIError {
	msg := extractUpstreamMessage(upstreamBody)
	if m, ok := httpStatusMappings[statusCode]; ok {
		return New(statusCode, m.code, m.typ, firstNonEmpty(msg, m.fallback))
	}
	return New(http.StatusBadGateway, "upstream_error", "server_error",
		firstNonEmpty(msg, fmt.Sprintf("Upstream HTTP %d error", statusCode)))
}

// extractUpstreamMessage reads {"error":{"message"}}, the array-wrapped
// form Gemini sometimes returns, or a bare {"message"}. Non-JSON bodies are
// returned truncated.
func extractUpstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "0.error.message", "message"} {
			if msg := gjson.GetBytes(body, path).String(); msg != "" {
				return msg
			}
		}
	}
	const maxLen = 200
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}

func firstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}
