package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

type networkRule struct {
	match  func(err error, msg string) bool
	status int
	code   string
	typ    string
	prefix string
}

func msgContains(subs ...string) func(error, string) bool {
	return func(_ error, msg string) bool {
		for _, s := range subs {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

func isTimeout(err error, msg string) bool {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return true
	}
	return strings.Contains(msg, "timeout")
}

// first match wins; cancellation is checked before timeouts
var networkRules = []networkRule{
	{func(err error, _ string) bool { return errors.Is(err, context.Canceled) },
		http.StatusRequestTimeout, "request_canceled", "timeout_error", "Request was canceled"},
	{isTimeout, http.StatusGatewayTimeout, "timeout", "timeout_error", "Request timeout"},
	{msgContains("connection refused"), http.StatusBadGateway, "connection_error", "server_error", "Connection refused"},
	{msgContains("EOF", "connection reset"), http.StatusBadGateway, "connection_error", "server_error", "Connection error"},
	{msgContains("no such host", "name resolution"), http.StatusBadGateway, "dns_error", "server_error", "DNS resolution error"},
	{msgContains("certificate", "tls"), http.StatusBadGateway, "tls_error", "server_error", "TLS/Certificate error"},
}

// MapNetworkError maps a failure to reach a provider (no HTTP response) to
// an APIError.
func MapNetworkError(err error) *APIError {
	msg := err.Error()
	for _, r := range networkRules {
		if r.match(err, msg) {
			return New(r.status, r.code, r.typ, r.prefix+": "+msg)
		}
	}
	return New(http.StatusBadGateway, "network_error", "server_error", "Network error: "+msg)
}
