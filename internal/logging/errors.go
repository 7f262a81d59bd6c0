package logging

// ErrorKind normalizes an upstream outcome into a short label for logs and
// metrics. status is the upstream HTTP status, 0 when no response arrived.
func ErrorKind(status int, hasErr bool) string {
	if hasErr && status == 0 {
		return "network_error"
	}
	switch {
	case status == 404:
		return "upstream_404"
	case status == 408:
		return "canceled"
	case status == 429:
		return "upstream_429"
	case status == 401, status == 403:
		return "upstream_auth"
	case status >= 500 && status < 600:
		return "upstream_5xx"
	case status >= 400 && status < 500:
		return "upstream_4xx"
	}
	if hasErr {
		return "error"
	}
	return "ok"
}
