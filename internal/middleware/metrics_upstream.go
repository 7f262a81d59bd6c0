package middleware

import (
	"time"

	"chatrelay-go/internal/monitoring"
)

// UpstreamResult describes how one provider call got as far as response
// headers. Status is 0 when the request never got a response.
type UpstreamResult struct {
	Provider string
	Model    string
	Status   int
	// ErrorKind is the mapped APIError code; empty on success.
	ErrorKind string
	Duration  time.Duration
}

// RecordUpstream exports a single provider call.
func RecordUpstream(r UpstreamResult) {
	model := r.Model
	if model == "" {
		model = "unknown"
	}
	cls := statusClass(r.Status)
	if r.Status == 0 {
		cls = "network_error"
	}
	monitoring.UpstreamModelRequests.WithLabelValues(r.Provider, model).Inc()
	monitoring.UpstreamRequestsTotal.WithLabelValues(r.Provider, cls).Inc()
	if d := r.Duration.Seconds(); d > 0 {
		monitoring.UpstreamRequestDuration.WithLabelValues(r.Provider).Observe(d)
	}
	if r.ErrorKind != "" {
		monitoring.UpstreamErrors.WithLabelValues(r.Provider, r.ErrorKind).Inc()
	}
}
