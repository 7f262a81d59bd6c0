package upstream

import (
	"fmt"
	"net/http"
	"time"

	apperrors "chatrelay-go/internal/errors"
	mw "chatrelay-go/internal/middleware"
	"chatrelay-go/internal/monitoring/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Send performs req and returns the response only for a 2xx status. Other
// statuses and transport failures come back wrapping an *errors.APIError,
// with the response body already drained and closed.
func Send(cli *http.Client, provider, model string, req *http.Request) (*http.Response, error) {
	ctx, span := tracing.StartSpan(req.Context(), "upstream/"+provider, provider+".Open",
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.Redacted()),
			attribute.String("upstream.model", model),
		))
	defer span.End()
	req = req.WithContext(ctx)
	if id := RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	tracing.Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := cli.Do(req)
	result := mw.UpstreamResult{Provider: provider, Model: model, Duration: time.Since(start)}
	if err != nil {
		apiErr := apperrors.MapNetworkError(err)
		result.ErrorKind = apiErr.Code
		mw.RecordUpstream(result)
		tracing.RecordError(span, err)
		log.WithError(err).WithFields(log.Fields{"provider": provider, "model": model}).Warn("upstream request failed")
		return nil, fmt.Errorf("%s request: %w", provider, apiErr)
	}

	result.Status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readErrorBody(resp)
		apiErr := apperrors.MapHTTPError(resp.StatusCode, body)
		result.ErrorKind = apiErr.Code
		mw.RecordUpstream(result)
		span.SetStatus(codes.Error, fmt.Sprintf("http_status=%d", resp.StatusCode))
		log.WithFields(log.Fields{
			"provider": provider,
			"model":    model,
			"status":   resp.StatusCode,
			"message":  apiErr.Message,
		}).Warn("upstream returned error status")
		return nil, fmt.Errorf("%s status %d: %w", provider, resp.StatusCode, apiErr)
	}
	mw.RecordUpstream(result)
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
