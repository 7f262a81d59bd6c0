package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/monitoring"
	"chatrelay-go/internal/monitoring/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// WithInstrumentation wraps a backend with tracing and metrics instrumentation.
func WithInstrumentation(inner Backend, label string) Backend {
	if inner == nil {
		return inner
	}
	if label == "" {
		label = "unknown"
	}
	return &instrumentedBackend{Backend: inner, label: label}
}

type instrumentedBackend struct {
	Backend
	label string
}

func (i *instrumentedBackend) GetMessage(ctx context.Context, id string) (*conversation.Message, error) {
	var result *conversation.Message
	err := i.instrument(ctx, "get_message", id, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = i.Backend.GetMessage(ctx, id)
		return innerErr
	})
	return result, err
}

func (i *instrumentedBackend) ListHistory(ctx context.Context, chatID string, maxPosition int64) ([]conversation.Message, error) {
	var result []conversation.Message
	err := i.instrument(ctx, "list_history", fmt.Sprintf("chat=%s max=%d", chatID, maxPosition), func(ctx context.Context) error {
		var innerErr error
		result, innerErr = i.Backend.ListHistory(ctx, chatID, maxPosition)
		return innerErr
	})
	return result, err
}

func (i *instrumentedBackend) InsertMessage(ctx context.Context, msg conversation.Message) error {
	return i.instrument(ctx, "insert_message", msg.ID, func(ctx context.Context) error {
		return i.Backend.InsertMessage(ctx, msg)
	})
}

func (i *instrumentedBackend) Health(ctx context.Context) error {
	return i.instrument(ctx, "health", "", i.Backend.Health)
}

func (i *instrumentedBackend) PoolStats() (int64, int64, int64) {
	if p, ok := i.Backend.(PoolStatsProvider); ok {
		return p.PoolStats()
	}
	return 0, 0, 0
}

// resultLabel keeps not-found apart from real failures.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsNotFound(err):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		var verr *conversation.ValidationError
		if errors.As(err, &verr) {
			return "invalid"
		}
		return "error"
	}
}

func (i *instrumentedBackend) instrument(ctx context.Context, operation, details string, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracing.StartSpan(ctx, "storage", i.label+"/"+operation)
	span.SetAttributes(
		attribute.String("storage.backend", i.label),
		attribute.String("storage.operation", operation),
	)
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	result := resultLabel(err)
	if err != nil && result != "not_found" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	monitoring.StorageOperationsTotal.WithLabelValues(i.label, operation, result).Inc()
	monitoring.StorageOperationDuration.WithLabelValues(i.label, operation).Observe(duration.Seconds())
	if monitoring.SlowQueries().Observe(i.label+"/"+operation, details, start, duration) {
		log.WithFields(log.Fields{
			"backend":     i.label,
			"operation":   operation,
			"duration_ms": duration.Milliseconds(),
		}).Warn("slow storage operation")
	}
	if p, ok := i.Backend.(PoolStatsProvider); ok {
		active, idle, _ := p.PoolStats()
		monitoring.StoragePoolConnections.WithLabelValues(i.label, "active").Set(float64(active))
		monitoring.StoragePoolConnections.WithLabelValues(i.label, "idle").Set(float64(idle))
	}
	return err
}
