// Package chat serves POST /api/chat: it loads the conversation around a
// stored message, trims it, and relays a model completion as SSE.
package chat

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chatrelay-go/internal/conversation"
	hcommon "chatrelay-go/internal/handlers/common"
	"chatrelay-go/internal/logging"
	mw "chatrelay-go/internal/middleware"
	"chatrelay-go/internal/storage"
	"chatrelay-go/internal/streaming"
	"chatrelay-go/internal/upstream"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Request is the endpoint body.
type Request struct {
	MessageID string `json:"messageId" binding:"required"`
	Model     string `json:"model" binding:"required"`
}

type Handler struct {
	store      storage.MessageStore
	dispatcher *upstream.Dispatcher
	counter    conversation.TokenCounter
	timeout    time.Duration
}

type Option func(*Handler)

// WithTokenCounter replaces the prompt size estimator.
func WithTokenCounter(tc conversation.TokenCounter) Option {
	return func(h *Handler) { h.counter = tc }
}

// WithStreamTimeout caps the whole upstream exchange.
func WithStreamTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

func New(store storage.MessageStore, dispatcher *upstream.Dispatcher, opts ...Option) *Handler {
	h := &Handler{store: store, dispatcher: dispatcher}
	for _, opt := range opts {
		opt(h)
	}
	if h.counter == nil {
		h.counter = conversation.NewTiktokenCounter()
	}
	return h
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		mw.RecordChatOutcome("", "bad_request")
		hcommon.AbortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}
	c.Set("message_id", req.MessageID)
	c.Set("model", req.Model)

	ctx := upstream.WithRequestID(c.Request.Context(), c.GetString("request_id"))

	target, err := h.store.GetMessage(ctx, req.MessageID)
	if err != nil {
		if storage.IsNotFound(err) {
			// unknown ids get a bare 404 and never reach a provider
			mw.RecordChatOutcome("", "not_found")
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		h.abortStoreError(c, "load message", err)
		return
	}

	history, err := h.store.ListHistory(ctx, target.ChatID, target.Position)
	if err != nil {
		h.abortStoreError(c, "load history", err)
		return
	}
	if err := conversation.Validate(history); err != nil {
		h.abortStoreError(c, "validate history", err)
		return
	}

	turns, stats := conversation.SelectWithStats(history, h.counter)
	mw.RecordHistorySelection(stats)

	provider := h.dispatcher.For(req.Model)
	name := provider.Name()
	c.Set("provider", name)
	logging.WithReq(c, log.Fields{
		"chat_id":        target.ChatID,
		"provider":       name,
		"turns_in":       stats.InputTurns,
		"turns_out":      stats.OutputTurns,
		"turns_stripped": stats.StrippedTurns,
		"prompt_tokens":  stats.EstimateTokens,
	}).Debug("history selected")

	upCtx, cancel := hcommon.WithUpstreamTimeout(ctx, h.timeout)
	defer cancel()

	stream, err := provider.Open(upCtx, req.Model, turns)
	if err != nil {
		apiErr := hcommon.AbortWithCause(c, err)
		mw.RecordChatOutcome(name, "upstream_error")
		logging.WithReq(c, log.Fields{
			"provider": name,
			"status":   apiErr.HTTPStatus,
			"kind":     logging.ErrorKind(apiErr.HTTPStatus, true),
		}).WithError(err).Warn("upstream open failed")
		return
	}
	defer stream.Close()

	h.relay(c, name, stream, upCtx)
}

// relay sends the event-stream headers and copies the stream. A failed
// stream aborts the connection so the client never sees [DONE].
func (h *Handler) relay(c *gin.Context, provider string, stream upstream.Stream, upCtx context.Context) {
	start := time.Now()
	streaming.PrepareHeaders(c.Writer)
	c.Writer.Flush()
	cw := streaming.NewCountingWriter(c.Writer)
	events, err := stream.Relay(cw, c.Writer.Flush)
	mw.RecordSSEEvents(provider, events)
	mw.RecordSSEBytes(provider, cw.Bytes)

	if err == nil {
		mw.RecordSSEClose(provider, "completed")
		mw.RecordChatOutcome(provider, "ok")
		return
	}

	reason := "upstream_error"
	switch {
	case c.Request.Context().Err() != nil:
		reason = "client_disconnect"
	case errors.Is(upCtx.Err(), context.DeadlineExceeded):
		reason = "timeout"
	}
	mw.RecordSSEClose(provider, reason)
	mw.RecordChatOutcome(provider, "stream_error")
	logging.WithReq(c, log.Fields{
		"provider":    provider,
		"events":      events,
		"reason":      reason,
		"duration_ms": logging.DurationMS(time.Since(start)),
	}).WithError(err).Warn("stream ended abnormally")

	panic(http.ErrAbortHandler)
}

func (h *Handler) abortStoreError(c *gin.Context, op string, err error) {
	var vErr *conversation.ValidationError
	code := "storage_error"
	if errors.As(err, &vErr) {
		code = "validation_error"
	}
	mw.RecordChatOutcome("", code)
	logging.WithReq(c, nil).WithError(err).Error(op + " failed")
	hcommon.AbortWithError(c, http.StatusInternalServerError, code, op+" failed")
}
