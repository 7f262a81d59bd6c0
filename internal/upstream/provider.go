// Package upstream defines the two model providers the relay can stream
// from and the rule that picks between them.
package upstream

import (
	"context"
	"io"
	"strings"

	"chatrelay-go/internal/constants"
	"chatrelay-go/internal/conversation"
)

// Provider opens a streaming completion for the selected history.
// Errors returned by Open happen before anything is written to the client
// and wrap an *errors.APIError where the cause is known.
type Provider interface {
	Name() string
	Open(ctx context.Context, model string, turns []conversation.Turn) (Stream, error)
}

// Stream is an open upstream response. Relay writes it to w as SSE,
// calling flush after every chunk, and reports how many events it wrote.
// A non-nil error means the stream ended abnormally.
type Stream interface {
	Relay(w io.Writer, flush func()) (int, error)
	Close() error
}

// Dispatcher routes a model name to exactly one provider: models containing
// Marker (case-sensitive) go to Gemini, everything else to OpenAI.
type Dispatcher struct {
	Marker string
	Gemini Provider
	OpenAI Provider
}

// NewDispatcher fills in the default marker when marker is empty.
func NewDispatcher(marker string, gemini, openai Provider) *Dispatcher {
	if marker == "" {
		marker = constants.DefaultGeminiMarker
	}
	return &Dispatcher{Marker: marker, Gemini: gemini, OpenAI: openai}
}

func (d *Dispatcher) For(model string) Provider {
	if strings.Contains(model, d.Marker) {
		return d.Gemini
	}
	return d.OpenAI
}
