package storage

import (
	"context"
	"errors"

	"chatrelay-go/internal/conversation"
	storagecommon "chatrelay-go/internal/storage/common"
)

// MessageStore is the read side used by the chat endpoint.
type MessageStore interface {
	// GetMessage returns ErrNotFound (wrapped) when no message has the id.
	GetMessage(ctx context.Context, id string) (*conversation.Message, error)
	// ListHistory returns every message of chatID with position <= maxPosition,
	// ascending by position.
	ListHistory(ctx context.Context, chatID string, maxPosition int64) ([]conversation.Message, error)
	Health(ctx context.Context) error
	Close() error
}

// MessageWriter is used by dev tooling and tests only.
type MessageWriter interface {
	InsertMessage(ctx context.Context, msg conversation.Message) error
}

// Backend is what every concrete store and wrapper in this package provides.
type Backend interface {
	MessageStore
	MessageWriter
}

var (
	ErrNotFound      = storagecommon.ErrNotFound
	ErrAlreadyExists = storagecommon.ErrAlreadyExists
)

// IsNotFound reports whether err means the requested message does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// PoolStats is a snapshot of a backend's connection pool.
type PoolStats struct {
	Active int64 `json:"active"`
	Idle   int64 `json:"idle"`
	Waits  int64 `json:"waits"`
}

// PoolStatsProvider can optionally expose pool statistics for a backend.
type PoolStatsProvider interface {
	PoolStats() (active int64, idle int64, waits int64)
}
