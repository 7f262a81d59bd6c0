package storage

import (
	"context"
	"sync"

	"chatrelay-go/internal/conversation"
	storagecommon "chatrelay-go/internal/storage/common"
)

// countingBackend is an in-memory Backend that records read calls.
type countingBackend struct {
	mu       sync.Mutex
	messages map[string]conversation.Message
	gets     int
	lists    int
	closed   bool
}

func newCountingBackend(msgs ...conversation.Message) *countingBackend {
	b := &countingBackend{messages: map[string]conversation.Message{}}
	for _, m := range msgs {
		b.messages[m.ID] = m
	}
	return b
}

func (b *countingBackend) GetMessage(_ context.Context, id string) (*conversation.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gets++
	m, ok := b.messages[id]
	if !ok {
		return nil, storagecommon.NotFound(id)
	}
	return &m, nil
}

func (b *countingBackend) ListHistory(_ context.Context, chatID string, maxPosition int64) ([]conversation.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	var out []conversation.Message
	for _, m := range b.messages {
		if m.ChatID == chatID && m.Position <= maxPosition {
			out = append(out, m)
		}
	}
	return out, nil
}

func (b *countingBackend) InsertMessage(_ context.Context, msg conversation.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[msg.ID] = msg
	return nil
}

func (b *countingBackend) Health(context.Context) error { return nil }

func (b *countingBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *countingBackend) getCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gets
}
