package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"chatrelay-go/internal/conversation"
	store "chatrelay-go/internal/storage"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk shape of a conversation fixture:
//
//	chatId: demo
//	messages:
//	  - role: system
//	    content: be brief
//	  - role: user
//	    content: hi
type seedFile struct {
	ChatID   string        `yaml:"chatId"`
	Messages []seedMessage `yaml:"messages"`
}

type seedMessage struct {
	ID       string  `yaml:"id"`
	Position *int64  `yaml:"position"`
	Role     string  `yaml:"role"`
	Content  *string `yaml:"content"`
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open seed file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// seed inserts every message of the fixture read from r. Missing ids are
// generated and missing positions continue from the previous message.
func seed(ctx context.Context, w store.MessageWriter, r io.Reader) (string, int, error) {
	var sf seedFile
	if err := yaml.NewDecoder(r).Decode(&sf); err != nil {
		return "", 0, fmt.Errorf("decode seed file: %w", err)
	}
	if sf.ChatID == "" {
		sf.ChatID = uuid.NewString()
	}

	var next int64 = 1
	for i, sm := range sf.Messages {
		id := sm.ID
		if id == "" {
			id = uuid.NewString()
		}
		pos := next
		if sm.Position != nil {
			pos = *sm.Position
		}
		msg, err := conversation.ParseMessage(id, sf.ChatID, pos, sm.Role, sm.Content)
		if err != nil {
			return sf.ChatID, i, err
		}
		if err := w.InsertMessage(ctx, msg); err != nil {
			return sf.ChatID, i, fmt.Errorf("insert message %s: %w", id, err)
		}
		next = pos + 1
	}
	return sf.ChatID, len(sf.Messages), nil
}
