package conversation

import (
	"fmt"
	"strings"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles a stored message may carry.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is a stored conversation row. Position orders messages within a chat.
type Message struct {
	ID       string `json:"id" bson:"_id" yaml:"id"`
	ChatID   string `json:"chatId" bson:"chat_id" yaml:"chatId"`
	Position int64  `json:"position" bson:"position" yaml:"position"`
	Role     Role   `json:"role" bson:"role" yaml:"role"`
	Content  string `json:"content" bson:"content" yaml:"content"`
}

// Turn is the role/content projection submitted to a model.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidationError reports a stored row that does not match the expected message shape.
type ValidationError struct {
	MessageID string
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.MessageID == "" {
		return fmt.Sprintf("invalid message %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid message %s: %s %s", e.MessageID, e.Field, e.Reason)
}

// ParseMessage builds a Message from raw row values, rejecting unknown roles
// and missing content. Storage backends call it for every decoded row.
func ParseMessage(id, chatID string, position int64, role string, content *string) (Message, error) {
	r := Role(strings.TrimSpace(role))
	if !r.Valid() {
		return Message{}, &ValidationError{MessageID: id, Field: "role", Reason: fmt.Sprintf("unexpected value %q", role)}
	}
	if content == nil {
		return Message{}, &ValidationError{MessageID: id, Field: "content", Reason: "is missing"}
	}
	return Message{ID: id, ChatID: chatID, Position: position, Role: r, Content: *content}, nil
}

// Validate checks the role of every message and fails on the first
// violation. Missing content is rejected earlier, by ParseMessage, since
// Content cannot be nil once a Message exists.
func Validate(msgs []Message) error {
	for i := range msgs {
		if !msgs[i].Role.Valid() {
			return &ValidationError{MessageID: msgs[i].ID, Field: "role", Reason: fmt.Sprintf("unexpected value %q", msgs[i].Role)}
		}
	}
	return nil
}

// Turns projects messages to role/content pairs, preserving order.
func Turns(msgs []Message) []Turn {
	out := make([]Turn, len(msgs))
	for i, m := range msgs {
		out[i] = Turn{Role: m.Role, Content: m.Content}
	}
	return out
}
