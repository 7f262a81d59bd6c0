package common

import (
	"encoding/json"
	"fmt"

	"chatrelay-go/internal/conversation"
)

// EncodeMessage serialises a message for cache storage.
func EncodeMessage(msg conversation.Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message %s: %w", msg.ID, err)
	}
	return payload, nil
}

// DecodeMessage is the inverse of EncodeMessage and re-validates the result.
func DecodeMessage(data []byte) (conversation.Message, error) {
	var raw struct {
		ID       string  `json:"id"`
		ChatID   string  `json:"chatId"`
		Position int64   `json:"position"`
		Role     string  `json:"role"`
		Content  *string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return conversation.Message{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return conversation.ParseMessage(raw.ID, raw.ChatID, raw.Position, raw.Role, raw.Content)
}
