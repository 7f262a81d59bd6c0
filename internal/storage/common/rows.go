package common

import (
	"database/sql"
	"fmt"

	"chatrelay-go/internal/conversation"
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// MessageColumns is the column list every SQL backend selects, in scan order.
const MessageColumns = "id, chat_id, position, role, content"

// ScanMessage reads one row in MessageColumns order. Role and content are
// scanned as nullable so that a malformed row surfaces as a
// *conversation.ValidationError instead of a driver conversion error.
func ScanMessage(row RowScanner) (conversation.Message, error) {
	var (
		id, chatID    string
		position      int64
		role, content sql.NullString
	)
	if err := row.Scan(&id, &chatID, &position, &role, &content); err != nil {
		return conversation.Message{}, err
	}
	var contentPtr *string
	if content.Valid {
		contentPtr = &content.String
	}
	return conversation.ParseMessage(id, chatID, position, role.String, contentPtr)
}

// ScanMessages drains rows into a slice, preserving row order.
func ScanMessages(rows *sql.Rows) ([]conversation.Message, error) {
	defer rows.Close()
	var out []conversation.Message
	for rows.Next() {
		msg, err := ScanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}
