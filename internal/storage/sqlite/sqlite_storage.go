// Package sqlite is the local development message store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"chatrelay-go/internal/constants"
	"chatrelay-go/internal/conversation"
	storagecommon "chatrelay-go/internal/storage/common"

	log "github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Storage struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// New opens (creating if needed) the database file at path and ensures the
// messages schema exists.
func New(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 单写者
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Storage{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	log.WithField("path", path).Info("Opened SQLite message store")
	return s, nil
}

func (s *Storage) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		chat_id    TEXT NOT NULL,
		position   INTEGER NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_chat_position ON messages(chat_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return storagecommon.WithStorageTimeout(ctx, constants.StorageTimeout)
}

func (s *Storage) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("sqlite storage is closed")
	}
	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Storage) Health(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Storage) GetMessage(ctx context.Context, id string) (*conversation.Message, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+storagecommon.MessageColumns+` FROM messages WHERE id = ?`, id)
	msg, err := storagecommon.ScanMessage(row)
	if err != nil {
		return nil, storagecommon.MapSQLError(err, id)
	}
	return &msg, nil
}

func (s *Storage) ListHistory(ctx context.Context, chatID string, maxPosition int64) ([]conversation.Message, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+storagecommon.MessageColumns+` FROM messages
		 WHERE chat_id = ? AND position <= ?
		 ORDER BY position ASC`, chatID, maxPosition)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for chat %s: %w", chatID, err)
	}
	return storagecommon.ScanMessages(rows)
}

func (s *Storage) InsertMessage(ctx context.Context, msg conversation.Message) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, position, role, content) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.Position, string(msg.Role), msg.Content)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: %s", storagecommon.ErrAlreadyExists, msg.ID)
		}
		return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
	}
	return nil
}

// execRaw is used by tests to plant rows the writer would refuse.
func (s *Storage) execRaw(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func isConstraintError(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
