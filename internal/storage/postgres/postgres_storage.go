package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatrelay-go/internal/constants"
	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/migrations"
	storagecommon "chatrelay-go/internal/storage/common"

	pq "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// uniqueViolation is the SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

type Storage struct {
	db  *sql.DB
	dsn string
}

func withPGTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return storagecommon.WithStorageTimeout(ctx, constants.StorageTimeout)
}

// New opens and pings a PostgreSQL message store.
func New(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := withPGTimeout(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("Connected to PostgreSQL message store")
	return &Storage{db: db, dsn: dsn}, nil
}

// Initialize applies the embedded schema migrations over a separate
// connection; the migrator closes the handle it is given.
func (p *Storage) Initialize(ctx context.Context) error {
	mdb, err := sql.Open("postgres", p.dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	if err := migrations.PostgresUp(mdb); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (p *Storage) Close() error {
	return p.db.Close()
}

func (p *Storage) Health(ctx context.Context) error {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()
	return p.db.PingContext(ctx)
}

// PoolStats returns current connection pool statistics.
func (p *Storage) PoolStats() (active int64, idle int64, waits int64) {
	if p == nil || p.db == nil {
		return 0, 0, 0
	}
	s := p.db.Stats()
	return int64(s.InUse), int64(s.Idle), s.WaitCount
}

func (p *Storage) GetMessage(ctx context.Context, id string) (*conversation.Message, error) {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()

	row := p.db.QueryRowContext(ctx,
		`SELECT `+storagecommon.MessageColumns+` FROM messages WHERE id = $1`, id)
	msg, err := storagecommon.ScanMessage(row)
	if err != nil {
		return nil, storagecommon.MapSQLError(err, id)
	}
	return &msg, nil
}

// ListHistory returns the chat's messages up to and including maxPosition,
// ascending by position.
func (p *Storage) ListHistory(ctx context.Context, chatID string, maxPosition int64) ([]conversation.Message, error) {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx,
		`SELECT `+storagecommon.MessageColumns+` FROM messages
		 WHERE chat_id = $1 AND position <= $2
		 ORDER BY position ASC`, chatID, maxPosition)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for chat %s: %w", chatID, err)
	}
	return storagecommon.ScanMessages(rows)
}

func (p *Storage) InsertMessage(ctx context.Context, msg conversation.Message) error {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, position, role, content) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ChatID, msg.Position, string(msg.Role), msg.Content)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("%w: %s", storagecommon.ErrAlreadyExists, msg.ID)
		}
		return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
	}
	return nil
}
