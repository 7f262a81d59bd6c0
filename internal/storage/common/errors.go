package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound 表示消息不存在
var ErrNotFound = errors.New("message not found")

// ErrAlreadyExists is returned by writers when the id or (chat, position)
// pair is taken.
var ErrAlreadyExists = errors.New("message already exists")

// NotFound wraps ErrNotFound with the missing id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// MapSQLError 将 database/sql 错误映射为通用错误
func MapSQLError(err error, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound(id)
	}
	return mapContextError(err)
}

// MapMongoError 将 MongoDB 错误映射为通用错误
func MapMongoError(err error, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NotFound(id)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}
	return mapContextError(err)
}

func mapContextError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("operation canceled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("operation timeout: %w", err)
	}
	return err
}
