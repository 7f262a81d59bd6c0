package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"chatrelay-go/internal/conversation"
	storagecommon "chatrelay-go/internal/storage/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func msg(id, chat string, pos int64, role conversation.Role, content string) conversation.Message {
	return conversation.Message{ID: id, ChatID: chat, Position: pos, Role: role, Content: content}
}

func TestGetMessageAndNotFound(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.InsertMessage(ctx, msg("m1", "c1", 0, conversation.RoleUser, "hello")))

	got, err := s.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ChatID)
	assert.Equal(t, conversation.RoleUser, got.Role)
	assert.Equal(t, "hello", got.Content)

	_, err = s.GetMessage(ctx, "missing")
	require.ErrorIs(t, err, storagecommon.ErrNotFound)
}

func TestListHistoryBoundsAndOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// inserted out of order on purpose
	require.NoError(t, s.InsertMessage(ctx, msg("a2", "c1", 2, conversation.RoleUser, "third")))
	require.NoError(t, s.InsertMessage(ctx, msg("a0", "c1", 0, conversation.RoleSystem, "first")))
	require.NoError(t, s.InsertMessage(ctx, msg("a1", "c1", 1, conversation.RoleAssistant, "second")))
	require.NoError(t, s.InsertMessage(ctx, msg("a3", "c1", 3, conversation.RoleAssistant, "later")))
	require.NoError(t, s.InsertMessage(ctx, msg("b0", "c2", 0, conversation.RoleUser, "other chat")))

	history, err := s.ListHistory(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"a0", "a1", "a2"}, []string{history[0].ID, history[1].ID, history[2].ID})
	for _, m := range history {
		assert.Equal(t, "c1", m.ChatID)
	}
}

func TestInsertDuplicate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.InsertMessage(ctx, msg("m1", "c1", 0, conversation.RoleUser, "x")))

	err := s.InsertMessage(ctx, msg("m1", "c1", 1, conversation.RoleUser, "y"))
	require.ErrorIs(t, err, storagecommon.ErrAlreadyExists)

	err = s.InsertMessage(ctx, msg("m2", "c1", 0, conversation.RoleUser, "y"))
	require.ErrorIs(t, err, storagecommon.ErrAlreadyExists)
}

func TestMalformedRowsSurfaceValidationErrors(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.execRaw(ctx,
		`INSERT INTO messages (id, chat_id, position, role, content) VALUES ('bad', 'c1', 0, 'tool', 'x')`))
	require.NoError(t, s.execRaw(ctx,
		`INSERT INTO messages (id, chat_id, position, role, content) VALUES ('nul', 'c2', 0, 'user', NULL)`))

	var verr *conversation.ValidationError
	_, err := s.GetMessage(ctx, "bad")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role", verr.Field)

	_, err = s.ListHistory(ctx, "c2", 10)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
}

func TestClosedStorage(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Error(t, s.Health(context.Background()))
	_, err := s.GetMessage(context.Background(), "m1")
	assert.Error(t, err)
}
