package mongodb

import (
	"context"
	"fmt"
	"testing"

	"chatrelay-go/internal/conversation"
	storagecommon "chatrelay-go/internal/storage/common"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMongoStorage_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("mongodb integration test skipped in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("mongodb container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	store := New(fmt.Sprintf("mongodb://%s:%s", host, port.Port()), "itdb")
	require.NoError(t, store.Initialize(ctx))
	t.Cleanup(func() { _ = store.Close() })

	for _, m := range []conversation.Message{
		{ID: "b", ChatID: "c1", Position: 1, Role: conversation.RoleAssistant, Content: "hi"},
		{ID: "a", ChatID: "c1", Position: 0, Role: conversation.RoleUser, Content: "hello"},
		{ID: "c", ChatID: "c1", Position: 2, Role: conversation.RoleUser, Content: "later"},
	} {
		require.NoError(t, store.InsertMessage(ctx, m))
	}

	got, err := store.GetMessage(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, "hi", got.Content)

	history, err := store.ListHistory(ctx, "c1", 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "a", history[0].ID)
	require.Equal(t, "b", history[1].ID)

	_, err = store.GetMessage(ctx, "zzz")
	require.ErrorIs(t, err, storagecommon.ErrNotFound)

	err = store.InsertMessage(ctx, conversation.Message{ID: "a", ChatID: "c9", Position: 0, Role: conversation.RoleUser})
	require.ErrorIs(t, err, storagecommon.ErrAlreadyExists)

	require.NoError(t, store.Health(ctx))
}
