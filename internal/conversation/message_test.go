package conversation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseMessage(t *testing.T) {
	m, err := ParseMessage("m1", "c1", 3, "assistant", strPtr("hello"))
	require.NoError(t, err)
	assert.Equal(t, Message{ID: "m1", ChatID: "c1", Position: 3, Role: RoleAssistant, Content: "hello"}, m)

	_, err = ParseMessage("m2", "c1", 4, "tool", strPtr("x"))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "role", verr.Field)

	_, err = ParseMessage("m3", "c1", 5, "user", nil)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "content", verr.Field)
	assert.Contains(t, err.Error(), "m3")
}

func TestParseMessageAllowsEmptyContent(t *testing.T) {
	m, err := ParseMessage("m1", "c1", 0, "user", strPtr(""))
	require.NoError(t, err)
	assert.Equal(t, "", m.Content)
}

func TestValidate(t *testing.T) {
	ok := []Message{{ID: "1", Role: RoleSystem}, {ID: "2", Role: RoleUser}, {ID: "3", Role: RoleAssistant}}
	require.NoError(t, Validate(ok))

	bad := append(ok, Message{ID: "4", Role: "model"})
	err := Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4")
}
