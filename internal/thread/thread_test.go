package thread

import (
	"encoding/json"
	"errors"
	"testing"

	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidateRole(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleAssistant, RoleSystem, RoleTool} {
		assert.NoError(t, ValidateRole(role))
	}

	err := ValidateRole("narrator")
	assert.True(t, errors.Is(err, altronErrors.ErrUnsupportedRole))
	assert.ErrorContains(t, err, "narrator")
}

func TestNewMessageStampsTimestamp(t *testing.T) {
	msg := NewMessage(RoleUser, "hello")
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestAppendPreservesOrder(t *testing.T) {
	th := &Thread{ID: "t1"}
	th.Append(NewMessage(RoleUser, "first"))
	th.Append(NewMessage(RoleAssistant, "second"))
	th.Append(NewMessage(RoleUser, "third"))

	if assert.Len(t, th.Messages, 3) {
		assert.Equal(t, "first", th.Messages[0].Content)
		assert.Equal(t, "second", th.Messages[1].Content)
		assert.Equal(t, "third", th.Messages[2].Content)
	}
}

func TestMessageJSON_OmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(NewMessage(RoleUser, "hi"))
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "reasoning")
	assert.NotContains(t, string(data), "tool_calls")
	assert.NotContains(t, string(data), "tool_call_id")
}
