package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatTurn_UnmarshalPlainText(t *testing.T) {
	var turn ChatTurn
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"Hello"}`), &turn))

	assert.Equal(t, RoleUser, turn.Role)
	assert.Equal(t, PlainText("Hello"), turn.Content)
	assert.Equal(t, "Hello", turn.Text())
}

func TestChatTurn_UnmarshalParts(t *testing.T) {
	body := `{"role":"user","content":[{"type":"image","image":"data:..."},{"type":"text","text":"first"},{"type":"text","text":"second"}]}`

	var turn ChatTurn
	require.NoError(t, json.Unmarshal([]byte(body), &turn))

	parts, ok := turn.Content.(Parts)
	require.True(t, ok)
	assert.Len(t, parts, 3)
	assert.Equal(t, "first", turn.Text())
	// 不透明片段原样保留
	assert.JSONEq(t, `{"type":"image","image":"data:..."}`, string(parts[0].Raw))
}

func TestChatTurn_UnmarshalMissingContent(t *testing.T) {
	var turn ChatTurn
	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant"}`), &turn))

	assert.Nil(t, turn.Content)
	assert.Equal(t, "", turn.Text())
}

func TestChatTurn_UnmarshalRejectsObjectContent(t *testing.T) {
	var turn ChatTurn
	err := json.Unmarshal([]byte(`{"role":"user","content":{"text":"x"}}`), &turn)
	assert.Error(t, err)
}

func TestExtractText_PartsWithoutText(t *testing.T) {
	assert.Equal(t, "", ExtractText(Parts{{Type: "file"}}))
	assert.Equal(t, "", ExtractText(nil))
}

func TestChatTurn_MarshalKeepsShape(t *testing.T) {
	in := `{"role":"user","content":[{"type":"text","text":"hi"}]}`
	var turn ChatTurn
	require.NoError(t, json.Unmarshal([]byte(in), &turn))

	out, err := json.Marshal(turn)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestRole_Persistable(t *testing.T) {
	assert.True(t, RoleUser.Persistable())
	assert.True(t, RoleAssistant.Persistable())
	assert.False(t, RoleSystem.Persistable())
}
