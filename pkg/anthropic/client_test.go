package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	sdk "github.com/anthropics/anthropic-sdk-go"
)

func TestToSDKMessages(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "evaluate this city"},
		{Role: "assistant", Content: "here is my analysis"},
		{Role: "", Content: "defaults to user"},
	}

	out := toSDKMessages(msgs)
	assert.Len(t, out, 3)
	assert.Equal(t, sdk.MessageParamRoleUser, out[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, out[1].Role)
	assert.Equal(t, sdk.MessageParamRoleUser, out[2].Role)
}

func TestFromSDKMessage(t *testing.T) {
	msg := &sdk.Message{
		ID:    "msg_123",
		Model: "claude-sonnet-4-5-20250929",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "narrative output"},
		},
		StopReason: "end_turn",
		Usage: sdk.Usage{
			InputTokens:  120,
			OutputTokens: 250,
		},
	}

	resp := fromSDKMessage(msg)
	assert.Equal(t, "msg_123", resp.ID)
	assert.Equal(t, "claude-sonnet-4-5-20250929", resp.Model)
	assert.Len(t, resp.Content, 1)
	assert.Equal(t, "narrative output", resp.Content[0].Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(250), resp.Usage.OutputTokens)
}

func TestNewClient(t *testing.T) {
	c := NewClient("test-key")
	assert.NotNil(t, c)
}
