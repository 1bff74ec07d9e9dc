package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/agora-dev/symposium/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHook struct {
	userPromptCalled     bool
	assistantChunkCalled bool
	toolCallChunkCalled  bool
	assistantMsgCalled   bool
	toolCallMsgCalled    bool
	toolCallRespCalled   bool
	resultCalled         bool
	errorCalled          bool
	lastUserPrompt       messages.Message[messages.UserMessage]
	lastAssistantMsg     messages.Message[messages.AssistantMessage]
	lastToolCallResp     messages.Message[messages.ToolResponse]
	lastResult           any
	lastError            error
}

func (m *mockHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	m.userPromptCalled = true
	m.lastUserPrompt = msg
}

func (m *mockHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	m.assistantChunkCalled = true
}

func (m *mockHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	m.toolCallChunkCalled = true
}

func (m *mockHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	m.assistantMsgCalled = true
	m.lastAssistantMsg = msg
}

func (m *mockHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	m.toolCallMsgCalled = true
}

func (m *mockHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	m.toolCallRespCalled = true
	m.lastToolCallResp = msg
}

func (m *mockHook) OnResult(ctx context.Context, result any) {
	m.resultCalled = true
	m.lastResult = result
}

func (m *mockHook) OnError(ctx context.Context, err error) {
	m.errorCalled = true
	m.lastError = err
}

func TestCompositeHook(t *testing.T) {
	mock1 := &mockHook{}
	mock2 := &mockHook{}
	composite := NewCompositeHook(mock1, mock2)
	ctx := context.Background()

	t.Run("OnUserPrompt", func(t *testing.T) {
		msg := messages.Message[messages.UserMessage]{
			Payload: messages.UserMessage{
				Content: messages.ContentOrParts{Content: "test prompt"},
			},
		}
		composite.OnUserPrompt(ctx, msg)
		assert.True(t, mock1.userPromptCalled)
		assert.True(t, mock2.userPromptCalled)
		assert.Equal(t, msg, mock1.lastUserPrompt)
		assert.Equal(t, msg, mock2.lastUserPrompt)
	})

	t.Run("OnAssistantMessage", func(t *testing.T) {
		msg := messages.Message[messages.AssistantMessage]{
			Payload: messages.AssistantMessage{
				Content: messages.AssistantContentOrParts{Content: "test message"},
			},
		}
		composite.OnAssistantMessage(ctx, msg)
		assert.True(t, mock1.assistantMsgCalled)
		assert.True(t, mock2.assistantMsgCalled)
		assert.Equal(t, msg, mock1.lastAssistantMsg)
	})

	t.Run("OnToolCallResponse", func(t *testing.T) {
		msg := messages.Message[messages.ToolResponse]{
			Payload: messages.ToolResponse{
				ToolName: "calc",
				Content:  "4",
			},
		}
		composite.OnToolCallResponse(ctx, msg)
		assert.True(t, mock1.toolCallRespCalled)
		assert.True(t, mock2.toolCallRespCalled)
		assert.Equal(t, msg, mock1.lastToolCallResp)
	})

	t.Run("OnResult", func(t *testing.T) {
		composite.OnResult(ctx, "the answer")
		assert.True(t, mock1.resultCalled)
		assert.Equal(t, "the answer", mock1.lastResult)
	})

	t.Run("OnError", func(t *testing.T) {
		err := fmt.Errorf("test error")
		composite.OnError(ctx, err)
		assert.True(t, mock1.errorCalled)
		assert.True(t, mock2.errorCalled)
		assert.Equal(t, err, mock1.lastError)
	})
}

func TestMustJSON(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		data := map[string]string{"key": "value"}
		require.NotPanics(t, func() {
			result := mustJSON(data)
			assert.Equal(t, `{"key":"value"}`, result)
		})
	})

	t.Run("invalid json", func(t *testing.T) {
		type circular struct {
			Self *circular
		}
		data := &circular{}
		data.Self = data

		require.Panics(t, func() {
			_ = mustJSON(data)
		})
	})
}
