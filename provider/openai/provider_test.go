package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agora-dev/symposium/internal/shorttermmemory"
	"github.com/agora-dev/symposium/messages"
	"github.com/agora-dev/symposium/provider"
	"github.com/agora-dev/symposium/tool"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p := New()
	assert.NotNil(t, p)
	assert.NotNil(t, p.client)
	assert.Equal(t, 3, p.retry.maxRetries)
}

func TestProvider_buildRequest_Error(t *testing.T) {
	p := New()
	ctx := context.Background()

	invalidTool := provider.CompletionParams{
		RunID:        uuid.New(),
		Instructions: "Test instructions",
		Thread:       shorttermmemory.New(),
		Tools: []tool.Definition{{
			Name:        "invalid_tool",
			Description: "A test tool",
			Function:    nil,
		}},
	}

	_, err := p.buildRequest(ctx, &invalidTool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool invalid_tool has nil function")
}

func TestProvider_buildRequest(t *testing.T) {
	p := New()
	ctx := context.Background()
	runID := uuid.New()
	aggregator := shorttermmemory.New()

	userMsg := messages.Message[messages.UserMessage]{
		RunID:  runID,
		TurnID: aggregator.ID(),
		Sender: "testUser",
		Payload: messages.UserMessage{
			Content: messages.ContentOrParts{Content: "Hello"},
		},
	}
	aggregator.AddUserPrompt(userMsg)

	toolDef := tool.Definition{
		Name:        "test_tool",
		Description: "A test tool",
		Parameters:  map[string]string{"param0": "value1"},
		Function:    func(s string) string { return s },
	}

	params := &provider.CompletionParams{
		RunID:        runID,
		Instructions: "Test instructions",
		Thread:       aggregator,
		Stream:       false,
		Model:        GPT4oMini(),
		Tools:        []tool.Definition{toolDef},
	}

	chatParams, err := p.buildRequest(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, GPT4oMini().Name(), string(chatParams.Model.Value))
	assert.Equal(t, int64(1), chatParams.N.Value)
	assert.True(t, chatParams.ParallelToolCalls.Value)
	assert.Equal(t, 0.1, chatParams.Temperature.Value)
	assert.Equal(t, "testUser", chatParams.User.Value)

	msgs := chatParams.Messages.Value
	require.Len(t, msgs, 2)

	systemMsg := msgs[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "Test instructions", systemMsg.Content.Value[0].Text.Value)

	userMsg2 := msgs[1].(openai.ChatCompletionUserMessageParam)
	assert.Equal(t, "Hello", userMsg2.Content.Value[0].(openai.ChatCompletionContentPartTextParam).Text.Value)

	tools := chatParams.Tools.Value
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ChatCompletionToolTypeFunction, tools[0].Type.Value)
	assert.Equal(t, "test_tool", tools[0].Function.Value.Name.Value)
	assert.Equal(t, "A test tool", tools[0].Function.Value.Description.Value)
}

func TestProvider_buildRequest_ResponseSchema(t *testing.T) {
	p := New()
	ctx := context.Background()

	params := &provider.CompletionParams{
		RunID:        uuid.New(),
		Instructions: "Test instructions",
		Thread:       shorttermmemory.New(),
		Model:        GPT4oMini(),
		ResponseSchema: &provider.StructuredOutput{
			Name:        "verdict",
			Description: "A structured verdict",
			Schema:      &jsonschema.Schema{Type: "object"},
		},
	}

	chatParams, err := p.buildRequest(ctx, params)
	require.NoError(t, err)
	require.True(t, chatParams.ResponseFormat.Present)
}

func TestProvider_ChatCompletion(t *testing.T) {
	mockResp := openai.ChatCompletion{
		ID: "test-id",
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					Content: "Test response",
				},
			},
		},
	}

	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	})

	params := provider.CompletionParams{
		RunID:        uuid.New(),
		Instructions: "Test instructions",
		Thread:       shorttermmemory.New(),
		Stream:       false,
		Model:        GPT4oMini(),
	}

	events, err := p.ChatCompletion(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, events)

	event := <-events
	resp, ok := event.(provider.Response[messages.AssistantMessage])
	require.True(t, ok)
	assert.Equal(t, "Test response", resp.Response.Content.Content)

	_, ok = <-events
	assert.False(t, ok)
}

func TestProvider_ChatCompletion_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	mockResp := openai.ChatCompletion{
		ID: "test-id",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "eventually"}},
		},
	}

	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":{"message":"upstream unavailable"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	})
	p.retry = retryConfig{maxRetries: 3, retryDelay: time.Millisecond, maxDelay: 10 * time.Millisecond}

	events, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
		RunID:        uuid.New(),
		Instructions: "Test instructions",
		Thread:       shorttermmemory.New(),
		Model:        GPT4oMini(),
	})
	require.NoError(t, err)

	event := <-events
	resp, ok := event.(provider.Response[messages.AssistantMessage])
	require.True(t, ok, "expected a response after retries, got %T", event)
	assert.Equal(t, "eventually", resp.Response.Content.Content)
	assert.EqualValues(t, 3, calls.Load())
}

func TestProvider_ChatCompletion_Streaming(t *testing.T) {
	mockEvents := []openai.ChatCompletionChunk{
		{
			ID: "test-id",
			Choices: []openai.ChatCompletionChunkChoice{
				{Delta: openai.ChatCompletionChunkChoicesDelta{Content: "Hello"}},
			},
		},
		{
			ID: "test-id",
			Choices: []openai.ChatCompletionChunkChoice{
				{Delta: openai.ChatCompletionChunkChoicesDelta{Content: " world"}},
			},
		},
	}

	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for _, event := range mockEvents {
			data, err := json.Marshal(event)
			require.NoError(t, err)
			_, err = fmt.Fprintf(w, "data: %s\n\n", data)
			require.NoError(t, err)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	})

	events, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
		RunID:        uuid.New(),
		Instructions: "Test instructions",
		Thread:       shorttermmemory.New(),
		Stream:       true,
		Model:        GPT4oMini(),
	})
	require.NoError(t, err)

	var received []provider.StreamEvent
	for event := range events {
		received = append(received, event)
	}

	require.GreaterOrEqual(t, len(received), 4)
	assert.Equal(t, provider.Delim{Delim: "start"}, received[0])

	chunk, ok := received[1].(provider.Chunk[messages.AssistantMessage])
	require.True(t, ok)
	assert.Equal(t, "Hello", chunk.Chunk.Content.Content)

	assert.Equal(t, provider.Delim{Delim: "end"}, received[len(received)-2])

	final, ok := received[len(received)-1].(provider.Response[messages.AssistantMessage])
	require.True(t, ok)
	assert.Equal(t, "Hello world", final.Response.Content.Content)
}

func TestMessagesToOpenAI_EmptyMessages(t *testing.T) {
	result, user := messagesToOpenAI("Test instructions", slices.Values([]messages.Message[messages.ModelMessage]{}))

	require.Len(t, result, 1)
	systemMsg := result[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "Test instructions", systemMsg.Content.Value[0].Text.Value)
	assert.Empty(t, user)
}

func TestMessagesToOpenAI_ToolFlow(t *testing.T) {
	msgs := []messages.Message[messages.ModelMessage]{
		{Payload: messages.ToolCallMessage{ToolCalls: []messages.ToolCallData{
			{ID: "call_1", Name: "calculate", Arguments: `{"param0":"1+1"}`},
		}}},
		{Payload: messages.ToolResponse{ToolCallID: "call_1", ToolName: "calculate", Content: "2"}},
	}

	result, _ := messagesToOpenAI("instructions", slices.Values(msgs))
	require.Len(t, result, 3)

	call := result[1].(openai.ChatCompletionMessageParam)
	assert.Equal(t, openai.ChatCompletionMessageParamRoleAssistant, call.Role.Value)

	resp := result[2].(openai.ChatCompletionToolMessageParam)
	assert.Equal(t, "2", resp.Content.Value[0].Text.Value)
}

func TestCompletionChunkToStreamEvent_Empty(t *testing.T) {
	cmd := &provider.CompletionParams{RunID: uuid.New(), Thread: shorttermmemory.New()}
	event := completionChunkToStreamEvent(&openai.ChatCompletionChunk{}, cmd)
	assert.Equal(t, provider.Delim{Delim: "empty"}, event)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(fmt.Errorf("boom")))
	assert.True(t, isRetryableError(&openai.Error{StatusCode: 429}))
	assert.True(t, isRetryableError(&openai.Error{StatusCode: 503}))
	assert.False(t, isRetryableError(&openai.Error{StatusCode: 400}))
}

func TestCalculateBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	limit := time.Second

	for attempt := range 5 {
		delay := calculateBackoff(base, attempt, limit)
		assert.GreaterOrEqual(t, delay, base)
		// limit plus 25% jitter
		assert.LessOrEqual(t, delay, limit+limit/4)
	}
}

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Provider {
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
	})

	return New(option.WithBaseURL(server.URL+"/v1"), option.WithAPIKey("test-key"), option.WithMaxRetries(0))
}
