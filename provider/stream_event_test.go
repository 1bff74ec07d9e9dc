package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/agora-dev/symposium/internal/shorttermmemory"
	"github.com/agora-dev/symposium/messages"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDelimJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()

	in := Delim{RunID: runID, TurnID: turnID, Delim: "start"}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "delim", gjson.GetBytes(data, "type").String())
	assert.Equal(t, "start", gjson.GetBytes(data, "delim").String())

	var out Delim
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var bad Delim
	assert.Error(t, bad.UnmarshalJSON([]byte(`{"type":"chunk"}`)))
	assert.Error(t, bad.UnmarshalJSON([]byte(`{"type":"delim"}`)))
	assert.Error(t, bad.UnmarshalJSON([]byte(`not json`)))
}

func TestChunkJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	ts := strfmt.DateTime(time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC))

	in := Chunk[messages.AssistantMessage]{
		RunID:     runID,
		TurnID:    turnID,
		Chunk:     messages.AssistantMessage{Content: messages.AssistantContentOrParts{Content: "partial"}},
		Timestamp: ts,
		Meta:      gjson.Parse(`{"model":"gpt-4o-mini"}`),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "chunk", gjson.GetBytes(data, "type").String())
	assert.Equal(t, "assistant", gjson.GetBytes(data, "chunk.type").String())
	assert.Equal(t, "partial", gjson.GetBytes(data, "chunk.content").String())
	assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(data, "meta.model").String())

	var out Chunk[messages.AssistantMessage]
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.RunID, out.RunID)
	assert.Equal(t, in.TurnID, out.TurnID)
	assert.Equal(t, in.Chunk.Content.Content, out.Chunk.Content.Content)
}

func TestResponseJSON(t *testing.T) {
	agg := shorttermmemory.New()
	agg.AddUserPrompt(messages.New().UserPrompt("hi"))

	in := Response[messages.AssistantMessage]{
		RunID:      uuid.New(),
		TurnID:     uuid.New(),
		Checkpoint: agg.Checkpoint(),
		Response:   messages.AssistantMessage{Content: messages.AssistantContentOrParts{Content: "hello"}},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "response", gjson.GetBytes(data, "type").String())
	assert.True(t, gjson.GetBytes(data, "checkpoint").IsObject())
	assert.Equal(t, "hello", gjson.GetBytes(data, "response.content").String())

	var out Response[messages.AssistantMessage]
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.RunID, out.RunID)
	assert.Equal(t, in.Response.Content.Content, out.Response.Content.Content)
	assert.Equal(t, in.Checkpoint.ID(), out.Checkpoint.ID())

	var bad Response[messages.AssistantMessage]
	assert.Error(t, bad.UnmarshalJSON([]byte(`{"type":"response","run_id":"`+in.RunID.String()+`","turn_id":"`+in.TurnID.String()+`"}`)))
}

func TestErrorJSON(t *testing.T) {
	in := Error{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		Err:    errors.New("rate limited"),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "error", gjson.GetBytes(data, "type").String())
	assert.Equal(t, "rate limited", gjson.GetBytes(data, "error").String())

	var out Error
	require.NoError(t, json.Unmarshal(data, &out))
	assert.EqualError(t, out.Err, "rate limited")

	assert.Contains(t, in.Error(), "rate limited")
	assert.Contains(t, in.Error(), in.RunID.String())
}

func TestChunkToMessage(t *testing.T) {
	src := Chunk[messages.ToolCallMessage]{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		Chunk: messages.ToolCallMessage{ToolCalls: []messages.ToolCallData{
			{ID: "call_1", Name: "calculate", Arguments: `{"param0":"1+1"}`},
		}},
	}

	var dst messages.Message[messages.ToolCallMessage]
	ChunkToMessage(&dst, src)

	assert.Equal(t, src.RunID, dst.RunID)
	assert.Equal(t, src.TurnID, dst.TurnID)
	require.Len(t, dst.Payload.ToolCalls, 1)
	assert.Equal(t, "calculate", dst.Payload.ToolCalls[0].Name)
}

func TestResponseToMessage(t *testing.T) {
	src := Response[messages.AssistantMessage]{
		RunID:    uuid.New(),
		TurnID:   uuid.New(),
		Response: messages.AssistantMessage{Content: messages.AssistantContentOrParts{Content: "done"}},
	}

	var dst messages.Message[messages.AssistantMessage]
	ResponseToMessage(&dst, src)

	assert.Equal(t, src.RunID, dst.RunID)
	assert.Equal(t, "done", dst.Payload.Content.Content)
}
