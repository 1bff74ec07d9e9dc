package events

import (
	"errors"
	"testing"
	"time"

	"github.com/agora-dev/symposium/messages"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDelimJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	delim := Delim{
		RunID:  runID,
		TurnID: turnID,
		Delim:  "start",
	}

	t.Run("marshal", func(t *testing.T) {
		data, err := delim.MarshalJSON()
		require.NoError(t, err)

		result := gjson.ParseBytes(data)
		assert.Equal(t, "delim", result.Get("type").String())
		assert.Equal(t, runID.String(), result.Get("run_id").String())
		assert.Equal(t, turnID.String(), result.Get("turn_id").String())
		assert.Equal(t, "start", result.Get("delim").String())
	})

	t.Run("unmarshal", func(t *testing.T) {
		input := []byte(`{
			"type": "delim",
			"run_id": "` + runID.String() + `",
			"turn_id": "` + turnID.String() + `",
			"delim": "start"
		}`)

		var d Delim
		err := d.UnmarshalJSON(input)
		require.NoError(t, err)
		assert.Equal(t, delim, d)
	})

	t.Run("unmarshal errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{name: "invalid json", input: "invalid"},
			{name: "missing type", input: `{"run_id": "` + runID.String() + `"}`},
			{name: "wrong type", input: `{"type": "wrong"}`},
			{name: "missing run_id", input: `{"type": "delim"}`},
			{name: "invalid run_id", input: `{"type": "delim", "run_id": "invalid"}`},
			{name: "missing turn_id", input: `{"type": "delim", "run_id": "` + runID.String() + `"}`},
			{name: "missing delim", input: `{"type": "delim", "run_id": "` + runID.String() + `", "turn_id": "` + turnID.String() + `"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var d Delim
				assert.Error(t, d.UnmarshalJSON([]byte(tt.input)))
			})
		}
	})
}

func TestChunkJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))
	meta := gjson.Parse(`{"key":"value"}`)

	chunk := Chunk[messages.AssistantMessage]{
		RunID:     runID,
		TurnID:    turnID,
		Chunk:     messages.New().AssistantMessage("hello").Payload,
		Sender:    "assistant",
		Timestamp: timestamp,
		Meta:      meta,
	}

	t.Run("marshal", func(t *testing.T) {
		data, err := chunk.MarshalJSON()
		require.NoError(t, err)

		result := gjson.ParseBytes(data)
		assert.Equal(t, "chunk", result.Get("type").String())
		assert.Equal(t, runID.String(), result.Get("run_id").String())
		assert.Equal(t, "assistant", result.Get("chunk.type").String())
		assert.Equal(t, "hello", result.Get("chunk.content").String())
		assert.Equal(t, "assistant", result.Get("sender").String())
		assert.Equal(t, timestamp.String(), result.Get("timestamp").String())
		assert.Equal(t, "value", result.Get("meta.key").String())
	})

	t.Run("unmarshal", func(t *testing.T) {
		input := []byte(`{
			"type": "chunk",
			"run_id": "` + runID.String() + `",
			"turn_id": "` + turnID.String() + `",
			"chunk": {"type": "assistant", "content": "hello"},
			"sender": "assistant",
			"timestamp": "` + timestamp.String() + `",
			"meta": {"key":"value"}
		}`)

		var c Chunk[messages.AssistantMessage]
		err := c.UnmarshalJSON(input)
		require.NoError(t, err)
		assert.Equal(t, chunk.RunID, c.RunID)
		assert.Equal(t, chunk.TurnID, c.TurnID)
		assert.Equal(t, "hello", c.Chunk.Content.Content)
		assert.Equal(t, chunk.Sender, c.Sender)
		assert.Equal(t, chunk.Timestamp, c.Timestamp)
	})

	t.Run("unmarshal errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{name: "invalid json", input: "invalid"},
			{name: "wrong type", input: `{"type": "wrong"}`},
			{name: "missing chunk", input: `{"type": "chunk", "run_id": "` + runID.String() + `", "turn_id": "` + turnID.String() + `"}`},
			{name: "invalid chunk", input: `{"type": "chunk", "run_id": "` + runID.String() + `", "turn_id": "` + turnID.String() + `", "chunk": "invalid"}`},
			{name: "invalid timestamp", input: `{"type": "chunk", "run_id": "` + runID.String() + `", "turn_id": "` + turnID.String() + `", "chunk": {}, "timestamp": "invalid"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var c Chunk[messages.AssistantMessage]
				assert.Error(t, c.UnmarshalJSON([]byte(tt.input)))
			})
		}
	})
}

func TestRequestJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))

	request := Request[messages.UserMessage]{
		RunID:     runID,
		TurnID:    turnID,
		Message:   messages.New().UserPrompt("what is 2+2?").Payload,
		Sender:    "user",
		Timestamp: timestamp,
	}

	data, err := request.MarshalJSON()
	require.NoError(t, err)

	result := gjson.ParseBytes(data)
	assert.Equal(t, "request", result.Get("type").String())
	assert.Equal(t, "user", result.Get("message.type").String())
	assert.Equal(t, "what is 2+2?", result.Get("message.content").String())

	var r Request[messages.UserMessage]
	require.NoError(t, r.UnmarshalJSON(data))
	assert.Equal(t, request.RunID, r.RunID)
	assert.Equal(t, "what is 2+2?", r.Message.Content.Content)
}

func TestErrorJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))
	testErr := errors.New("boom")

	errEvent := Error{
		RunID:     runID,
		TurnID:    turnID,
		Err:       testErr,
		Sender:    "assistant",
		Timestamp: timestamp,
	}

	t.Run("marshal", func(t *testing.T) {
		data, err := errEvent.MarshalJSON()
		require.NoError(t, err)

		result := gjson.ParseBytes(data)
		assert.Equal(t, "error", result.Get("type").String())
		assert.Equal(t, "boom", result.Get("error").String())
		assert.Equal(t, "assistant", result.Get("sender").String())
	})

	t.Run("unmarshal", func(t *testing.T) {
		data, err := errEvent.MarshalJSON()
		require.NoError(t, err)

		var e Error
		require.NoError(t, e.UnmarshalJSON(data))
		assert.Equal(t, errEvent.RunID, e.RunID)
		assert.Equal(t, errEvent.Err.Error(), e.Err.Error())
	})

	t.Run("Error() method", func(t *testing.T) {
		errStr := errEvent.Error()
		assert.Contains(t, errStr, testErr.Error())
		assert.Contains(t, errStr, runID.String())
		assert.Contains(t, errStr, turnID.String())

		errEvent.Err = nil
		assert.Contains(t, errEvent.Error(), "<nil>")
	})
}

func TestEventSerialization(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))

	t.Run("round trip", func(t *testing.T) {
		tests := []struct {
			name  string
			event Event
		}{
			{
				name:  "Delim",
				event: Delim{RunID: runID, TurnID: turnID, Delim: "start"},
			},
			{
				name: "Chunk AssistantMessage",
				event: Chunk[messages.AssistantMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Chunk:     messages.New().AssistantMessage("hi").Payload,
					Sender:    "assistant",
					Timestamp: timestamp,
				},
			},
			{
				name: "Chunk ToolCallMessage",
				event: Chunk[messages.ToolCallMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Chunk:     messages.New().ToolCall([]messages.ToolCallData{{Name: "calc", Arguments: "{}"}}).Payload,
					Sender:    "assistant",
					Timestamp: timestamp,
				},
			},
			{
				name: "Request UserMessage",
				event: Request[messages.UserMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Message:   messages.New().UserPrompt("hi").Payload,
					Sender:    "user",
					Timestamp: timestamp,
				},
			},
			{
				name: "Request ToolResponse",
				event: Request[messages.ToolResponse]{
					RunID:     runID,
					TurnID:    turnID,
					Message:   messages.New().ToolResponse("call1", "calc", "4").Payload,
					Sender:    "calc",
					Timestamp: timestamp,
				},
			},
			{
				name: "Response AssistantMessage",
				event: Response[messages.AssistantMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Response:  messages.New().AssistantMessage("done").Payload,
					Sender:    "assistant",
					Timestamp: timestamp,
				},
			},
			{
				name: "Response ToolCallMessage",
				event: Response[messages.ToolCallMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Response:  messages.New().ToolCall([]messages.ToolCallData{{Name: "calc", Arguments: "{}"}}).Payload,
					Sender:    "assistant",
					Timestamp: timestamp,
				},
			},
			{
				name: "Error",
				event: Error{
					RunID:     runID,
					TurnID:    turnID,
					Err:       errors.New("boom"),
					Sender:    "assistant",
					Timestamp: timestamp,
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				data, err := ToJSON(tt.event)
				require.NoError(t, err)
				assert.NotNil(t, data)

				event, err := FromJSON(data)
				require.NoError(t, err)
				assert.IsType(t, tt.event, event)
			})
		}
	})

	t.Run("FromJSON errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{name: "invalid json", input: "invalid"},
			{name: "missing type", input: `{"run_id": "` + runID.String() + `"}`},
			{name: "unknown type", input: `{"type": "unknown"}`},
			{name: "invalid chunk type", input: `{"type": "chunk", "chunk": {"type": "unknown"}}`},
			{name: "invalid request type", input: `{"type": "request", "message": {"type": "unknown"}}`},
			{name: "invalid response type", input: `{"type": "response", "response": {"type": "unknown"}}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := FromJSON([]byte(tt.input))
				assert.Error(t, err)
			})
		}
	})
}
