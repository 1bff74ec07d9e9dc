package events

import (
	"errors"
	"fmt"

	"github.com/agora-dev/symposium/messages"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	delimJSON    = []byte(`{"type":"delim"}`)
	chunkJSON    = []byte(`{"type":"chunk"}`)
	requestJSON  = []byte(`{"type":"request"}`)
	responseJSON = []byte(`{"type":"response"}`)
	resultJSON   = []byte(`{"type":"result"}`)
	errorJSON    = []byte(`{"type":"error"}`)
)

// Event is the base interface for everything that travels over a topic.
type Event interface {
	event()
}

// Delim marks a stream boundary, the start and end of a streamed response.
type Delim struct {
	RunID  uuid.UUID `json:"run_id"`
	TurnID uuid.UUID `json:"turn_id"`
	Delim  string    `json:"delim"`
}

func (Delim) event() {}

// Chunk is an incremental fragment of a streamed model response.
type Chunk[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Chunk     T               `json:"chunk"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Chunk[T]) event() {}

// Request is a message travelling towards the model, a user prompt or a tool
// response that feeds the next turn.
type Request[T messages.Request] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Message   T               `json:"message"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Request[T]) event() {}

// Response is a complete model response for a turn.
type Response[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Response  T               `json:"response"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Response[T]) event() {}

// Result carries the final outcome of a run.
type Result[T any] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Result    T               `json:"result"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Result[T]) event() {}

// AnyResult returns the result value with its type erased. Subscribers that
// cannot know the concrete type parameter use this to forward results.
func (r Result[T]) AnyResult() any {
	return r.Result
}

// Error is an error that occurred during a run, with the context preserved.
type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"error"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Error) event() {}

func (e Error) Error() string {
	return fmt.Sprintf("run_id: %s, turn_id: %s, timestamp: %s, error: %v", e.RunID, e.TurnID, e.Timestamp, e.Err)
}

// ToJSON serializes an event for transport.
func ToJSON(event Event) ([]byte, error) {
	if event == nil {
		return nil, errors.New("event is nil")
	}
	return json.Marshal(event)
}

// FromJSON deserializes an event, dispatching on the type markers in the
// payload. Chunks, requests and responses carry a nested message whose own
// type marker selects the concrete payload.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() {
		return nil, errors.New("missing required field 'type'")
	}

	switch msgType.String() {
	case "delim":
		var d Delim
		if err := d.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return d, nil
	case "chunk":
		switch gjson.GetBytes(data, "chunk.type").String() {
		case "assistant":
			var c Chunk[messages.AssistantMessage]
			if err := c.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return c, nil
		case "tool_call":
			var c Chunk[messages.ToolCallMessage]
			if err := c.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return c, nil
		default:
			return nil, fmt.Errorf("unknown chunk payload type: %s", gjson.GetBytes(data, "chunk.type").String())
		}
	case "request":
		switch gjson.GetBytes(data, "message.type").String() {
		case "user":
			var r Request[messages.UserMessage]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		case "tool_response":
			var r Request[messages.ToolResponse]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		default:
			return nil, fmt.Errorf("unknown request payload type: %s", gjson.GetBytes(data, "message.type").String())
		}
	case "response":
		switch gjson.GetBytes(data, "response.type").String() {
		case "assistant":
			var r Response[messages.AssistantMessage]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		case "tool_call":
			var r Response[messages.ToolCallMessage]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		default:
			return nil, fmt.Errorf("unknown response payload type: %s", gjson.GetBytes(data, "response.type").String())
		}
	case "result":
		var r Result[any]
		if err := r.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return r, nil
	case "error":
		var e Error
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", msgType.String())
	}
}

// MarshalJSON implements custom JSON marshaling for Delim
func (d Delim) MarshalJSON() ([]byte, error) {
	result := delimJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", d.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", d.TurnID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "delim", d.Delim)
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Delim
func (d *Delim) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "delim" {
		return fmt.Errorf("missing or invalid type, expected 'delim'")
	}

	runID := gjson.GetBytes(data, "run_id")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := d.RunID.UnmarshalText([]byte(runID.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	turnID := gjson.GetBytes(data, "turn_id")
	if !turnID.Exists() {
		return fmt.Errorf("missing required field 'turn_id'")
	}
	if err := d.TurnID.UnmarshalText([]byte(turnID.String())); err != nil {
		return fmt.Errorf("invalid turn_id: %w", err)
	}

	delim := gjson.GetBytes(data, "delim")
	if !delim.Exists() {
		return fmt.Errorf("missing required field 'delim'")
	}
	d.Delim = delim.String()

	return nil
}

// MarshalJSON implements custom JSON marshaling for Chunk[T]
func (c Chunk[T]) MarshalJSON() ([]byte, error) {
	return marshalEnvelope(chunkJSON, "chunk", c.Chunk, c.RunID, c.TurnID, c.Sender, c.Timestamp, c.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Chunk[T]
func (c *Chunk[T]) UnmarshalJSON(data []byte) error {
	return unmarshalEnvelope(data, "chunk", &c.Chunk, &c.RunID, &c.TurnID, &c.Sender, &c.Timestamp, &c.Meta)
}

// MarshalJSON implements custom JSON marshaling for Request[T]
func (r Request[T]) MarshalJSON() ([]byte, error) {
	return marshalEnvelope(requestJSON, "message", r.Message, r.RunID, r.TurnID, r.Sender, r.Timestamp, r.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Request[T]
func (r *Request[T]) UnmarshalJSON(data []byte) error {
	return unmarshalEnvelope(data, "message", &r.Message, &r.RunID, &r.TurnID, &r.Sender, &r.Timestamp, &r.Meta)
}

// MarshalJSON implements custom JSON marshaling for Response[T]
func (r Response[T]) MarshalJSON() ([]byte, error) {
	return marshalEnvelope(responseJSON, "response", r.Response, r.RunID, r.TurnID, r.Sender, r.Timestamp, r.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Response[T]
func (r *Response[T]) UnmarshalJSON(data []byte) error {
	return unmarshalEnvelope(data, "response", &r.Response, &r.RunID, &r.TurnID, &r.Sender, &r.Timestamp, &r.Meta)
}

// MarshalJSON implements custom JSON marshaling for Result[T]
func (r Result[T]) MarshalJSON() ([]byte, error) {
	return marshalEnvelope(resultJSON, "result", r.Result, r.RunID, r.TurnID, r.Sender, r.Timestamp, r.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Result[T]
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	return unmarshalEnvelope(data, "result", &r.Result, &r.RunID, &r.TurnID, &r.Sender, &r.Timestamp, &r.Meta)
}

// MarshalJSON implements custom JSON marshaling for Error
func (e Error) MarshalJSON() ([]byte, error) {
	result := errorJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", e.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", e.TurnID.String())
	if err != nil {
		return nil, err
	}

	if e.Err != nil {
		result, err = sjson.SetBytes(result, "error", e.Err.Error())
		if err != nil {
			return nil, err
		}
	}

	if e.Sender != "" {
		result, err = sjson.SetBytes(result, "sender", e.Sender)
		if err != nil {
			return nil, err
		}
	}

	if !e.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	if e.Meta.Exists() {
		result, err = sjson.SetRawBytes(result, "meta", []byte(e.Meta.Raw))
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Error
func (e *Error) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "error" {
		return fmt.Errorf("missing or invalid type, expected 'error'")
	}

	runID := gjson.GetBytes(data, "run_id")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := e.RunID.UnmarshalText([]byte(runID.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	turnID := gjson.GetBytes(data, "turn_id")
	if !turnID.Exists() {
		return fmt.Errorf("missing required field 'turn_id'")
	}
	if err := e.TurnID.UnmarshalText([]byte(turnID.String())); err != nil {
		return fmt.Errorf("invalid turn_id: %w", err)
	}

	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())

	if sender := gjson.GetBytes(data, "sender"); sender.Exists() {
		e.Sender = sender.String()
	}

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := e.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	if meta := gjson.GetBytes(data, "meta"); meta.Exists() {
		e.Meta = meta
	}

	return nil
}

func marshalEnvelope(seed []byte, field string, payload any, runID, turnID uuid.UUID, sender string, timestamp strfmt.DateTime, meta gjson.Result) ([]byte, error) {
	result := seed

	var err error
	result, err = sjson.SetBytes(result, "run_id", runID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", turnID.String())
	if err != nil {
		return nil, err
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
	}
	result, err = sjson.SetRawBytes(result, field, payloadBytes)
	if err != nil {
		return nil, err
	}

	if sender != "" {
		result, err = sjson.SetBytes(result, "sender", sender)
		if err != nil {
			return nil, err
		}
	}

	if !timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	if meta.Exists() {
		result, err = sjson.SetRawBytes(result, "meta", []byte(meta.Raw))
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func unmarshalEnvelope(data []byte, field string, payload any, runID, turnID *uuid.UUID, sender *string, timestamp *strfmt.DateTime, meta *gjson.Result) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	expectedType := map[string]string{
		"chunk":    "chunk",
		"message":  "request",
		"response": "response",
		"result":   "result",
	}[field]

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != expectedType {
		return fmt.Errorf("missing or invalid type, expected '%s'", expectedType)
	}

	runIDField := gjson.GetBytes(data, "run_id")
	if !runIDField.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := runID.UnmarshalText([]byte(runIDField.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	turnIDField := gjson.GetBytes(data, "turn_id")
	if !turnIDField.Exists() {
		return fmt.Errorf("missing required field 'turn_id'")
	}
	if err := turnID.UnmarshalText([]byte(turnIDField.String())); err != nil {
		return fmt.Errorf("invalid turn_id: %w", err)
	}

	payloadField := gjson.GetBytes(data, field)
	if !payloadField.Exists() {
		return fmt.Errorf("missing required field '%s'", field)
	}
	if field != "result" && !payloadField.IsObject() {
		return fmt.Errorf("invalid %s: expected an object", field)
	}
	if err := json.Unmarshal([]byte(payloadField.Raw), payload); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}

	if senderField := gjson.GetBytes(data, "sender"); senderField.Exists() {
		*sender = senderField.String()
	}

	if timestampField := gjson.GetBytes(data, "timestamp"); timestampField.Exists() {
		if err := timestamp.UnmarshalText([]byte(timestampField.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	if metaField := gjson.GetBytes(data, "meta"); metaField.Exists() {
		*meta = metaField
	}

	return nil
}
