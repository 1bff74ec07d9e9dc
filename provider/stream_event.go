package provider

import (
	"errors"
	"fmt"

	"github.com/agora-dev/symposium/internal/shorttermmemory"
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
	responseJSON = []byte(`{"type":"response"}`)
	errorJSON    = []byte(`{"type":"error"}`)
)

// StreamEvent is the sum type for everything a provider emits while
// processing a completion request.
type StreamEvent interface {
	streamEvent()
}

// Delim marks a boundary in a streamed response.
type Delim struct {
	RunID  uuid.UUID `json:"run_id"`
	TurnID uuid.UUID `json:"turn_id"`
	Delim  string    `json:"delim"`
}

func (Delim) streamEvent() {}

// Chunk is an incremental fragment of a streamed completion.
type Chunk[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Chunk     T               `json:"chunk"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Chunk[T]) streamEvent() {}

// ChunkToMessage copies the identifiers and payload of a chunk into a message.
func ChunkToMessage[T messages.Response, M messages.ModelMessage](dst *messages.Message[M], src Chunk[T]) {
	dst.RunID = src.RunID
	dst.TurnID = src.TurnID
	dst.Timestamp = src.Timestamp
	dst.Meta = src.Meta
	if payload, ok := any(src.Chunk).(M); ok {
		dst.Payload = payload
	} else {
		// This should never occur, if it does definitely raise an issue.
		panic(fmt.Sprintf("invalid chunk type: %T", src.Chunk))
	}
}

// Response is a complete completion for a turn, together with a checkpoint of
// the conversation state the provider worked from.
type Response[T messages.Response] struct {
	RunID      uuid.UUID                  `json:"run_id"`
	TurnID     uuid.UUID                  `json:"turn_id"`
	Checkpoint shorttermmemory.Checkpoint `json:"checkpoint"`
	Response   T                          `json:"response"`
	Timestamp  strfmt.DateTime            `json:"timestamp,omitempty"`
	Meta       gjson.Result               `json:"meta,omitempty"`
}

func (Response[T]) streamEvent() {}

// ResponseToMessage copies the identifiers and payload of a response into a
// message.
func ResponseToMessage[T messages.Response, M messages.ModelMessage](dst *messages.Message[M], src Response[T]) {
	dst.RunID = src.RunID
	dst.TurnID = src.TurnID
	dst.Timestamp = src.Timestamp
	dst.Meta = src.Meta
	if payload, ok := any(src.Response).(M); ok {
		dst.Payload = payload
	} else {
		// This should never occur, if it does definitely raise an issue.
		panic(fmt.Sprintf("invalid response type: %T", src.Response))
	}
}

// Error is a provider failure with the run context preserved.
type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Error) streamEvent() {}

func (e Error) Error() string {
	return fmt.Sprintf("run_id: %s, turn_id: %s, timestamp: %s, error: %v", e.RunID, e.TurnID, e.Timestamp, e.Err)
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

	if err := readIDs(data, &d.RunID, &d.TurnID); err != nil {
		return err
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
	result := chunkJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", c.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", c.TurnID.String())
	if err != nil {
		return nil, err
	}

	chunkBytes, err := json.Marshal(c.Chunk)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chunk: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "chunk", chunkBytes)
	if err != nil {
		return nil, err
	}

	return appendTrailer(result, c.Timestamp, c.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Chunk[T]
func (c *Chunk[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "chunk" {
		return fmt.Errorf("missing or invalid type, expected 'chunk'")
	}

	if err := readIDs(data, &c.RunID, &c.TurnID); err != nil {
		return err
	}

	chunk := gjson.GetBytes(data, "chunk")
	if !chunk.Exists() {
		return fmt.Errorf("missing required field 'chunk'")
	}
	if err := json.Unmarshal([]byte(chunk.Raw), &c.Chunk); err != nil {
		return fmt.Errorf("invalid chunk: %w", err)
	}

	return readTrailer(data, &c.Timestamp, &c.Meta)
}

// MarshalJSON implements custom JSON marshaling for Response[T]
func (r Response[T]) MarshalJSON() ([]byte, error) {
	result := responseJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", r.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", r.TurnID.String())
	if err != nil {
		return nil, err
	}

	cpj, err := json.Marshal(r.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "checkpoint", cpj)
	if err != nil {
		return nil, err
	}

	responseBytes, err := json.Marshal(r.Response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "response", responseBytes)
	if err != nil {
		return nil, err
	}

	return appendTrailer(result, r.Timestamp, r.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Response[T]
func (r *Response[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "response" {
		return fmt.Errorf("missing or invalid type, expected 'response'")
	}

	if err := readIDs(data, &r.RunID, &r.TurnID); err != nil {
		return err
	}

	checkpoint := gjson.GetBytes(data, "checkpoint")
	if !checkpoint.Exists() {
		return fmt.Errorf("missing required field 'checkpoint'")
	}
	if err := json.Unmarshal([]byte(checkpoint.Raw), &r.Checkpoint); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}

	response := gjson.GetBytes(data, "response")
	if !response.Exists() {
		return fmt.Errorf("missing required field 'response'")
	}
	if err := json.Unmarshal([]byte(response.Raw), &r.Response); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}

	return readTrailer(data, &r.Timestamp, &r.Meta)
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

	return appendTrailer(result, e.Timestamp, e.Meta)
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

	if err := readIDs(data, &e.RunID, &e.TurnID); err != nil {
		return err
	}

	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())

	return readTrailer(data, &e.Timestamp, &e.Meta)
}

func readIDs(data []byte, runID, turnID *uuid.UUID) error {
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

	return nil
}

func appendTrailer(result []byte, timestamp strfmt.DateTime, meta gjson.Result) ([]byte, error) {
	var err error
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

func readTrailer(data []byte, timestamp *strfmt.DateTime, meta *gjson.Result) error {
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
