package messages

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	instructionsJSON = []byte(`{"type":"instructions"}`)
	userJSON         = []byte(`{"type":"user"}`)
	assistantJSON    = []byte(`{"type":"assistant"}`)
	toolCallJSON     = []byte(`{"type":"tool_call"}`)
	toolResponseJSON = []byte(`{"type":"tool_response"}`)
	retryJSON        = []byte(`{"type":"retry"}`)
)

// MarshalJSON flattens the payload and the envelope into a single object,
// discriminated by the payload's type field.
func (m Message[T]) MarshalJSON() ([]byte, error) {
	result, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, err
	}

	if m.RunID != uuid.Nil {
		result, err = sjson.SetBytes(result, "run_id", m.RunID.String())
		if err != nil {
			return nil, err
		}
	}
	if m.TurnID != uuid.Nil {
		result, err = sjson.SetBytes(result, "turn_id", m.TurnID.String())
		if err != nil {
			return nil, err
		}
	}
	if m.Sender != "" {
		result, err = sjson.SetBytes(result, "sender", m.Sender)
		if err != nil {
			return nil, err
		}
	}
	if !m.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", m.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}
	if m.Meta.Exists() {
		result, err = sjson.SetRawBytes(result, "meta", []byte(m.Meta.Raw))
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON decodes a flattened message. The payload is selected by the
// type field, so this works for concrete payloads as well as for
// Message[ModelMessage].
func (m *Message[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid character in message json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() {
		return errors.New("missing required field 'type'")
	}

	var decoded ModelMessage
	switch msgType.String() {
	case "instructions":
		var p InstructionsMessage
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		decoded = p
	case "user":
		var p UserMessage
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		decoded = p
	case "assistant":
		var p AssistantMessage
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		decoded = p
	case "tool_call":
		var p ToolCallMessage
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		decoded = p
	case "tool_response":
		var p ToolResponse
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		decoded = p
	case "retry":
		var p Retry
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		decoded = p
	default:
		return fmt.Errorf("unknown message type: %s", msgType.String())
	}

	payload, ok := decoded.(T)
	if !ok {
		return fmt.Errorf("payload type %T does not satisfy the message type", decoded)
	}
	m.Payload = payload

	if runID := gjson.GetBytes(data, "run_id"); runID.Exists() {
		if err := m.RunID.UnmarshalText([]byte(runID.String())); err != nil {
			return fmt.Errorf("invalid run_id: %w", err)
		}
	}
	if turnID := gjson.GetBytes(data, "turn_id"); turnID.Exists() {
		if err := m.TurnID.UnmarshalText([]byte(turnID.String())); err != nil {
			return fmt.Errorf("invalid turn_id: %w", err)
		}
	}
	if sender := gjson.GetBytes(data, "sender"); sender.Exists() {
		m.Sender = sender.String()
	}
	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := m.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}
	if meta := gjson.GetBytes(data, "meta"); meta.Exists() {
		m.Meta = meta
	}

	return nil
}

func (i InstructionsMessage) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(instructionsJSON, "content", i.Content)
}

func (i *InstructionsMessage) UnmarshalJSON(data []byte) error {
	content := gjson.GetBytes(data, "content")
	if !content.Exists() {
		return errors.New("missing required field 'content'")
	}
	i.Content = content.String()
	return nil
}

func (u UserMessage) MarshalJSON() ([]byte, error) {
	content, err := json.Marshal(u.Content)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(userJSON, "content", content)
}

func (u *UserMessage) UnmarshalJSON(data []byte) error {
	content := gjson.GetBytes(data, "content")
	if !content.Exists() {
		return errors.New("missing required field 'content'")
	}
	return u.Content.UnmarshalJSON([]byte(content.Raw))
}

func (a AssistantMessage) MarshalJSON() ([]byte, error) {
	result := assistantJSON

	if a.Content.Content != "" || a.Content.Parts != nil || a.Content.Refusal != "" {
		content, err := json.Marshal(a.Content)
		if err != nil {
			return nil, err
		}
		result, err = sjson.SetRawBytes(result, "content", content)
		if err != nil {
			return nil, err
		}
	}

	if a.Refusal != "" {
		return sjson.SetBytes(result, "refusal", a.Refusal)
	}
	return result, nil
}

func (a *AssistantMessage) UnmarshalJSON(data []byte) error {
	content := gjson.GetBytes(data, "content")
	refusal := gjson.GetBytes(data, "refusal")
	if content.Exists() && refusal.Exists() {
		return errors.New("both 'content' and 'refusal' cannot be present")
	}

	if content.Exists() {
		if err := a.Content.UnmarshalJSON([]byte(content.Raw)); err != nil {
			return err
		}
	}
	if refusal.Exists() {
		a.Refusal = refusal.String()
	}
	return nil
}

func (t ToolCallMessage) MarshalJSON() ([]byte, error) {
	calls, err := json.Marshal(t.ToolCalls)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(toolCallJSON, "tool_calls", calls)
}

func (t *ToolCallMessage) UnmarshalJSON(data []byte) error {
	calls := gjson.GetBytes(data, "tool_calls")
	if !calls.Exists() {
		return errors.New("missing required field 'tool_calls'")
	}
	if !calls.IsArray() {
		return errors.New("'tool_calls' must be an array")
	}
	return json.Unmarshal([]byte(calls.Raw), &t.ToolCalls)
}

func (t ToolResponse) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(toolResponseJSON, "tool_name", t.ToolName)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "tool_call_id", t.ToolCallID)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "content", t.Content)
}

func (t *ToolResponse) UnmarshalJSON(data []byte) error {
	toolName := gjson.GetBytes(data, "tool_name")
	if !toolName.Exists() {
		return errors.New("missing required field 'tool_name'")
	}
	callID := gjson.GetBytes(data, "tool_call_id")
	if !callID.Exists() {
		return errors.New("missing required field 'tool_call_id'")
	}
	content := gjson.GetBytes(data, "content")
	if !content.Exists() {
		return errors.New("missing required field 'content'")
	}
	t.ToolName = toolName.String()
	t.ToolCallID = callID.String()
	t.Content = content.String()
	return nil
}

func (r Retry) MarshalJSON() ([]byte, error) {
	result := retryJSON

	var err error
	if r.Error != nil {
		result, err = sjson.SetBytes(result, "error", r.Error.Error())
		if err != nil {
			return nil, err
		}
	}
	if r.ToolName != "" {
		result, err = sjson.SetBytes(result, "tool_name", r.ToolName)
		if err != nil {
			return nil, err
		}
	}
	if r.ToolCallID != "" {
		result, err = sjson.SetBytes(result, "tool_call_id", r.ToolCallID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *Retry) UnmarshalJSON(data []byte) error {
	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	r.Error = errors.New(errMsg.String())
	r.ToolName = gjson.GetBytes(data, "tool_name").String()
	r.ToolCallID = gjson.GetBytes(data, "tool_call_id").String()
	return nil
}
