package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ModelMessage is the constraint for every payload that can travel through a
// conversation thread. Concrete payloads are InstructionsMessage, UserMessage,
// AssistantMessage, ToolCallMessage, ToolResponse and Retry.
type ModelMessage interface {
	message()
}

// Request marks payloads that flow towards the model.
type Request interface {
	ModelMessage
	request()
}

// Response marks payloads produced by the model.
type Response interface {
	ModelMessage
	response()
}

// Message wraps a payload with the identifiers and metadata that every entry
// in a run carries: the run id, the turn id, the sender and a timestamp.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Payload   T               `json:"-"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

// InstructionsMessage carries the rendered system instructions for a turn.
type InstructionsMessage struct {
	Content string `json:"content"`
	_       struct{}
}

func (InstructionsMessage) message() {}

// UserMessage is a prompt from the user or from an upstream workflow step.
type UserMessage struct {
	Content ContentOrParts `json:"content"`
	_       struct{}
}

func (UserMessage) message() {}
func (UserMessage) request() {}

// AssistantMessage is a completion produced by the model.
type AssistantMessage struct {
	Content AssistantContentOrParts `json:"content"`
	Refusal string                  `json:"refusal,omitempty"`
	_       struct{}
}

func (AssistantMessage) message()  {}
func (AssistantMessage) response() {}

// ToolCallData describes a single tool invocation requested by the model.
type ToolCallData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// CallTool builds the data for a single tool invocation.
func CallTool(id, name string, args gjson.Result) ToolCallData {
	return ToolCallData{ID: id, Name: name, Arguments: args.Raw}
}

// ToolCallMessage is a batch of tool invocations requested in one completion.
type ToolCallMessage struct {
	ToolCalls []ToolCallData `json:"tool_calls"`
	_         struct{}
}

func (ToolCallMessage) message()  {}
func (ToolCallMessage) response() {}

// ToolResponse is the result of executing a single tool call, fed back into
// the conversation for the model's next turn.
type ToolResponse struct {
	ToolName   string `json:"tool_name"`
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	_          struct{}
}

func (ToolResponse) message() {}
func (ToolResponse) request() {}

// Retry reports a failed tool call back to the model so it can try again.
type Retry struct {
	Error      error  `json:"error"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	_          struct{}
}

func (Retry) message() {}
func (Retry) request() {}

type messageBuilder struct {
	sender    string
	timestamp strfmt.DateTime
	metadata  gjson.Result
}

// New returns a message builder stamped with the current time.
func New() messageBuilder { //nolint: revive
	return messageBuilder{timestamp: strfmt.DateTime(time.Now())}
}

// WithSender returns a builder whose messages carry the given sender.
func (m messageBuilder) WithSender(sender string) messageBuilder {
	m.sender = sender
	return m
}

// WithTimestamp returns a builder whose messages carry the given timestamp.
func (m messageBuilder) WithTimestamp(timestamp strfmt.DateTime) messageBuilder {
	m.timestamp = timestamp
	return m
}

// WithMetadata returns a builder whose messages carry the given metadata.
func (m messageBuilder) WithMetadata(meta gjson.Result) messageBuilder {
	m.metadata = meta
	return m
}

// Instructions builds a system instructions message.
func (m messageBuilder) Instructions(content string) Message[InstructionsMessage] {
	return envelope(m, InstructionsMessage{Content: content})
}

// UserPrompt builds a user message from plain text.
func (m messageBuilder) UserPrompt(content string) Message[UserMessage] {
	return envelope(m, UserMessage{Content: ContentOrParts{Content: content}})
}

// UserPromptMultipart builds a user message from content parts.
func (m messageBuilder) UserPromptMultipart(parts ...ContentPart) Message[UserMessage] {
	return envelope(m, UserMessage{Content: ContentOrParts{Parts: parts}})
}

// AssistantMessage builds an assistant message from plain text.
func (m messageBuilder) AssistantMessage(content string) Message[AssistantMessage] {
	return envelope(m, AssistantMessage{Content: AssistantContentOrParts{Content: content}})
}

// AssistantRefusal builds an assistant message carrying only a refusal.
func (m messageBuilder) AssistantRefusal(refusal string) Message[AssistantMessage] {
	return envelope(m, AssistantMessage{Refusal: refusal})
}

// AssistantMessageMultipart builds an assistant message from content parts.
func (m messageBuilder) AssistantMessageMultipart(parts ...AssistantContentPart) Message[AssistantMessage] {
	return envelope(m, AssistantMessage{Content: AssistantContentOrParts{Parts: parts}})
}

// ToolCall builds a tool call message.
func (m messageBuilder) ToolCall(calls []ToolCallData) Message[ToolCallMessage] {
	return envelope(m, ToolCallMessage{ToolCalls: calls})
}

// ToolResponse builds a tool response message for the given call.
func (m messageBuilder) ToolResponse(callID, toolName, content string) Message[ToolResponse] {
	return envelope(m, ToolResponse{
		ToolCallID: callID,
		ToolName:   toolName,
		Content:    content,
	})
}

// ToolError builds a retry message for a failed tool call.
func (m messageBuilder) ToolError(callID, toolName string, err error) Message[Retry] {
	return envelope(m, Retry{
		Error:      err,
		ToolCallID: callID,
		ToolName:   toolName,
	})
}

func envelope[T ModelMessage](m messageBuilder, payload T) Message[T] {
	return Message[T]{
		Payload:   payload,
		Sender:    m.sender,
		Timestamp: m.timestamp,
		Meta:      m.metadata,
	}
}
