package shorttermmemory

import (
	"iter"
	"slices"

	"github.com/agora-dev/symposium/messages"
	"github.com/agora-dev/symposium/pkg/uuidx"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// AggregatedMessages is an ordered collection of type-erased model messages.
type AggregatedMessages []messages.Message[messages.ModelMessage]

// Len returns the number of messages in the collection.
func (a AggregatedMessages) Len() int {
	return len(a)
}

// New creates an empty Aggregator with a fresh id.
func New() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: make(AggregatedMessages, 0),
	}
}

// Aggregator manages the message history of a run together with token usage.
// It supports fork/join so that a turn can accumulate messages on a copy and
// merge them back once the turn completes.
type Aggregator struct {
	id       uuid.UUID
	messages AggregatedMessages
	initLen  int // length at fork time, used for joining
	usage    Usage
}

// ID returns the unique identifier of this aggregator. A forked aggregator
// gets its own id, which doubles as the turn id.
func (a *Aggregator) ID() uuid.UUID {
	return a.id
}

// Len returns the total number of messages held by the aggregator.
func (a *Aggregator) Len() int {
	return a.messages.Len()
}

// TurnLen returns the number of messages added since the aggregator was forked.
func (a *Aggregator) TurnLen() int {
	return len(a.messages) - a.initLen
}

// Messages returns a copy of all messages in the aggregator.
func (a *Aggregator) Messages() AggregatedMessages {
	return slices.Clone(a.messages)
}

// MessagesIter returns an iterator over all messages without copying.
func (a *Aggregator) MessagesIter() iter.Seq[messages.Message[messages.ModelMessage]] {
	return slices.Values(a.messages)
}

func eraseType[T messages.ModelMessage](m messages.Message[T]) messages.Message[messages.ModelMessage] {
	return messages.Message[messages.ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}
}

// AddMessage adds any message type that satisfies ModelMessage.
func AddMessage[T messages.ModelMessage](a *Aggregator, m messages.Message[T]) {
	a.add(eraseType(m))
}

// AddUserPrompt appends a user message.
func (a *Aggregator) AddUserPrompt(m messages.Message[messages.UserMessage]) {
	a.add(eraseType(m))
}

// AddAssistantMessage appends an assistant message.
func (a *Aggregator) AddAssistantMessage(m messages.Message[messages.AssistantMessage]) {
	a.add(eraseType(m))
}

// AddToolCall appends a tool call message.
func (a *Aggregator) AddToolCall(m messages.Message[messages.ToolCallMessage]) {
	a.add(eraseType(m))
}

// AddToolResponse appends a tool response message.
func (a *Aggregator) AddToolResponse(m messages.Message[messages.ToolResponse]) {
	a.add(eraseType(m))
}

func (a *Aggregator) add(m messages.Message[messages.ModelMessage]) {
	a.messages = append(a.messages, m)
}

// Usage returns the accumulated token usage.
func (a *Aggregator) Usage() Usage {
	return a.usage
}

// AddUsage folds the given usage into the aggregator's totals.
func (a *Aggregator) AddUsage(u *Usage) {
	a.usage.AddUsage(u)
}

// Fork creates a new aggregator seeded with a copy of the current messages,
// a fresh id and an initLen marking the fork point.
func (a *Aggregator) Fork() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: slices.Clone(a.messages),
		initLen:  a.Len(),
	}
}

// Join appends the messages added to b after its fork point and combines
// usage statistics.
func (a *Aggregator) Join(b *Aggregator) {
	a.messages = append(a.messages, b.messages[b.initLen:]...)
	a.usage.AddUsage(&b.usage)
}

// Checkpoint creates an immutable snapshot of the aggregator's state.
func (a *Aggregator) Checkpoint() Checkpoint {
	return Checkpoint{
		id:       a.id,
		messages: slices.Clone(a.messages),
		usage:    a.usage,
		initLen:  a.initLen,
	}
}

// Checkpoint is a snapshot of an aggregator at a point in time. Providers
// attach one to each response so the executor can merge the turn's messages
// into the live thread.
type Checkpoint struct {
	id       uuid.UUID
	messages AggregatedMessages
	usage    Usage
	initLen  int
}

// ID returns the id of the aggregator the checkpoint was taken from.
func (c *Checkpoint) ID() uuid.UUID {
	return c.id
}

// Messages returns a copy of the messages captured by the checkpoint.
func (c *Checkpoint) Messages() AggregatedMessages {
	return slices.Clone(c.messages)
}

// Usage returns the usage captured by the checkpoint.
func (c *Checkpoint) Usage() Usage {
	return c.usage
}

// MergeInto appends the messages recorded after the checkpoint's fork point
// to the target aggregator and folds in the captured usage.
func (c *Checkpoint) MergeInto(target *Aggregator) {
	target.messages = append(target.messages, c.messages[c.initLen:]...)
	target.usage.AddUsage(&c.usage)
}

func (c Checkpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string             `json:"id"`
		Messages AggregatedMessages `json:"messages"`
		Usage    Usage              `json:"usage"`
		InitLen  int                `json:"init_len"`
	}{
		ID:       c.id.String(),
		Messages: c.messages,
		Usage:    c.usage,
		InitLen:  c.initLen,
	})
}

func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var tmp struct {
		ID       string             `json:"id"`
		Messages AggregatedMessages `json:"messages"`
		Usage    Usage              `json:"usage"`
		InitLen  int                `json:"init_len"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	id, err := uuid.Parse(tmp.ID)
	if err != nil {
		return err
	}
	c.id = id
	c.messages = tmp.Messages
	c.usage = tmp.Usage
	c.initLen = tmp.InitLen
	return nil
}
