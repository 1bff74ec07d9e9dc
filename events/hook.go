package events

import (
	"context"
	"log/slog"

	"github.com/agora-dev/symposium/messages"
	"github.com/agora-dev/symposium/pkg/slogx"
	json "github.com/goccy/go-json"
)

// Hook receives the lifecycle events of a run. Implementations must be safe
// for concurrent use, events can arrive from multiple goroutines.
type Hook interface {
	OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage])
	OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage])
	OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage])
	OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage])
	OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage])
	OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse])
	OnResult(ctx context.Context, result any)
	OnError(ctx context.Context, err error)
}

// NewCompositeHook fans every event out to all the given hooks, in order.
func NewCompositeHook(hooks ...Hook) Hook {
	return compositeHook(hooks)
}

type compositeHook []Hook

func (c compositeHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	for _, h := range c {
		h.OnUserPrompt(ctx, msg)
	}
}

func (c compositeHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	for _, h := range c {
		h.OnAssistantChunk(ctx, msg)
	}
}

func (c compositeHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	for _, h := range c {
		h.OnToolCallChunk(ctx, msg)
	}
}

func (c compositeHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	for _, h := range c {
		h.OnAssistantMessage(ctx, msg)
	}
}

func (c compositeHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	for _, h := range c {
		h.OnToolCallMessage(ctx, msg)
	}
}

func (c compositeHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	for _, h := range c {
		h.OnToolCallResponse(ctx, msg)
	}
}

func (c compositeHook) OnResult(ctx context.Context, result any) {
	for _, h := range c {
		h.OnResult(ctx, result)
	}
}

func (c compositeHook) OnError(ctx context.Context, err error) {
	for _, h := range c {
		h.OnError(ctx, err)
	}
}

// LoggingHook logs every event through slog at debug level. Useful as an
// extra member of a composite hook during development.
func LoggingHook() Hook {
	return loggingHook{}
}

type loggingHook struct{}

func (loggingHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	slog.DebugContext(ctx, "user prompt", slog.String("sender", msg.Sender), slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	slog.DebugContext(ctx, "assistant chunk", slog.String("sender", msg.Sender))
}

func (loggingHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	slog.DebugContext(ctx, "tool call chunk", slog.String("sender", msg.Sender))
}

func (loggingHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	slog.DebugContext(ctx, "assistant message", slog.String("sender", msg.Sender), slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	slog.DebugContext(ctx, "tool call message", slog.String("sender", msg.Sender), slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	slog.DebugContext(ctx, "tool call response", slog.String("sender", msg.Sender), slog.String("tool", msg.Payload.ToolName))
}

func (loggingHook) OnResult(ctx context.Context, result any) {
	slog.DebugContext(ctx, "run result", slog.String("result", mustJSON(result)))
}

func (loggingHook) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "run error", slogx.Error(err))
}

func mustJSON(value any) string {
	b, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	return string(b)
}
