package symposium

import (
	"context"

	"github.com/agora-dev/symposium/events"
	"github.com/agora-dev/symposium/messages"
)

// Hook receives the lifecycle events of a workflow along with its typed
// final result. It mirrors events.Hook but replaces the untyped OnResult
// with one for T, and adds OnClose, fired exactly once when the workflow
// finishes.
type Hook[T any] interface {
	OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage])
	OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage])
	OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage])
	OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage])
	OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage])
	OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse])
	OnResult(ctx context.Context, result T)
	OnClose(ctx context.Context)
	OnError(ctx context.Context, err error)
}

// eventsHook adapts a typed Hook to events.Hook. Untyped results are
// forwarded only when they actually are a T.
type eventsHook[T any] struct {
	hook Hook[T]
}

func (h eventsHook[T]) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	h.hook.OnUserPrompt(ctx, msg)
}

func (h eventsHook[T]) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.hook.OnAssistantChunk(ctx, msg)
}

func (h eventsHook[T]) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.hook.OnToolCallChunk(ctx, msg)
}

func (h eventsHook[T]) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.hook.OnAssistantMessage(ctx, msg)
}

func (h eventsHook[T]) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.hook.OnToolCallMessage(ctx, msg)
}

func (h eventsHook[T]) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	h.hook.OnToolCallResponse(ctx, msg)
}

func (h eventsHook[T]) OnResult(ctx context.Context, result any) {
	if v, ok := result.(T); ok {
		h.hook.OnResult(ctx, v)
	}
}

func (h eventsHook[T]) OnError(ctx context.Context, err error) {
	h.hook.OnError(ctx, err)
}

var _ events.Hook = eventsHook[string]{}
