package symposium

import (
	"context"
	"sync"

	"github.com/agora-dev/symposium/agent"
	"github.com/agora-dev/symposium/api"
	"github.com/agora-dev/symposium/messages"
	"github.com/agora-dev/symposium/provider"
)

type stubProvider struct {
	provider.Provider
	responses []provider.StreamEvent
	err       error
}

func (p *stubProvider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	if p.err != nil {
		return nil, p.err
	}

	ch := make(chan provider.StreamEvent, len(p.responses))
	for _, resp := range p.responses {
		ch <- resp
	}
	close(ch)
	return ch, nil
}

type stubModel struct {
	prov provider.Provider
}

func (m stubModel) Name() string                { return "stub_model" }
func (m stubModel) Provider() provider.Provider { return m.prov }

// answerAgent builds an agent whose provider always replies with answer.
func answerAgent(name, answer string) api.Agent {
	prov := &stubProvider{
		responses: []provider.StreamEvent{
			provider.Response[messages.AssistantMessage]{
				Response: messages.AssistantMessage{
					Content: messages.AssistantContentOrParts{Content: answer},
				},
			},
		},
	}
	return agent.New(
		agent.Name(name),
		agent.Model(stubModel{prov: prov}),
		agent.Instructions("answer the question"),
	)
}

// failingAgent builds an agent whose provider always errors.
func failingAgent(name string, err error) api.Agent {
	return agent.New(
		agent.Name(name),
		agent.Model(stubModel{prov: &stubProvider{err: err}}),
		agent.Instructions("answer the question"),
	)
}

// recordingHook records results, errors, and user prompts for assertions.
type recordingHook[T any] struct {
	mu      sync.Mutex
	results []T
	errors  []error
	prompts []messages.Message[messages.UserMessage]
	closed  bool
}

func (h *recordingHook[T]) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompts = append(h.prompts, msg)
}

func (h *recordingHook[T]) OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage]) {
}

func (h *recordingHook[T]) OnToolCallChunk(context.Context, messages.Message[messages.ToolCallMessage]) {
}

func (h *recordingHook[T]) OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage]) {
}

func (h *recordingHook[T]) OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage]) {
}

func (h *recordingHook[T]) OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse]) {
}

func (h *recordingHook[T]) OnResult(ctx context.Context, result T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
}

func (h *recordingHook[T]) OnClose(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *recordingHook[T]) OnError(ctx context.Context, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, err)
}

func (h *recordingHook[T]) snapshot() (results []T, errs []error, closed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]T(nil), h.results...), append([]error(nil), h.errors...), h.closed
}
