package api

import (
	"github.com/agora-dev/symposium/tool"
	"github.com/agora-dev/symposium/types"
)

// Agent is the core interface for participants in a conversation. It defines
// the essential capabilities and configuration every agent must implement.
//
// The interface is deliberately minimal and implementation-agnostic: an agent
// backed by a hosted API and one wrapping a local model expose the same
// surface. Configuration is immutable; methods return values rather than
// allowing runtime changes. A tool function may also return an Agent, in
// which case the conversation is handed off to the returned agent.
type Agent interface {
	// Name returns the agent's unique identifier. It should be stable across
	// sessions and is used for logging and for addressing the agent in
	// handoffs.
	Name() string

	// Model returns the model configuration this agent runs on.
	Model() Model

	// Tools returns the set of functions this agent can call.
	Tools() []tool.Definition

	// ParallelToolCalls indicates whether the model may batch multiple tool
	// calls in a single turn.
	ParallelToolCalls() bool

	// RenderInstructions produces the system instructions for a run, expanding
	// any template placeholders with the provided context variables.
	RenderInstructions(types.ContextVars) (string, error)
}
