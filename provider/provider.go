package provider

import (
	"context"

	"github.com/agora-dev/symposium/internal/shorttermmemory"
	"github.com/agora-dev/symposium/tool"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// Provider defines the contract for AI model providers. Implementations
// handle the specifics of communicating with a service while maintaining a
// consistent streaming interface for the rest of the application.
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (<-chan StreamEvent, error)
}

// CompletionParams encapsulates all parameters needed for a chat completion
// request.
type CompletionParams struct {
	// RunID uniquely identifies this completion request
	RunID uuid.UUID

	// Instructions is the rendered system prompt for the active agent
	Instructions string

	// Thread contains the conversation history and context
	Thread *shorttermmemory.Aggregator

	// Stream requests incremental chunks instead of a single response
	Stream bool

	// ResponseSchema requests structured output matching the schema
	ResponseSchema *StructuredOutput

	// Model specifies which model to use for this completion
	Model interface {
		Name() string
		Provider() Provider
	}

	// Tools defines the functions the model may call
	Tools []tool.Definition

	// Prevents unkeyed literals
	_ struct{}
}

// StructuredOutput defines a schema for formatted model responses.
type StructuredOutput struct {
	// Name identifies this output format
	Name string

	// Description explains the purpose of this format to the model
	Description string

	// Schema defines the JSON structure responses should follow
	Schema *jsonschema.Schema
}
