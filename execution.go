package symposium

import (
	"context"
	"reflect"

	"github.com/agora-dev/symposium/api"
	"github.com/agora-dev/symposium/events"
	"github.com/agora-dev/symposium/internal/executor"
	"github.com/agora-dev/symposium/internal/shorttermmemory"
	"github.com/agora-dev/symposium/provider"
	"github.com/agora-dev/symposium/types"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// ExecutionContext holds the configuration and state for executing the steps
// of a conversation workflow: the executor, the event hook, the promise the
// final step resolves, and the execution parameters.
//
// An ExecutionContext belongs to a single workflow run and should not be
// shared across concurrent conversations.
type ExecutionContext struct {
	executor       executor.Executor
	hook           events.Hook
	promise        executor.Promise
	responseSchema *provider.StructuredOutput
	contextVars    types.ContextVars
	onClose        func(context.Context)
	stream         bool
	maxTurns       int
}

// createCommand builds a RunCommand for the given agent using the current
// execution context.
func (e *ExecutionContext) createCommand(agent api.Agent, mem *shorttermmemory.Aggregator) (executor.RunCommand, error) {
	cmd, err := executor.NewRunCommand(agent, mem, e.hook)
	if err != nil {
		return executor.RunCommand{}, err
	}
	if len(e.contextVars) > 0 {
		cmd = cmd.WithContextVariables(e.contextVars)
	}
	if e.responseSchema != nil {
		cmd = cmd.WithStructuredOutput(e.responseSchema)
	}
	if e.stream {
		cmd = cmd.WithStream(e.stream)
	}
	if e.maxTurns > 0 {
		cmd = cmd.WithMaxTurns(e.maxTurns)
	}
	return cmd, nil
}

// Local creates an ExecutionContext that runs the workflow in-process. The
// hook receives all lifecycle events plus the typed result of the final
// step.
//
// Example:
//
//	hook, result := msgfmt.Console[string](ctx, os.Stdout)
//	execCtx := symposium.Local(hook,
//	    symposium.Streaming(true),
//	    symposium.WithMaxTurns(5),
//	)
func Local[T any](hook Hook[T], options ...opts.Option[ExecutionContext]) ExecutionContext {
	fut := executor.NewFuture(executor.DefaultUnmarshal[T]())
	dp := &deferredPromise[T]{
		promise: fut,
		hook:    hook,
	}

	execCtx := ExecutionContext{
		executor: executor.NewLocal(),
		hook:     eventsHook[T]{hook: hook},
		promise:  dp,
		onClose: func(ctx context.Context) {
			dp.Forward(ctx)
			hook.OnClose(ctx)
		},
	}

	if err := opts.Apply(&execCtx, options); err != nil {
		panic(err)
	}

	return execCtx
}

var (
	// WithContextVars makes the given variables available to agents during
	// execution, for instruction templates and ContextVars tool parameters.
	WithContextVars = opts.ForName[ExecutionContext, types.ContextVars]("contextVars")

	// Streaming enables incremental response chunks instead of a single
	// response at the end of each turn.
	Streaming = opts.ForName[ExecutionContext, bool]("stream")

	// WithMaxTurns caps the number of completion turns in a single step.
	WithMaxTurns = opts.ForName[ExecutionContext, int]("maxTurns")
)

// StructuredOutput constrains the final response to the JSON schema derived
// from T. For string and gjson.Result no schema is applied, the raw response
// is returned as-is.
func StructuredOutput[T any](name, description string) opts.Option[ExecutionContext] {
	return opts.Type[ExecutionContext](func(s *ExecutionContext) error {
		schema := jsonSchema[T]()
		if schema != nil {
			s.responseSchema = &provider.StructuredOutput{
				Name:        name,
				Description: description,
				Schema:      schema,
			}
		}
		return nil
	})
}

// jsonSchema generates a JSON schema for T unless T is a gjson.Result or a
// string, which pass through unconstrained.
func jsonSchema[T any]() *jsonschema.Schema {
	var schema *jsonschema.Schema
	var isGjsonResult bool
	var t T
	_, isGjsonResult = any(t).(gjson.Result)
	isString := reflect.TypeFor[T]().Kind() == reflect.String

	if !isGjsonResult && !isString {
		schema = executor.ToJSONSchema[T]()
	}

	return schema
}
