package symposium

import (
	"context"
	"fmt"
	"slices"

	"github.com/agora-dev/symposium/api"
	"github.com/agora-dev/symposium/internal/executor"
	"github.com/agora-dev/symposium/internal/shorttermmemory"
	"github.com/agora-dev/symposium/messages"
	"github.com/agora-dev/symposium/provider"
	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"
)

// Symposium is a named conversation workflow: a set of registered agents and
// an ordered list of steps. Each step addresses one agent with one prompt;
// only the final step's result is delivered to the caller's future.
type Symposium struct {
	name   string
	agents *haxmap.Map[string, api.Agent]
	steps  []ConversationStep
}

// Agents registers agents with the workflow so steps can address them by
// name.
func Agents(agent api.Agent, extraAgents ...api.Agent) opts.Option[Symposium] {
	return opts.Type[Symposium](func(o *Symposium) error {
		o.agents.Set(agent.Name(), agent)
		for elem := range slices.Values(extraAgents) {
			o.agents.Set(elem.Name(), elem)
		}
		return nil
	})
}

// Steps appends conversation steps, executed in order.
func Steps(step ConversationStep, extraSteps ...ConversationStep) opts.Option[Symposium] {
	return opts.Type[Symposium](func(o *Symposium) error {
		o.steps = append(o.steps, step)
		o.steps = append(o.steps, extraSteps...)
		return nil
	})
}

// Name sets the sender name attached to user prompts. Defaults to "User".
var Name = opts.ForName[Symposium, string]("name")

// New creates a workflow from the given options.
func New(options ...opts.Option[Symposium]) *Symposium {
	p := &Symposium{
		name:   "User",
		agents: haxmap.New[string, api.Agent](),
	}
	if err := opts.Apply(p, options); err != nil {
		panic(err)
	}
	return p
}

// Run executes the workflow's steps in order. Intermediate steps run with a
// no-op promise; the final step resolves the execution context's promise and
// carries its structured-output schema. The context's onClose fires exactly
// once, after all steps finish or the first one fails.
func (p *Symposium) Run(ctx context.Context, rc ExecutionContext) error {
	defer rc.onClose(ctx)

	maxItems := len(p.steps) - 1

	for i, step := range p.steps {
		var promise executor.Promise
		var schema *provider.StructuredOutput
		if i < maxItems {
			promise = noopPromise{}
		} else {
			promise = rc.promise
			schema = rc.responseSchema
		}

		if err := p.runStep(ctx, step.agentName, step.task, ExecutionContext{
			executor:       rc.executor,
			hook:           rc.hook,
			promise:        promise,
			contextVars:    rc.contextVars,
			onClose:        rc.onClose,
			responseSchema: schema,
			stream:         rc.stream,
			maxTurns:       rc.maxTurns,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (p *Symposium) runStep(ctx context.Context, agentName string, prompt task, rc ExecutionContext) error {
	agent, found := p.agents.Get(agentName)
	if !found {
		return fmt.Errorf("agent %s not found", agentName)
	}

	state := shorttermmemory.New()

	var message messages.Message[messages.UserMessage]
	switch tsk := prompt.(type) {
	case stringTask:
		message = messages.New().WithSender(p.name).UserPrompt(string(tsk))
	case messageTask:
		message = messages.Message[messages.UserMessage](tsk)
	default:
		return fmt.Errorf("unknown task type %T", tsk)
	}
	state.AddUserPrompt(message)
	rc.hook.OnUserPrompt(ctx, message)

	cmd, err := rc.createCommand(agent, state)
	if err != nil {
		return err
	}

	return rc.executor.Run(ctx, cmd, rc.promise)
}
