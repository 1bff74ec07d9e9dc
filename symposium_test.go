package symposium

import (
	"context"
	"errors"
	"testing"

	"github.com/agora-dev/symposium/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	socrates := answerAgent("socrates", "the unexamined life is not worth living")
	plato := answerAgent("plato", "ideas are the only reality")

	p := New(
		Name("Seeker"),
		Agents(socrates, plato),
		Steps(
			Step(socrates.Name(), "What makes a life worth living?"),
			Step(plato.Name(), "And what is reality?"),
		),
	)

	assert.Equal(t, "Seeker", p.name)
	assert.Len(t, p.steps, 2)
	_, found := p.agents.Get("socrates")
	assert.True(t, found)
	_, found = p.agents.Get("plato")
	assert.True(t, found)
}

func TestStep(t *testing.T) {
	t.Run("string task", func(t *testing.T) {
		step := Step("socrates", "a question")
		assert.Equal(t, "socrates", step.agentName)
		assert.IsType(t, stringTask(""), step.task)
	})

	t.Run("message task", func(t *testing.T) {
		msg := messages.New().WithSender("tester").UserPrompt("a question")
		step := Step("socrates", msg)
		assert.IsType(t, messageTask{}, step.task)
	})
}

func TestRun_SingleStep(t *testing.T) {
	a := answerAgent("oracle", "forty-two")
	hook := &recordingHook[string]{}

	p := New(
		Agents(a),
		Steps(Step(a.Name(), "What is the answer?")),
	)

	require.NoError(t, p.Run(context.Background(), Local(hook)))

	results, errs, closed := hook.snapshot()
	require.Empty(t, errs)
	require.Len(t, results, 1)
	assert.Equal(t, "forty-two", results[0])
	assert.True(t, closed)
}

func TestRun_MultiStep(t *testing.T) {
	first := answerAgent("first", "intermediate thoughts")
	second := answerAgent("second", "final answer")
	hook := &recordingHook[string]{}

	p := New(
		Agents(first, second),
		Steps(
			Step(first.Name(), "step one"),
			Step(second.Name(), "step two"),
		),
	)

	require.NoError(t, p.Run(context.Background(), Local(hook)))

	// Only the final step resolves the result.
	results, _, _ := hook.snapshot()
	require.Len(t, results, 1)
	assert.Equal(t, "final answer", results[0])

	prompts := func() []messages.Message[messages.UserMessage] {
		hook.mu.Lock()
		defer hook.mu.Unlock()
		return append([]messages.Message[messages.UserMessage](nil), hook.prompts...)
	}()
	require.Len(t, prompts, 2)
	assert.Equal(t, "User", prompts[0].Sender)
}

func TestRun_UnknownAgent(t *testing.T) {
	a := answerAgent("known", "yes")
	hook := &recordingHook[string]{}

	p := New(
		Agents(a),
		Steps(Step("unknown", "hello?")),
	)

	err := p.Run(context.Background(), Local(hook))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent unknown not found")
}

func TestRun_ProviderFailure(t *testing.T) {
	a := failingAgent("broken", errors.New("api down"))
	hook := &recordingHook[string]{}

	p := New(
		Agents(a),
		Steps(Step(a.Name(), "anything")),
	)

	err := p.Run(context.Background(), Local(hook))
	require.Error(t, err)

	_, errs, closed := hook.snapshot()
	assert.NotEmpty(t, errs)
	assert.True(t, closed)
}

func TestRun_TypedResult(t *testing.T) {
	type answer struct {
		Value int `json:"value"`
	}

	a := answerAgent("typed", `{"value": 7}`)
	hook := &recordingHook[answer]{}

	p := New(
		Agents(a),
		Steps(Step(a.Name(), "How many?")),
	)

	require.NoError(t, p.Run(context.Background(), Local(hook,
		StructuredOutput[answer]("answer", "a numeric answer"),
	)))

	results, errs, _ := hook.snapshot()
	require.Empty(t, errs)
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].Value)
}
