package symposium

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agora-dev/symposium/api"
	"github.com/agora-dev/symposium/events"
	"github.com/agora-dev/symposium/internal/executor"
	"github.com/agora-dev/symposium/internal/shorttermmemory"
	"github.com/agora-dev/symposium/messages"
	"github.com/agora-dev/symposium/pkg/uuidx"
	"github.com/agora-dev/symposium/types"
	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a background run. Transitions only move
// forward: pending → running → (completed | failed).
type Status uint8

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Run is a single background execution of the tool-call loop. The result
// stays retrievable after completion.
type Run struct {
	id      uuid.UUID
	label   string
	agent   api.Agent
	task    string
	created time.Time

	status atomic.Int32

	mu       sync.Mutex
	started  time.Time
	finished time.Time
	outcome  api.RunResult[string]

	done chan struct{}
}

func newRun(agent api.Agent, task, label string) *Run {
	if label == "" {
		label = agent.Name()
	}
	return &Run{
		id:      uuidx.New(),
		label:   label,
		agent:   agent,
		task:    task,
		created: time.Now(),
		done:    make(chan struct{}),
	}
}

// ID returns the run's uuid v7 identifier.
func (r *Run) ID() uuid.UUID { return r.id }

// Label returns the run's display label, the agent name when none was set.
func (r *Run) Label() string { return r.label }

// Status returns the current lifecycle state.
func (r *Run) Status() Status { return Status(r.status.Load()) }

// Done is closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Result returns the final answer and error. Before the run finishes both
// are zero.
func (r *Run) Result() (string, error) {
	outcome := r.Outcome()
	return outcome.Success, outcome.Err
}

// Outcome returns the run's result record.
func (r *Run) Outcome() api.RunResult[string] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// transition moves the run from one status to the next. It returns false if
// the run is not in the expected state, statuses never move backwards and
// terminal states never move at all.
func (r *Run) transition(from, to Status) bool {
	if to <= from || from == StatusCompleted || from == StatusFailed {
		return false
	}
	return r.status.CompareAndSwap(int32(from), int32(to))
}

func (r *Run) complete(result string) {
	if !r.transition(StatusRunning, StatusCompleted) {
		return
	}
	r.mu.Lock()
	r.outcome = api.RunResult[string]{Success: result}
	r.finished = time.Now()
	r.mu.Unlock()
	close(r.done)
}

func (r *Run) fail(err error) {
	if !r.transition(StatusRunning, StatusFailed) && !r.transition(StatusPending, StatusFailed) {
		return
	}
	r.mu.Lock()
	r.outcome = api.RunResult[string]{Err: err}
	r.finished = time.Now()
	r.mu.Unlock()
	close(r.done)
}

// SpawnConfig carries the per-run options of Manager.Spawn.
type SpawnConfig struct {
	Label       string
	Hook        events.Hook
	MaxTurns    int
	ContextVars types.ContextVars
}

// SpawnOption configures a single background run.
type SpawnOption = opts.Option[SpawnConfig]

var (
	// SpawnLabel names the run; defaults to the agent's name.
	SpawnLabel = opts.ForName[SpawnConfig, string]("Label")

	// SpawnHook observes the run's events; defaults to a logging hook.
	SpawnHook = opts.ForName[SpawnConfig, events.Hook]("Hook")

	// SpawnMaxTurns caps the run's completion turns.
	SpawnMaxTurns = opts.ForName[SpawnConfig, int]("MaxTurns")

	// SpawnContextVars supplies context variables to the run.
	SpawnContextVars = opts.ForName[SpawnConfig, types.ContextVars]("ContextVars")
)

// Manager tracks background agent runs. Spawn starts the tool-call loop on
// its own goroutine; runs stay retrievable by id after they finish.
type Manager struct {
	runs *haxmap.Map[string, *Run]
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{runs: haxmap.New[string, *Run]()}
}

// Spawn starts the agent on the task in the background and returns the run
// handle immediately.
func (m *Manager) Spawn(ctx context.Context, agent api.Agent, task string, options ...SpawnOption) (*Run, error) {
	if agent == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if task == "" {
		return nil, fmt.Errorf("task is required")
	}

	var cfg SpawnConfig
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}
	if cfg.Hook == nil {
		cfg.Hook = events.LoggingHook()
	}

	run := newRun(agent, task, cfg.Label)
	m.runs.Set(run.id.String(), run)

	go m.execute(ctx, run, cfg)

	return run, nil
}

func (m *Manager) execute(ctx context.Context, run *Run, cfg SpawnConfig) {
	if !run.transition(StatusPending, StatusRunning) {
		return
	}
	run.mu.Lock()
	run.started = time.Now()
	run.mu.Unlock()

	mem := shorttermmemory.New()
	prompt := messages.New().WithSender(run.label).UserPrompt(run.task)
	mem.AddUserPrompt(prompt)
	cfg.Hook.OnUserPrompt(ctx, prompt)

	cmd, err := executor.NewRunCommand(run.agent, mem, cfg.Hook)
	if err != nil {
		run.fail(err)
		return
	}
	if cfg.MaxTurns > 0 {
		cmd = cmd.WithMaxTurns(cfg.MaxTurns)
	}
	if len(cfg.ContextVars) > 0 {
		cmd = cmd.WithContextVariables(cfg.ContextVars)
	}

	fut := executor.NewFuture(executor.DefaultUnmarshal[string]())
	if err := executor.NewLocal().Run(ctx, cmd, fut); err != nil {
		run.fail(err)
		return
	}

	result, err := fut.Get()
	if err != nil {
		run.fail(err)
		return
	}
	run.complete(result)
}

// Get returns the run with the given id.
func (m *Manager) Get(id uuid.UUID) (*Run, bool) {
	return m.runs.Get(id.String())
}

// Runs returns a snapshot of all tracked runs.
func (m *Manager) Runs() []*Run {
	result := make([]*Run, 0, m.runs.Len())
	m.runs.ForEach(func(_ string, r *Run) bool {
		result = append(result, r)
		return true
	})
	return result
}

// Wait blocks until the run with the given id finishes or the context is
// cancelled, and returns the run's result.
func (m *Manager) Wait(ctx context.Context, id uuid.UUID) (string, error) {
	run, found := m.Get(id)
	if !found {
		return "", fmt.Errorf("run %s not found", id)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-run.Done():
		return run.Result()
	}
}
