package toolkit

import (
	"bytes"
	"context"
	"fmt"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/agora-dev/symposium/tool"
	"github.com/fogfish/opts"
)

const defaultRunTimeout = 30 * time.Second

// Runner executes CLI commands on behalf of an agent. Only allowlisted
// programs run; everything else is rejected before it touches the shell.
type Runner struct {
	allowed map[string]struct{}
	timeout time.Duration
}

// Allow adds programs to the runner's allowlist.
func Allow(commands ...string) opts.Option[Runner] {
	return opts.Type[Runner](func(r *Runner) error {
		for _, c := range commands {
			r.allowed[c] = struct{}{}
		}
		return nil
	})
}

// Timeout bounds the wall-clock time of a single command.
func Timeout(d time.Duration) opts.Option[Runner] {
	return opts.Type[Runner](func(r *Runner) error {
		if d <= 0 {
			return fmt.Errorf("toolkit: timeout must be positive")
		}
		r.timeout = d
		return nil
	})
}

// NewRunner creates a Runner. With no Allow option every command is
// rejected.
func NewRunner(options ...opts.Option[Runner]) (*Runner, error) {
	r := &Runner{
		allowed: make(map[string]struct{}),
		timeout: defaultRunTimeout,
	}
	if err := opts.Apply(r, options); err != nil {
		return nil, err
	}
	return r, nil
}

// Tools returns the command execution tool definition.
func (r *Runner) Tools() []tool.Definition {
	return []tool.Definition{
		tool.Must(r.Run,
			tool.Name("run_command"),
			tool.Description("Run an allowlisted CLI command and return its combined stdout and stderr. The command line is split on whitespace; the first word is the program."),
			tool.Parameters("command"),
		),
	}
}

// Run executes the command line and returns its combined output. The program
// must be on the allowlist.
func (r *Runner) Run(command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", fmt.Errorf("run_command: command is required")
	}

	program := fields[0]
	if _, ok := r.allowed[program]; !ok {
		return "", fmt.Errorf("run_command: %q is not on the allowlist", program)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := osexec.CommandContext(ctx, program, fields[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var result strings.Builder
	if stdout.Len() > 0 {
		result.WriteString(stdout.String())
	}
	if stderr.Len() > 0 {
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString(stderr.String())
	}

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("run_command: %q timed out after %s", program, r.timeout)
	}
	if err != nil {
		return "", fmt.Errorf("run_command: %w\n%s", err, result.String())
	}

	return result.String(), nil
}
