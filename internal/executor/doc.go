// Package executor provides the execution engine for agent runs, implementing
// the reactor loop that drives completions, tool calls, and agent handoffs,
// with asynchronous results delivered through a Future/Promise pattern.
//
// Design decisions:
//   - Command pattern: Encapsulates execution parameters in RunCommand struct
//   - Future/Promise: Async operations with type-safe result handling
//   - Structured output: JSON Schema constrained responses
//   - Context awareness: All operations respect context cancellation
//   - Flexible unmarshaling: Support for different result types (JSON, string, gjson)
//
// Key components:
//
//   - Executor: Interface defining the core execution contract
//     ├── Run: Executes agent commands with streaming support
//     └── handleToolCalls: Manages tool invocations during execution
//
//   - RunCommand: Configuration for execution
//     ├── Agent: The agent to execute
//     ├── Thread: Memory aggregator for context
//     ├── Stream: Enable/disable streaming mode
//     └── Hook: Event handler for execution lifecycle
//
//   - Local: In-process executor running the reactor loop directly
//
//   - TemporalProxy/Temporal: Durable execution on a Temporal cluster, with
//     completions and tool calls as activities and handoffs as child workflows
//
// Example usage:
//
//	cmd, err := NewRunCommand(agent, thread, hook)
//	if err != nil {
//	    return err
//	}
//	cmd = cmd.WithStream(true).
//	    WithMaxTurns(5).
//	    WithContextVariables(vars)
//
//	future := NewFuture(DefaultUnmarshal[MyResponse]())
//
//	if err := executor.Run(ctx, cmd, future); err != nil {
//	    return err
//	}
//
//	// Get blocks until complete
//	result, err := future.Get()
//
// The package is internal; the root package wraps it in the public Run API.
package executor
