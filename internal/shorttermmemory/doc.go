// Package shorttermmemory manages the runtime state of a conversation run:
// the ordered message history, fork/join of per-turn message streams, usage
// accounting, and immutable checkpoints that providers hand back with each
// response.
package shorttermmemory
