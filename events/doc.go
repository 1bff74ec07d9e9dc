// Package events provides the pub/sub event vocabulary for agent runs,
// supporting type-safe event handling with rich metadata and serialization.
// It builds on top of the provider package's streaming events, adding sender
// tracking so that events can travel between processes.
//
// Event hierarchy:
//   - Event: Base interface for all pub/sub events
//     ├── Delim: Stream boundary markers
//     ├── Chunk[T]: Incremental response fragments
//     ├── Request[T]: Incoming requests (user prompts, tool responses)
//     ├── Response[T]: Complete responses
//     ├── Result[T]: Final computation results
//     └── Error: Error events with preserved context
//
// Each event carries the run id, the turn id, a timestamp, the sender and
// optional structured metadata. Events serialize through ToJSON and come back
// through FromJSON, which dispatches on the type marker in the payload.
package events
