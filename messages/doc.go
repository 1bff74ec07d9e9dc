// Package messages defines the typed conversation model shared by the
// executor, the providers and the event system.
//
// Every payload that can appear in a thread implements ModelMessage and is
// wrapped in a Message[T], which carries the run id, the turn id, the sender
// and a timestamp. The Request and Response marker interfaces split payloads
// by direction: user prompts and tool responses travel towards the model,
// assistant messages and tool call batches come back from it.
//
// Content can be a plain string or multi-part (text and image parts for user
// input, text and refusal parts for assistant output). ContentOrParts and
// AssistantContentOrParts serialize a bare string when only Content is set,
// keeping the wire format compact for the common case.
//
// Use the builder for construction:
//
//	msg := messages.New().WithSender("user").UserPrompt("What is 2+2?")
package messages
