// Package provider implements an abstraction layer for interacting with AI
// model providers in a consistent way. It defines interfaces and types for
// streaming chat completions while handling provider-specific details.
//
// The streaming architecture uses four event types:
//  1. Delim: Delimiter events marking stream boundaries
//  2. Chunk: Incremental response fragments
//  3. Response: Complete responses with checkpoints
//  4. Error: Error events with preserved context
//
// Example usage:
//
//	prov := openai.New()
//	stream, err := prov.ChatCompletion(ctx, provider.CompletionParams{
//	    RunID:        uuid.New(),
//	    Instructions: "You are a helpful assistant",
//	    Thread:       thread,
//	    Stream:       true,
//	    Tools:        []tool.Definition{...},
//	})
//	if err != nil {
//	    return err
//	}
//
//	for event := range stream {
//	    switch e := event.(type) {
//	    case provider.Chunk[messages.AssistantMessage]:
//	        // Handle incremental response
//	    case provider.Response[messages.AssistantMessage]:
//	        // Handle complete response
//	    case provider.Error:
//	        // Handle error with context
//	    }
//	}
package provider
