/*
Package openai implements provider.Provider on top of OpenAI's chat
completions API. It handles both streaming and one-shot requests, converts
conversation history to the wire format, wires tool definitions into
function calling, and applies response schemas for structured output.

Pre-configured models are available through GPT4oMini, GPT4o, O1Mini and
O1; any other model name can be used via Model:

	model := openai.Model("gpt-4-turbo",
		option.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
	)

Models initialize their provider lazily on first use and are safe to share
across goroutines.

Non-streaming requests are retried with exponential backoff and jitter on
rate limits and transient server failures. Streaming requests are not
retried: once chunks have been delivered a replay would duplicate them.
*/
package openai
