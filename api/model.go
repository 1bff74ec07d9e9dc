package api

import "github.com/agora-dev/symposium/provider"

// Model identifies a concrete LLM together with the provider that serves it.
type Model interface {
	Name() string
	Provider() provider.Provider
}
