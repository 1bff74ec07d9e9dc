// Package types provides core type definitions used throughout symposium.
package types

import "encoding/json"

// ContextVars is a key-value store of context variables used for template
// rendering and for sharing state between conversation turns. Tools may
// accept a ContextVars parameter to read the current variables, and may
// return a ContextVars value to update them.
//
// ContextVars is a plain map and is not safe for concurrent modification;
// the executor copies it between turns.
type ContextVars map[string]any

// String returns a JSON string representation of the ContextVars.
// If marshaling fails, it returns an empty string.
func (cv ContextVars) String() string {
	b, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(b)
}
