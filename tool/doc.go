/*
Package tool defines the functions agents can invoke during a conversation.

A tool is an ordinary Go function wrapped in a Definition. The package uses
reflection to derive a JSON schema for the function's parameters, so the
model knows how to call it. Parameters of type types.ContextVars are
excluded from the schema and injected by the executor at call time.

Define a tool with the functional options:

	func calculate(expression string) (float64, error) { ... }

	def := tool.Must(calculate,
		tool.Name("calculate"),
		tool.Description("Evaluates an arithmetic expression"),
		tool.Parameters("expression"),
	)

A tool function that returns an api.Agent hands the conversation off to
that agent instead of producing a tool response.

Tool definitions can also be generated from source comments with the
symposium-tool-gen command, which scans for `symposium:tool` directives.
*/
package tool
