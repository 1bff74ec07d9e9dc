// Package toolkit bundles the built-in tools agents can call without any
// wiring: an arithmetic calculator, root-jailed filesystem access, an
// allowlist-gated command runner, and a markdown note store for memory that
// survives a conversation.
//
// Each tool is a plain Go function bound through the tool package, so the
// executor derives parameter schemas by reflection. Stateful tools (FS,
// Runner, Memory) expose a Tools() slice to hand to an agent:
//
//	fs, _ := toolkit.NewFS("/srv/workspace")
//	a := agent.New(
//	    agent.Name("librarian"),
//	    agent.Tools(toolkit.Calculator),
//	    agent.Tools(fs.Tools()[0], fs.Tools()[1:]...),
//	)
package toolkit
