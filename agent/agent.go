// Package agent provides the default api.Agent implementation and a global
// registry for looking agents up by name during handoffs.
package agent

import (
	"strings"
	"text/template"

	"github.com/agora-dev/symposium/api"
	"github.com/agora-dev/symposium/provider/openai"
	"github.com/agora-dev/symposium/tool"
	"github.com/agora-dev/symposium/types"
	"github.com/fogfish/opts"
)

var _ api.Agent = (*defaultAgent)(nil)

// defaultAgent is the standard agent configuration: a name, a model, an
// instruction template and a set of callable tools.
type defaultAgent struct {
	name              string
	model             api.Model
	instructions      string
	tools             []tool.Definition
	parallelToolCalls bool
}

func (a *defaultAgent) Name() string {
	return a.name
}

func (a *defaultAgent) Model() api.Model {
	return a.model
}

func (a *defaultAgent) Tools() []tool.Definition {
	return a.tools
}

func (a *defaultAgent) Instructions() string {
	return a.instructions
}

func (a *defaultAgent) ParallelToolCalls() bool {
	return a.parallelToolCalls
}

// RenderInstructions expands the instruction template with the provided
// context variables. Instructions without template actions are returned
// verbatim.
func (a *defaultAgent) RenderInstructions(cv types.ContextVars) (string, error) {
	if !strings.Contains(a.instructions, "{{") {
		return a.instructions, nil
	}
	return renderTemplate("instructions", a.instructions, cv)
}

func renderTemplate(name, templateStr string, cv types.ContextVars) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, cv); err != nil {
		return "", err
	}

	return buf.String(), nil
}

var (
	Name              = opts.ForName[defaultAgent, string]("name")
	Model             = opts.ForName[defaultAgent, api.Model]("model")
	Instructions      = opts.ForName[defaultAgent, string]("instructions")
	ParallelToolCalls = opts.ForName[defaultAgent, bool]("parallelToolCalls")
)

func Tools(tool tool.Definition, extraTools ...tool.Definition) opts.Option[defaultAgent] {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.tools = append(o.tools, tool)
		o.tools = append(o.tools, extraTools...)
		return nil
	})
}

// New builds an agent from the provided options. Unless overridden the agent
// runs on GPT-4o-mini with parallel tool calls enabled.
func New(options ...opts.Option[defaultAgent]) api.Agent {
	agent := &defaultAgent{
		model:             openai.GPT4oMini(),
		parallelToolCalls: true,
	}
	if err := opts.Apply(agent, options); err != nil {
		panic(err)
	}
	return agent
}
