package agent

import (
	"github.com/agora-dev/symposium/api"
	"github.com/agora-dev/symposium/internal/registry"
)

// Global holds every agent registered in this process. Handoffs between
// agents resolve their targets here by name.
var Global = registry.New[api.Agent]()

func Add(agent api.Agent) {
	Global.Add(agent.Name(), agent)
}

func Get(name string) (api.Agent, bool) {
	return Global.Get(name)
}

func Del(name string) {
	Global.Del(name)
}
