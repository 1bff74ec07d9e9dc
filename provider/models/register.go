// Package models keeps a process-wide registry of the models known to the
// application, so that serialized commands can be rehydrated by model name.
package models

import (
	"github.com/agora-dev/symposium/api"
	"github.com/agora-dev/symposium/internal/registry"
)

var Global = registry.New[api.Model]()

func Add(model api.Model) {
	Global.Add(model.Name(), model)
}

func Get(name string) (api.Model, bool) {
	return Global.Get(name)
}

func GetOrAdd(name string, modelF func() api.Model) api.Model {
	m, _ := Global.GetOrAdd(name, modelF)
	return m
}

func Del(name string) {
	Global.Del(name)
}
