package symposium

import (
	"fmt"

	"github.com/agora-dev/symposium/messages"
)

type task interface {
	task()
}

type stringTask string

func (s stringTask) task() {}

type messageTask messages.Message[messages.UserMessage]

func (m messageTask) task() {}

// Task constrains the prompt types a conversation step accepts: a plain
// string or a prepared user message.
type Task interface {
	~string | messages.Message[messages.UserMessage]
}

// ConversationStep pairs an agent with the prompt it should work on.
type ConversationStep struct {
	agentName string
	task      task
}

// Step creates a conversation step for the named agent.
func Step[T Task](agentName string, tsk T) ConversationStep {
	var t task
	switch xt := any(tsk).(type) {
	case string:
		t = stringTask(xt)
	case messages.Message[messages.UserMessage]:
		t = messageTask(xt)
	default:
		panic(fmt.Sprintf("invalid task type: %T", xt))
	}
	return ConversationStep{
		agentName: agentName,
		task:      t,
	}
}
