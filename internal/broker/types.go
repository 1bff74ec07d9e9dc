package broker

import (
	"context"

	"github.com/agora-dev/symposium/events"
)

// Broker hands out topics, one per run, over which execution events are
// published to subscribed hooks.
type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}
