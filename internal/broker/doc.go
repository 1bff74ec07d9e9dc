// Package broker implements topic-based pub/sub distribution of execution
// events. Every run gets its own topic; hooks subscribe to a topic and
// receive the run's events through their callbacks.
//
// Two implementations are provided: Local, an in-process broker backed by a
// concurrent map, and NATS, which carries the serialized events over a NATS
// connection so hooks in other processes observe the same run. Both share the
// same dispatch logic, so a hook behaves identically regardless of transport.
//
// Subscriptions have an explicit lifecycle: Subscribe returns a Subscription
// whose Unsubscribe must be called to stop delivery. The local broker drops
// subscribers that fail to drain their channel within the slow-subscriber
// timeout.
package broker
