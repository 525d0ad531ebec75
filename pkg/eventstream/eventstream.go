package eventstream

import "context"

// SyncStreamer is a generic fan-out channel for real-time events. Topics let
// subscribers filter at the source (e.g. one board out of many); payloads are
// delivered in publish order per subscriber.
type SyncStreamer[Topic any, Payload any] interface {
	// Subscribe returns a read-only channel of events matching the filter.
	// The channel is closed when the context is cancelled or the streamer
	// shuts down. A nil filter matches everything.
	Subscribe(ctx context.Context, filter TopicFilter[Topic]) (<-chan Event[Topic, Payload], error)

	// Publish sends payloads to all active subscribers whose filter
	// matches. Non-blocking: events are dropped for subscribers whose
	// buffer is full rather than stalling the publisher.
	Publish(topic Topic, payloads ...Payload)

	// Shutdown closes all subscriber channels and rejects new subscribers.
	Shutdown()
}

// TopicFilter selects which topics a subscriber receives.
type TopicFilter[Topic any] func(Topic) bool

// Event pairs a payload with the topic it was published under.
type Event[Topic any, Payload any] struct {
	Topic   Topic
	Payload Payload
}
