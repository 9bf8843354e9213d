// Package pubsub carries chain log envelopes between the feeder and the indexer.
package pubsub

import "context"

// MessageHandler is invoked once per delivered message, one message at a time.
type MessageHandler func(ctx context.Context, data []byte)

type Subscription interface {
	Unsubscribe() error
}

type Subscriber interface {
	// Subscribe joins queue when non-empty so several instances share a subject.
	Subscribe(ctx context.Context, subject, queue string, h MessageHandler) (Subscription, error)
	Health(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}
