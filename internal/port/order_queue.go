package port

import (
	"context"

	"github.com/swiftkart/dispatch/internal/core/domain"
)

// Message is one leased order intent delivered from the queue. Body is the
// raw payload as produced by intake; Attempt counts prior deliveries.
type Message struct {
	Body    []byte
	Attempt int

	// Receipt is adapter-private lease state, threaded back through Ack and
	// Requeue untouched.
	Receipt any
}

// OrderQueue is the at-least-once delivery channel feeding the fulfillment
// workers. A received message stays leased until it is either acked (removed
// permanently) or requeued (made available for a later delivery).
type OrderQueue interface {
	// Receive blocks until a message is available or ctx is done.
	Receive(ctx context.Context) (*Message, error)

	// Ack removes the message from the queue permanently.
	Ack(ctx context.Context, msg *Message) error

	// Requeue releases the message for a later redelivery.
	Requeue(ctx context.Context, msg *Message) error

	Close() error
}

// OrderPublisher enqueues new intents for the fulfillment workers.
type OrderPublisher interface {
	Publish(ctx context.Context, intent domain.OrderIntent) error
}
