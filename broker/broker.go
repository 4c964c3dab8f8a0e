// Package broker defines the publish/subscribe abstraction behind a cachecast Client.
package broker

import (
	"context"
	"errors"
)

// ErrClosed is returned by Publish/Subscribe on a closed broker.
var ErrClosed = errors.New("broker: closed")

// Message is one payload received on a channel.
type Message struct {
	Channel string
	Payload []byte
}

// Stream is a live registration on one channel.
// C delivers messages in the order the transport received them and is closed
// once the stream ends (Close, broker Close, or transport loss).
type Stream interface {
	C() <-chan Message
	Close() error
}

// Broker must be safe for concurrent use.
type Broker interface {
	// Publish returns the number of subscribers that received payload.
	// Zero receivers is not an error.
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)

	// Subscribe returns once the registration is active: anything published
	// after Subscribe returns is delivered on the stream. No history is replayed.
	Subscribe(ctx context.Context, channel string) (Stream, error)

	// Close ends all streams and releases resources.
	Close(ctx context.Context) error
}
