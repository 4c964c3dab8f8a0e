package cachecast

import (
	"context"
	"time"

	"github.com/unkn0wn-root/cachecast/broker"
	"github.com/unkn0wn-root/cachecast/store"
)

// Client stores and retrieves values and publishes/subscribes on named channels
// against one store endpoint. Safe for concurrent use.
type Client interface {
	// Subscribe registers h for every message published on channel after
	// Subscribe returns. ctx bounds the registration only.
	Subscribe(ctx context.Context, channel string, h Handler) (*Subscription, error)

	// Publish returns the number of subscribers that received payload (0 is fine).
	Publish(ctx context.Context, channel, payload string) (int64, error)

	// Set stores value under key. ttl <= 0 keeps it until overwritten or evicted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ("", false, nil) for a missing or expired key.
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error

	// SetAndPublish writes value under key and publishes it on channel
	// concurrently. Both are always attempted; neither is rolled back.
	SetAndPublish(ctx context.Context, channel, key, value string, ttl time.Duration) error

	// Close ends all subscriptions and releases the connection. Idempotent.
	Close(ctx context.Context) error
}

// Options tune a Client. Store and Broker are required for New and ignored by
// Connect, which builds both from the URI; others have sensible defaults.
type Options struct {
	Store  store.Store
	Broker broker.Broker

	Logger    Logger        // if nil, NopLogger is used
	Hooks     Hooks         // if nil, NopHooks is used
	Namespace string        // optional "<ns>:" prefix for keys and channels
	Timeout   time.Duration // per-call deadline; 0 => caller's ctx only

	// Connect only.
	DialTimeout       time.Duration // eager ping on connect; 0 => 5s
	Protocol          int           // RESP version; 0 => go-redis default
	Tracing           bool          // instrument the redis client with OpenTelemetry
	SubscriptionQueue int           // per-subscription buffer; 0 => 100
}

// New builds a Client over caller-supplied Store and Broker. The Client takes
// ownership of both and closes them on Close.
func New(opts Options) (Client, error) {
	c, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}
