package cachecast

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/cachecast/codec"
)

// Typed is a structured-value view over a Client. Values are encoded once with
// the codec; the same bytes are stored and published.
type Typed[V any] struct {
	c     Client
	codec codec.Codec[V]
}

// TypedHandler receives decoded messages. When decoding fails, v is the zero
// value and err is a *DeserializationError carrying the channel.
type TypedHandler[V any] func(ctx context.Context, channel string, v V, err error)

// NewTyped wraps c. A nil codec selects codec.JSON[V].
func NewTyped[V any](c Client, cd codec.Codec[V]) *Typed[V] {
	if cd == nil {
		cd = codec.JSON[V]{}
	}
	return &Typed[V]{c: c, codec: cd}
}

func (t *Typed[V]) Client() Client { return t.c }

// Get distinguishes a miss (zero, false, nil) from a stored payload that does
// not decode as V (*DeserializationError).
func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, ok, err := t.c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := t.codec.Decode([]byte(raw))
	if err != nil {
		return zero, false, &DeserializationError{Key: key, Err: err}
	}
	return v, true, nil
}

func (t *Typed[V]) Set(ctx context.Context, key string, v V, ttl time.Duration) error {
	b, err := t.encode(v)
	if err != nil {
		return err
	}
	return t.c.Set(ctx, key, string(b), ttl)
}

func (t *Typed[V]) Publish(ctx context.Context, channel string, v V) (int64, error) {
	b, err := t.encode(v)
	if err != nil {
		return 0, err
	}
	return t.c.Publish(ctx, channel, string(b))
}

func (t *Typed[V]) SetAndPublish(ctx context.Context, channel, key string, v V, ttl time.Duration) error {
	b, err := t.encode(v)
	if err != nil {
		return err
	}
	return t.c.SetAndPublish(ctx, channel, key, string(b), ttl)
}

func (t *Typed[V]) Subscribe(ctx context.Context, channel string, h TypedHandler[V]) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return t.c.Subscribe(ctx, channel, func(ctx context.Context, m Message) {
		v, err := t.codec.Decode([]byte(m.Payload))
		if err != nil {
			var zero V
			h(ctx, m.Channel, zero, &DeserializationError{Channel: m.Channel, Err: err})
			return
		}
		h(ctx, m.Channel, v, nil)
	})
}

func (t *Typed[V]) encode(v V) ([]byte, error) {
	b, err := t.codec.Encode(v)
	if err != nil {
		return nil, &SerializationError{Err: fmt.Errorf("%T: %w", v, err)}
	}
	return b, nil
}
