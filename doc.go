// Package cachecast is a thin client for a shared key/value store that is also
// a publish/subscribe broker (Redis, or in-process backends for tests and
// single-process deployments).
//
// Components:
//   - Client: string-level Get/Set/Delete, Publish/Subscribe and SetAndPublish.
//   - Typed[V]: the same operations for structured values through a codec.Codec[V].
//   - store.Store: byte store with TTL (Redis, Ristretto, BigCache).
//   - broker.Broker: channel transport (Redis pub/sub, or broker/local).
//
// Connect builds both halves from one Redis URI and pings it before returning:
//
//	c, err := cachecast.Connect(ctx, "redis://localhost:6379/0", cachecast.Options{})
//	sub, err := c.Subscribe(ctx, "prices", func(ctx context.Context, m cachecast.Message) { ... })
//	err = c.SetAndPublish(ctx, "prices", "price:eur", "1.08", time.Minute)
//
// SetAndPublish runs the write and the publish concurrently and waits for both.
// When either fails it returns an *AggregateError naming which side failed;
// the side that succeeded is not rolled back.
package cachecast
