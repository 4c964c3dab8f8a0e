package cachecast

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking: Publish and the subscription
// delivery loop call them inline. Wrap slow sinks with hooks/async.
type Hooks interface {
	// Publish succeeded but no subscriber was listening on channel.
	PublishNoListeners(channel string)

	// SetAndPublish had exactly one side fail. The side that succeeded is not
	// rolled back; one of writeErr/publishErr is nil.
	PartialSetAndPublish(channel, key string, writeErr, publishErr error)

	// A subscription handler panicked. Delivery continues with the next message.
	HandlerPanic(channel string, recovered any)

	// A subscription stream ended without Unsubscribe or Close
	// (transport closed the connection).
	SubscriptionLost(channel string)

	// The store refused a write (memory pressure / admission policy).
	StoreSetRejected(key string)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) PublishNoListeners(string)                         {}
func (NopHooks) PartialSetAndPublish(string, string, error, error) {}
func (NopHooks) HandlerPanic(string, any)                          {}
func (NopHooks) SubscriptionLost(string)                           {}
func (NopHooks) StoreSetRejected(string)                           {}
