package cachecast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cachecast/broker"
)

// Message is one payload received on a subscribed channel.
// Channel is the caller-facing name (namespace stripped).
type Message struct {
	Channel string
	Payload string
}

// Handler is invoked for each message on a subscription. Calls for one
// subscription are sequential and in transport receive order; handlers of
// different subscriptions run concurrently. ctx is cancelled on Unsubscribe.
type Handler func(ctx context.Context, msg Message)

// Subscription is a live (channel, Handler) registration. It ends on
// Unsubscribe, on Client.Close, or when the transport closes the stream.
type Subscription struct {
	c       *client
	channel string
	stream  broker.Stream
	h       Handler

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	stopped atomic.Bool
	once    sync.Once
	err     error
}

func newSubscription(c *client, channel string, st broker.Stream, h Handler) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscription{
		c:       c,
		channel: channel,
		stream:  st,
		h:       h,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (s *Subscription) Channel() string { return s.channel }

// Done is closed once the delivery goroutine has exited and no handler call
// is in flight.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Unsubscribe stops delivery. Messages already queued but not yet handed to the
// handler are discarded. Safe to call more than once and from inside the
// handler; it does not wait for an in-flight handler call (use Done for that).
func (s *Subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.stopped.Store(true)
		s.cancel()
		s.err = s.stream.Close()
		s.c.forget(s)
	})
	return s.err
}

func (s *Subscription) start() {
	go s.deliver()
}

func (s *Subscription) deliver() {
	defer close(s.done)
	for m := range s.stream.C() {
		if s.stopped.Load() {
			continue // drain until the stream closes
		}
		s.invoke(Message{
			Channel: s.c.ns.Strip(m.Channel),
			Payload: string(m.Payload),
		})
	}
	if !s.stopped.Load() {
		s.c.log.Warn("subscription stream ended", Fields{"channel": s.channel, "addr": s.c.addr})
		s.c.hooks.SubscriptionLost(s.channel)
		s.cancel()
		s.c.forget(s)
	}
}

func (s *Subscription) invoke(m Message) {
	defer func() {
		if r := recover(); r != nil {
			s.c.log.Error("subscription handler panicked", Fields{"channel": s.channel, "panic": r})
			s.c.hooks.HandlerPanic(s.channel, r)
		}
	}()
	s.h(s.ctx, m)
}
