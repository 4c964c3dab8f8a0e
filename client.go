package cachecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachecast/broker"
	"github.com/unkn0wn-root/cachecast/internal/keys"
	"github.com/unkn0wn-root/cachecast/store"
)

type client struct {
	store   store.Store
	broker  broker.Broker
	log     Logger
	hooks   Hooks
	ns      keys.Space
	timeout time.Duration
	addr    string // for logs and ConnectionError; empty for New

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	subMu sync.Mutex
	subs  map[*Subscription]struct{}
}

var _ Client = (*client)(nil)

func newClient(opts Options) (*client, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("cachecast: store is required")
	}
	if opts.Broker == nil {
		return nil, fmt.Errorf("cachecast: broker is required")
	}
	return &client{
		store:   opts.Store,
		broker:  opts.Broker,
		log:     coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:   coalesce[Hooks](opts.Hooks, NopHooks{}),
		ns:      keys.New(opts.Namespace),
		timeout: opts.Timeout,
		subs:    make(map[*Subscription]struct{}),
	}, nil
}

// callCtx applies the per-call timeout, if configured.
func (c *client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

func (c *client) checkOpen(op string) error {
	if c.closed.Load() {
		return &ConnectionError{Op: op, Addr: c.addr, Err: ErrClosed}
	}
	return nil
}

// closedErr reports a transport failure caused by Close racing an in-flight
// call as a *ConnectionError wrapping ErrClosed (and the transport's own error).
// It returns nil for any other error.
func (c *client) closedErr(op string, err error) error {
	if errors.Is(err, goredis.ErrClosed) || errors.Is(err, broker.ErrClosed) {
		return &ConnectionError{Op: op, Addr: c.addr, Err: errors.Join(ErrClosed, err)}
	}
	return nil
}

func (c *client) Publish(ctx context.Context, channel, payload string) (int64, error) {
	return c.publish(ctx, channel, []byte(payload))
}

func (c *client) publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	if err := c.checkOpen("publish"); err != nil {
		return 0, err
	}
	if channel == "" {
		return 0, ErrEmptyChannel
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	c.log.Debug("publishing message", Fields{"channel": channel, "bytes": len(payload), "addr": c.addr})
	n, err := c.broker.Publish(ctx, c.ns.Key(channel), payload)
	if err != nil {
		if cerr := c.closedErr("publish", err); cerr != nil {
			return 0, cerr
		}
		c.log.Error("publish failed", Fields{"channel": channel, "addr": c.addr, "err": err})
		return 0, &PublishError{Channel: channel, Err: err}
	}
	if n == 0 {
		c.hooks.PublishNoListeners(channel)
	}
	c.log.Info("published message", Fields{"channel": channel, "receivers": n})
	return n, nil
}

func (c *client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.set(ctx, key, []byte(value), ttl)
}

func (c *client) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.checkOpen("set"); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	c.log.Debug("writing key", Fields{"key": key, "bytes": len(value), "ttl": ttl})
	if err := c.store.Set(ctx, c.ns.Key(key), value, ttl); err != nil {
		if cerr := c.closedErr("set", err); cerr != nil {
			return cerr
		}
		if errors.Is(err, store.ErrRejected) {
			c.hooks.StoreSetRejected(key)
		}
		c.log.Error("write failed", Fields{"key": key, "addr": c.addr, "err": err})
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

func (c *client) Get(ctx context.Context, key string) (string, bool, error) {
	b, ok, err := c.get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(b), true, nil
}

func (c *client) get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := c.checkOpen("get"); err != nil {
		return nil, false, err
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	b, ok, err := c.store.Get(ctx, c.ns.Key(key))
	if err != nil {
		if cerr := c.closedErr("get", err); cerr != nil {
			return nil, false, cerr
		}
		c.log.Error("read failed", Fields{"key": key, "addr": c.addr, "err": err})
		return nil, false, &ReadError{Key: key, Err: err}
	}
	c.log.Debug("read key", Fields{"key": key, "hit": ok})
	return b, ok, nil
}

func (c *client) Delete(ctx context.Context, key string) error {
	if err := c.checkOpen("delete"); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	if err := c.store.Del(ctx, c.ns.Key(key)); err != nil {
		if cerr := c.closedErr("delete", err); cerr != nil {
			return cerr
		}
		c.log.Error("delete failed", Fields{"key": key, "addr": c.addr, "err": err})
		return &WriteError{Key: key, Err: err}
	}
	c.log.Debug("deleted key", Fields{"key": key})
	return nil
}

func (c *client) SetAndPublish(ctx context.Context, channel, key, value string, ttl time.Duration) error {
	return c.setAndPublish(ctx, channel, key, []byte(value), ttl)
}

// setAndPublish runs both sides on their own goroutines and always waits for
// both. A failing side never cancels the other.
func (c *client) setAndPublish(ctx context.Context, channel, key string, value []byte, ttl time.Duration) error {
	if err := c.checkOpen("set_and_publish"); err != nil {
		return err
	}
	if channel == "" {
		return ErrEmptyChannel
	}
	if key == "" {
		return ErrEmptyKey
	}

	var (
		wg                   sync.WaitGroup
		writeErr, publishErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		writeErr = c.set(ctx, key, value, ttl)
	}()
	go func() {
		defer wg.Done()
		_, publishErr = c.publish(ctx, channel, value)
	}()
	wg.Wait()

	if writeErr == nil && publishErr == nil {
		return nil
	}
	agg := &AggregateError{Channel: channel, Key: key, WriteErr: writeErr, PublishErr: publishErr}
	if agg.Partial() {
		c.hooks.PartialSetAndPublish(channel, key, writeErr, publishErr)
	}
	c.log.Error("set and publish failed", Fields{
		"channel":     channel,
		"key":         key,
		"write_err":   writeErr,
		"publish_err": publishErr,
	})
	return agg
}

func (c *client) Subscribe(ctx context.Context, channel string, h Handler) (*Subscription, error) {
	if err := c.checkOpen("subscribe"); err != nil {
		return nil, err
	}
	if channel == "" {
		return nil, ErrEmptyChannel
	}
	if h == nil {
		return nil, ErrNilHandler
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	c.log.Debug("subscribing", Fields{"channel": channel, "addr": c.addr})
	st, err := c.broker.Subscribe(ctx, c.ns.Key(channel))
	if err != nil {
		if cerr := c.closedErr("subscribe", err); cerr != nil {
			return nil, cerr
		}
		c.log.Error("subscribe failed", Fields{"channel": channel, "addr": c.addr, "err": err})
		return nil, &ConnectionError{Op: "subscribe", Addr: c.addr, Err: err}
	}

	sub := newSubscription(c, channel, st, h)
	c.subMu.Lock()
	if c.closed.Load() {
		// lost a race with Close
		c.subMu.Unlock()
		_ = st.Close()
		return nil, &ConnectionError{Op: "subscribe", Addr: c.addr, Err: ErrClosed}
	}
	c.subs[sub] = struct{}{}
	c.subMu.Unlock()

	sub.start()
	c.log.Info("subscribed", Fields{"channel": channel})
	return sub, nil
}

func (c *client) forget(s *Subscription) {
	c.subMu.Lock()
	delete(c.subs, s)
	c.subMu.Unlock()
}

func (c *client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.subMu.Lock()
		c.closed.Store(true)
		subs := make([]*Subscription, 0, len(c.subs))
		for s := range c.subs {
			subs = append(subs, s)
		}
		c.subMu.Unlock()

		var errs []error
		for _, s := range subs {
			if err := s.Unsubscribe(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := c.broker.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := c.store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		c.closeErr = errors.Join(errs...)
		c.log.Debug("client closed", Fields{"addr": c.addr, "subscriptions": len(subs)})
	})
	return c.closeErr
}
