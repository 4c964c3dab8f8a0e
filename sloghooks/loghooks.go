package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cachecast"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	NoListenersEvery uint64
	// Optional key redactor. Defaults to a SHA-256 prefix. Channels are not redacted.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	noListenersCtr atomic.Uint64
}

var _ cachecast.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) PublishNoListeners(channel string) {
	if h.l == nil || !sample(h.opts.NoListenersEvery, &h.noListenersCtr) {
		return
	}
	h.l.Debug("cachecast.publish_no_listeners",
		"channel", channel)
}

func (h *Hooks) PartialSetAndPublish(channel, key string, writeErr, publishErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("cachecast.partial_set_and_publish",
		"channel", channel,
		"key", h.redact(key),
		"write_err", writeErr,
		"publish_err", publishErr)
}

func (h *Hooks) HandlerPanic(channel string, recovered any) {
	if h.l == nil {
		return
	}
	h.l.Error("cachecast.handler_panic",
		"channel", channel,
		"panic", recovered)
}

func (h *Hooks) SubscriptionLost(channel string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachecast.subscription_lost",
		"channel", channel)
}

func (h *Hooks) StoreSetRejected(key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachecast.store_set_rejected",
		"key", h.redact(key))
}
