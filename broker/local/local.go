// Package local is an in-process broker.Broker. Messages never leave the process;
// pair it with store/ristretto or store/bigcache for a Redis-free Client.
package local

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/cachecast/broker"
)

const defaultBuffer = 64

type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[*stream]struct{}
	buf    int
	closed bool
}

var _ broker.Broker = (*Broker)(nil)

// New returns a broker whose streams buffer up to buffer messages each
// (0 => 64). Publish blocks on a full buffer until ctx is done.
func New(buffer int) *Broker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker{subs: make(map[string]map[*stream]struct{}), buf: buffer}
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return 0, broker.ErrClosed
	}
	targets := make([]*stream, 0, len(b.subs[channel]))
	for s := range b.subs[channel] {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	var n int64
	for _, s := range targets {
		p := make([]byte, len(payload))
		copy(p, payload)
		ok, err := s.send(ctx, broker.Message{Channel: channel, Payload: p})
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (broker.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, broker.ErrClosed
	}
	s := &stream{
		b:       b,
		channel: channel,
		out:     make(chan broker.Message, b.buf),
		done:    make(chan struct{}),
	}
	set := b.subs[channel]
	if set == nil {
		set = make(map[*stream]struct{})
		b.subs[channel] = set
	}
	set[s] = struct{}{}
	return s, nil
}

func (b *Broker) Close(context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[string]map[*stream]struct{})
	b.mu.Unlock()

	for _, set := range subs {
		for s := range set {
			s.end()
		}
	}
	return nil
}

func (b *Broker) remove(s *stream) {
	b.mu.Lock()
	if set, ok := b.subs[s.channel]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, s.channel)
		}
	}
	b.mu.Unlock()
}

type stream struct {
	b       *Broker
	channel string

	// mu guards out against a close racing a send.
	mu   sync.RWMutex
	out  chan broker.Message
	done chan struct{}
	once sync.Once
}

func (s *stream) C() <-chan broker.Message { return s.out }

// send reports ok=false when the stream ended before the message was queued.
func (s *stream) send(ctx context.Context, m broker.Message) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	select {
	case <-s.done:
		return false, nil
	default:
	}
	select {
	case s.out <- m:
		return true, nil
	case <-s.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *stream) end() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		close(s.out)
		s.mu.Unlock()
	})
}

func (s *stream) Close() error {
	s.end()
	s.b.remove(s)
	return nil
}
