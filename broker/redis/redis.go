package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachecast/broker"
)

var ErrNilClient = errors.New("redis broker: nil client")

const defaultChannelSize = 100

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	chanSize    int
}

var _ broker.Broker = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this broker exclusively owns the client
	ChannelSize int  // per-subscription buffer; 0 => 100
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	size := cfg.ChannelSize
	if size <= 0 {
		size = defaultChannelSize
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, chanSize: size}, nil
}

func (b *Redis) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	return b.rdb.Publish(ctx, channel, payload).Result()
}

// Subscribe issues SUBSCRIBE and blocks until the server confirms it, so the
// registration is live when Subscribe returns.
func (b *Redis) Subscribe(ctx context.Context, channel string) (broker.Stream, error) {
	ps := b.rdb.Subscribe(ctx, channel)
	msg, err := ps.Receive(ctx)
	if err != nil {
		_ = ps.Close()
		return nil, err
	}
	if sub, ok := msg.(*goredis.Subscription); !ok || sub.Kind != "subscribe" {
		_ = ps.Close()
		return nil, fmt.Errorf("redis broker: unexpected subscribe reply %T", msg)
	}

	s := &stream{
		ps:   ps,
		out:  make(chan broker.Message, b.chanSize),
		done: make(chan struct{}),
	}
	in := ps.Channel(goredis.WithChannelSize(b.chanSize))
	go s.forward(in)
	return s, nil
}

// Close releases the underlying redis client only when this broker owns it.
// Streams are owned by their subscribers and closed through them.
func (b *Redis) Close(context.Context) error {
	if b.closeClient {
		if err := b.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

type stream struct {
	ps   *goredis.PubSub
	out  chan broker.Message
	done chan struct{}
	once sync.Once
}

func (s *stream) C() <-chan broker.Message { return s.out }

func (s *stream) forward(in <-chan *goredis.Message) {
	defer close(s.out)
	for {
		select {
		case m, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.out <- broker.Message{Channel: m.Channel, Payload: []byte(m.Payload)}:
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
