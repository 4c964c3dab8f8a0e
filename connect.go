package cachecast

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	goredis "github.com/redis/go-redis/v9"

	redisbroker "github.com/unkn0wn-root/cachecast/broker/redis"
	redisstore "github.com/unkn0wn-root/cachecast/store/redis"
)

const defaultDialTimeout = 5 * time.Second

// Connect opens a Redis connection and pings it before returning, so an
// unreachable endpoint fails here rather than on first use.
//
// uri is either a URL understood by go-redis (redis://[user:pass@]host:port/db,
// rediss://..., unix://...) or a bare host:port. Store and Broker in opts are
// ignored; the returned Client owns the connection and releases it on Close.
func Connect(ctx context.Context, uri string, opts Options) (Client, error) {
	ro, err := parseURI(uri)
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Addr: redact(uri), Err: err}
	}
	if opts.Protocol != 0 {
		ro.Protocol = opts.Protocol
	}
	addr := ro.Addr
	log := coalesce[Logger](opts.Logger, NopLogger{})

	rdb := goredis.NewClient(ro)
	if opts.Tracing {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			_ = rdb.Close()
			return nil, &ConnectionError{Op: "connect", Addr: addr, Err: err}
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, coalesce(opts.DialTimeout, defaultDialTimeout))
	defer cancel()
	log.Debug("connecting to redis", Fields{"addr": addr, "db": ro.DB})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		log.Error("redis unreachable", Fields{"addr": addr, "err": err})
		return nil, &ConnectionError{Op: "connect", Addr: addr, Err: err}
	}

	// The store owns the shared client; the broker only borrows it.
	st, err := redisstore.New(redisstore.Config{Client: rdb, CloseClient: true})
	if err != nil {
		_ = rdb.Close()
		return nil, &ConnectionError{Op: "connect", Addr: addr, Err: err}
	}
	br, err := redisbroker.New(redisbroker.Config{Client: rdb, ChannelSize: opts.SubscriptionQueue})
	if err != nil {
		_ = rdb.Close()
		return nil, &ConnectionError{Op: "connect", Addr: addr, Err: err}
	}

	opts.Store = st
	opts.Broker = br
	c, err := newClient(opts)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	c.addr = addr
	log.Info("connected to redis", Fields{"addr": addr})
	return c, nil
}

var errEmptyURI = errors.New("empty connection uri")

func parseURI(uri string) (*goredis.Options, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errEmptyURI
	}
	if strings.Contains(uri, "://") {
		return goredis.ParseURL(uri)
	}
	return &goredis.Options{Addr: uri}, nil
}

// redact drops credentials from a URI before it lands in an error message.
func redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	return scheme + "://" + rest
}
