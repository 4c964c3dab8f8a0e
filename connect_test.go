package cachecast

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func connectT(t *testing.T, uri string, opts Options) Client {
	t.Helper()
	if opts.Protocol == 0 {
		opts.Protocol = 2
	}
	c, err := Connect(context.Background(), uri, opts)
	if err != nil {
		t.Fatalf("Connect(%q): %v", uri, err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestConnectURIForms(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	for _, uri := range []string{s.Addr(), "redis://" + s.Addr() + "/0"} {
		c := connectT(t, uri, Options{})
		if err := c.Set(ctx, "k", uri, 0); err != nil {
			t.Fatalf("%s Set: %v", uri, err)
		}
		got, ok, err := c.Get(ctx, "k")
		if err != nil || !ok || got != uri {
			t.Fatalf("%s Get: got=%q ok=%v err=%v", uri, got, ok, err)
		}
	}
}

func TestConnectWithPassword(t *testing.T) {
	s := miniredis.RunT(t)
	s.RequireAuth("s3cret")

	connectT(t, "redis://:s3cret@"+s.Addr()+"/0", Options{})

	_, err := Connect(context.Background(), "redis://:wrong@"+s.Addr()+"/0", Options{Protocol: 2})
	var ce *ConnectionError
	if !errors.As(err, &ce) || ce.Op != "connect" {
		t.Fatalf("bad password: want *ConnectionError, got %v", err)
	}
}

func TestConnectFailsFast(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close() // nothing listens on addr any more

	start := time.Now()
	_, err := Connect(context.Background(), addr, Options{DialTimeout: time.Second})
	var ce *ConnectionError
	if !errors.As(err, &ce) || ce.Op != "connect" || ce.Addr != addr {
		t.Fatalf("want *ConnectionError for %s, got %v", addr, err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("connect did not respect DialTimeout")
	}
}

func TestConnectRejectsMalformedURI(t *testing.T) {
	for _, uri := range []string{"", "   ", "http://example.com"} {
		_, err := Connect(context.Background(), uri, Options{})
		var ce *ConnectionError
		if !errors.As(err, &ce) {
			t.Fatalf("%q: want *ConnectionError, got %v", uri, err)
		}
	}
}

func TestConnectErrorRedactsCredentials(t *testing.T) {
	_, err := Connect(context.Background(), "bogus://user:pw@host:1", Options{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "pw") {
		t.Fatalf("credentials leaked: %v", err)
	}
}

func TestRedisTTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()
	c := connectT(t, s.Addr(), Options{})

	if err := c.Set(ctx, "session", "abc", 2*time.Second); err != nil {
		t.Fatal(err)
	}
	if ttl := s.TTL("session"); ttl != 2*time.Second {
		t.Fatalf("server TTL=%v want 2s", ttl)
	}
	s.FastForward(3 * time.Second)
	if _, ok, err := c.Get(ctx, "session"); err != nil || ok {
		t.Fatalf("expired key: ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "forever", "v", 0); err != nil {
		t.Fatal(err)
	}
	if ttl := s.TTL("forever"); ttl != 0 {
		t.Fatalf("ttl=0 should persist, server TTL=%v", ttl)
	}
}

func TestRedisPubSubAndSetAndPublish(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()
	c := connectT(t, s.Addr(), Options{Namespace: "app"})

	n, err := c.Publish(ctx, "quotes", "nobody")
	if err != nil || n != 0 {
		t.Fatalf("publish without subscribers: n=%d err=%v", n, err)
	}

	got := make(chan Message, 4)
	sub, err := c.Subscribe(ctx, "quotes", func(_ context.Context, m Message) { got <- m })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := c.SetAndPublish(ctx, "quotes", "quote:eur", "1.08", time.Minute); err != nil {
		t.Fatalf("SetAndPublish: %v", err)
	}
	m := recv(t, got)
	if m.Channel != "quotes" || m.Payload != "1.08" {
		t.Fatalf("unexpected message %+v", m)
	}
	if v, err := s.Get("app:quote:eur"); err != nil || v != "1.08" {
		t.Fatalf("server value=%q err=%v", v, err)
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription did not stop")
	}
}

func TestRedisServerLossSurfacesTypedErrors(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()
	c := connectT(t, s.Addr(), Options{Timeout: time.Second})
	s.Close()

	if err := c.Set(ctx, "k", "v", 0); err == nil {
		t.Fatalf("expected write error")
	} else {
		var we *WriteError
		if !errors.As(err, &we) {
			t.Fatalf("want *WriteError, got %T %v", err, err)
		}
	}
	_, _, err := c.Get(ctx, "k")
	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("want *ReadError, got %T %v", err, err)
	}
}

func TestConnectCloseThenUse(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()
	c, err := Connect(ctx, s.Addr(), Options{Protocol: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err = c.Publish(ctx, "c", "m")
	var ce *ConnectionError
	if !errors.As(err, &ce) || !errors.Is(err, ErrClosed) || ce.Addr != s.Addr() {
		t.Fatalf("want *ConnectionError(ErrClosed) with addr, got %v", err)
	}
}
