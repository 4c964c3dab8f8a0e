package cachecast

import (
	"errors"
	"strings"
	"testing"
)

func TestAggregateErrorUnwrapsBothSides(t *testing.T) {
	w := &WriteError{Key: "k", Err: errors.New("w")}
	p := &PublishError{Channel: "c", Err: errors.New("p")}
	agg := &AggregateError{Channel: "c", Key: "k", WriteErr: w, PublishErr: p}

	var we *WriteError
	var pe *PublishError
	if !errors.As(agg, &we) || !errors.As(agg, &pe) {
		t.Fatalf("errors.As should reach both sides")
	}
	if agg.Partial() {
		t.Fatalf("both failed: not partial")
	}
	if msg := agg.Error(); !strings.Contains(msg, "write=") || !strings.Contains(msg, "publish=") {
		t.Fatalf("message should name both sides: %s", msg)
	}
}

func TestAggregateErrorMessages(t *testing.T) {
	cases := []struct {
		agg  *AggregateError
		want string
	}{
		{&AggregateError{Channel: "c", Key: "k", WriteErr: errors.New("x")}, "publish to \"c\" succeeded"},
		{&AggregateError{Channel: "c", Key: "k", PublishErr: errors.New("x")}, "set \"k\" succeeded"},
	}
	for _, tc := range cases {
		if !tc.agg.Partial() {
			t.Fatalf("expected partial: %+v", tc.agg)
		}
		if got := tc.agg.Error(); !strings.Contains(got, tc.want) {
			t.Fatalf("Error()=%q want substring %q", got, tc.want)
		}
		if n := len(tc.agg.Unwrap()); n != 1 {
			t.Fatalf("Unwrap len=%d", n)
		}
	}
}

func TestConnectionErrorKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(&ConnectionError{Op: "connect", Addr: "localhost:6379", Err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost")
	}
	if !strings.Contains(err.Error(), "localhost:6379") {
		t.Fatalf("addr missing: %s", err)
	}
}

func TestDeserializationErrorNamesSource(t *testing.T) {
	k := (&DeserializationError{Key: "user:1", Err: errors.New("bad")}).Error()
	c := (&DeserializationError{Channel: "events", Err: errors.New("bad")}).Error()
	if !strings.Contains(k, `"user:1"`) || !strings.Contains(c, `on "events"`) {
		t.Fatalf("unexpected messages: %q / %q", k, c)
	}
}
