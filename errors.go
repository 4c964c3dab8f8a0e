package cachecast

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is wrapped by a *ConnectionError for any call made after Close.
	ErrClosed = errors.New("cachecast: client closed")

	ErrEmptyKey     = errors.New("cachecast: empty key")
	ErrEmptyChannel = errors.New("cachecast: empty channel")
	ErrNilHandler   = errors.New("cachecast: nil handler")
)

// ConnectionError reports that the connection could not be established,
// has been closed, or that a subscription could not be registered on it.
type ConnectionError struct {
	Op   string // "connect", "subscribe", or the operation attempted after Close
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("cachecast: %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("cachecast: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

type PublishError struct {
	Channel string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("cachecast: publish to %q: %v", e.Channel, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// WriteError is returned by Set and Delete.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cachecast: write %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cachecast: read %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// DeserializationError means a payload was present but could not be decoded
// into the requested type. Exactly one of Key/Channel is set.
type DeserializationError struct {
	Key     string
	Channel string
	Err     error
}

func (e *DeserializationError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("cachecast: decode message on %q: %v", e.Channel, e.Err)
	}
	return fmt.Sprintf("cachecast: decode %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// SerializationError means a value could not be encoded; nothing was sent.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cachecast: encode: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// AggregateError is returned by SetAndPublish when either side failed.
// The side that succeeded is not rolled back.
type AggregateError struct {
	Channel    string
	Key        string
	WriteErr   error
	PublishErr error
}

func (e *AggregateError) Error() string {
	switch {
	case e.WriteErr != nil && e.PublishErr != nil:
		return fmt.Sprintf("cachecast: set %q and publish to %q failed: write=%v; publish=%v",
			e.Key, e.Channel, e.WriteErr, e.PublishErr)
	case e.WriteErr != nil:
		return fmt.Sprintf("cachecast: set %q failed (publish to %q succeeded): %v", e.Key, e.Channel, e.WriteErr)
	case e.PublishErr != nil:
		return fmt.Sprintf("cachecast: publish to %q failed (set %q succeeded): %v", e.Channel, e.Key, e.PublishErr)
	default:
		return fmt.Sprintf("cachecast: set %q and publish to %q: unknown error", e.Key, e.Channel)
	}
}

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.WriteErr != nil {
		errs = append(errs, e.WriteErr)
	}
	if e.PublishErr != nil {
		errs = append(errs, e.PublishErr)
	}
	return errs
}

// Partial reports whether exactly one side failed.
func (e *AggregateError) Partial() bool {
	return (e.WriteErr == nil) != (e.PublishErr == nil)
}
