// Package keys maps caller keys and channel names into a namespace.
package keys

import "strings"

const sep = ":"

// Space prefixes names with "<ns>:". The zero value is the empty namespace,
// which leaves names untouched.
type Space struct {
	prefix string
}

func New(ns string) Space {
	ns = strings.TrimSuffix(ns, sep)
	if ns == "" {
		return Space{}
	}
	return Space{prefix: ns + sep}
}

// Key returns the storage name for a caller-facing name.
func (s Space) Key(name string) string { return s.prefix + name }

// Strip reverses Key. Names outside the namespace are returned unchanged.
func (s Space) Strip(name string) string { return strings.TrimPrefix(name, s.prefix) }

// Prefix is "" for the empty namespace, "<ns>:" otherwise.
func (s Space) Prefix() string { return s.prefix }
