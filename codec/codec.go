// Package codec converts structured values to and from the bytes cachecast
// stores and publishes. JSON is the default: it is text, so values stay
// readable by any other Redis client sharing the keys and channels.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
