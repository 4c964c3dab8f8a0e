package codec

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errTrailingData = errors.New("codec: trailing data after JSON value")

// JSON encodes with encoding/json. Output is canonical for a given value:
// struct fields keep declaration order and map keys are sorted.
// The zero value is ready to use.
type JSON[V any] struct {
	// Strict rejects objects carrying fields V does not declare, as well as
	// anything following the top-level value.
	Strict bool
}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (c JSON[V]) Decode(b []byte) (V, error) {
	var v V
	if !c.Strict {
		err := json.Unmarshal(b, &v)
		return v, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if dec.More() {
		return v, errTrailingData
	}
	return v, nil
}
