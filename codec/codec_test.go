package codec

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type address struct {
	City string `json:"city" msgpack:"city" cbor:"city"`
	Zip  string `json:"zip" msgpack:"zip" cbor:"zip"`
}

type order struct {
	ID     string            `json:"id" msgpack:"id" cbor:"id"`
	Items  []string          `json:"items" msgpack:"items" cbor:"items"`
	Ship   address           `json:"ship" msgpack:"ship" cbor:"ship"`
	Labels map[string]string `json:"labels" msgpack:"labels" cbor:"labels"`
	At     time.Time         `json:"at" msgpack:"at" cbor:"at"`
}

func sampleOrder() order {
	return order{
		ID:     "o-1",
		Items:  []string{"a", "b"},
		Ship:   address{City: "Oslo", Zip: "0150"},
		Labels: map[string]string{"z": "1", "a": "2"},
		At:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func roundTrip[V any](t *testing.T, name string, cd Codec[V], in V) V {
	t.Helper()
	b, err := cd.Encode(in)
	if err != nil {
		t.Fatalf("%s encode: %v", name, err)
	}
	out, err := cd.Decode(b)
	if err != nil {
		t.Fatalf("%s decode: %v", name, err)
	}
	return out
}

func TestStructuredRoundTrip(t *testing.T) {
	in := sampleOrder()
	codecs := map[string]Codec[order]{
		"json":     JSON[order]{},
		"msgpack":  Msgpack[order]{},
		"cbor":     MustCBOR[order](false),
		"cbor-det": MustCBOR[order](true),
	}
	for name, cd := range codecs {
		out := roundTrip(t, name, cd, in)
		if !out.At.Equal(in.At) {
			t.Fatalf("%s: time mismatch %v vs %v", name, out.At, in.At)
		}
		out.At = in.At
		if !reflect.DeepEqual(out, in) {
			t.Fatalf("%s: got %+v want %+v", name, out, in)
		}
	}
}

func TestJSONIsCanonical(t *testing.T) {
	a := sampleOrder()
	b := sampleOrder()
	b.Labels = map[string]string{"a": "2", "z": "1"}

	ea, _ := JSON[order]{}.Encode(a)
	eb, _ := JSON[order]{}.Encode(b)
	if !bytes.Equal(ea, eb) {
		t.Fatalf("equal values encoded differently:\n%s\n%s", ea, eb)
	}
	if !strings.Contains(string(ea), `"labels":{"a":"2","z":"1"}`) {
		t.Fatalf("map keys not sorted: %s", ea)
	}
}

func TestJSONStrictRejectsUnknownFields(t *testing.T) {
	payload := []byte(`{"city":"Oslo","zip":"0150","extra":true}`)
	if _, err := (JSON[address]{}).Decode(payload); err != nil {
		t.Fatalf("lenient decode: %v", err)
	}
	if _, err := (JSON[address]{Strict: true}).Decode(payload); err == nil {
		t.Fatalf("strict decode accepted unknown field")
	}
}

func TestJSONStrictRejectsTrailingData(t *testing.T) {
	for _, payload := range []string{
		`{"city":"Oslo"} junk`,
		`{"city":"Oslo"}{"city":"Bergen"}`,
	} {
		if _, err := (JSON[address]{}).Decode([]byte(payload)); err == nil {
			t.Fatalf("lenient decode accepted %q", payload)
		}
		if _, err := (JSON[address]{Strict: true}).Decode([]byte(payload)); err == nil {
			t.Fatalf("strict decode accepted %q", payload)
		}
	}
	if _, err := (JSON[address]{Strict: true}).Decode([]byte("{\"city\":\"Oslo\"}\n")); err != nil {
		t.Fatalf("trailing whitespace rejected: %v", err)
	}
}

func TestCBORDeterministicStable(t *testing.T) {
	cd := MustCBOR[map[string]int](true)
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	first, err := cd.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, _ := cd.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic CBOR produced different bytes")
		}
	}
}

func TestProtoCodecs(t *testing.T) {
	in, err := structpb.NewStruct(map[string]any{
		"id":   "o-1",
		"qty":  3,
		"ship": map[string]any{"city": "Oslo"},
	})
	if err != nil {
		t.Fatal(err)
	}
	ctor := func() *structpb.Struct { return &structpb.Struct{} }

	for name, cd := range map[string]Codec[*structpb.Struct]{
		"protobuf":  NewProtobuf(ctor),
		"protojson": NewProtoJSON(ctor),
	} {
		out := roundTrip(t, name, cd, in)
		if !proto.Equal(in, out) {
			t.Fatalf("%s: got %v want %v", name, out, in)
		}
	}

	text, _ := NewProtoJSON(ctor).Encode(in)
	if !strings.Contains(string(text), `"city"`) {
		t.Fatalf("protojson output is not text JSON: %q", text)
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	cd := Limit[string]{Inner: String{}, MaxDecode: 4}
	if _, err := cd.Decode([]byte("12345")); err == nil {
		t.Fatalf("expected size error")
	}
	v, err := cd.Decode([]byte("1234"))
	if err != nil || v != "1234" {
		t.Fatalf("got %q err=%v", v, err)
	}
	if b, _ := (Limit[string]{Inner: String{}}).Encode("abcdef"); string(b) != "abcdef" {
		t.Fatalf("encode should be forwarded unchanged, got %q", b)
	}
}

func TestRawCodecsAreIdentity(t *testing.T) {
	if b, _ := (String{}).Encode(`"quoted"`); string(b) != `"quoted"` {
		t.Fatalf("String must not re-quote: %s", b)
	}
	in := []byte{0, 1, 2}
	out, _ := Bytes{}.Decode(in)
	if !bytes.Equal(in, out) {
		t.Fatalf("Bytes changed payload")
	}
}
