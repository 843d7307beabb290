package msgpack

import (
	"strings"
	"testing"
)

type header struct {
	Kind string `msgpack:"kind"`
	Name string `msgpack:"name,omitempty"`
}

type envelope struct {
	Kind  string     `msgpack:"kind"`
	Child RawMessage `msgpack:"child"`
}

func TestDecodeEmpty(t *testing.T) {
	var h header
	err := Decode(nil, &h)
	if err == nil {
		t.Fatal("expected error for empty data")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDecodeInvalid(t *testing.T) {
	var h header
	if err := Decode([]byte{0xc1}, &h); err == nil {
		t.Fatal("expected error for invalid data")
	}
}

func TestRawMessageDefersDecoding(t *testing.T) {
	child, err := EncodeRaw(header{Kind: "MEMBER", Name: "Surname"})
	if err != nil {
		t.Fatalf("EncodeRaw failed: %v", err)
	}

	data, err := Encode(envelope{Kind: "UNARY", Child: child})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var env envelope
	if err := Decode(data, &env); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Kind != "UNARY" {
		t.Errorf("expected kind UNARY, got %s", env.Kind)
	}

	var h header
	if err := Decode(env.Child, &h); err != nil {
		t.Fatalf("Decode child failed: %v", err)
	}
	if h.Kind != "MEMBER" || h.Name != "Surname" {
		t.Errorf("unexpected child: %+v", h)
	}
}
