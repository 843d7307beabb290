// Package msgpack provides MessagePack encoding/decoding for predicate trees.
// Used by package codec to read and write the wire form of a predicate.
package msgpack

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// RawMessage is an encoded value whose decoding is deferred.
// Node children are held as RawMessage until their kind is known.
type RawMessage = msgpack.RawMessage

// Decode deserializes MessagePack data into a Go value.
// The v parameter should be a pointer to the target structure.
//
// Example:
//
//	var hdr struct {
//	    Kind string `msgpack:"kind"`
//	}
//	err := msgpack.Decode(data, &hdr)
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty MessagePack data")
	}

	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	return nil
}

// Encode serializes a Go value into MessagePack format.
// Returns the serialized bytes or error.
func Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	return data, nil
}

// EncodeRaw serializes v for embedding in an enclosing message.
func EncodeRaw(v any) (RawMessage, error) {
	data, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return RawMessage(data), nil
}
