// Package serialize compresses encoded predicates with ZStandard.
package serialize

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compressor compresses whole payloads. It is safe for concurrent use.
type Compressor struct {
	encoder *zstd.Encoder
}

// NewCompressor returns a Compressor at the default zstd level.
func NewCompressor() (*Compressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Compressor{encoder: encoder}, nil
}

// Compress returns data as a single zstd frame.
// An empty payload stays empty.
func (c *Compressor) Compress(data []byte) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// Close stops the encoder. Compressors held for the life of the process
// need not be closed.
func (c *Compressor) Close() error {
	if c.encoder == nil {
		return nil
	}
	return c.encoder.Close()
}

// Decompressor expands payloads written by a Compressor.
// It is safe for concurrent use.
type Decompressor struct {
	decoder *zstd.Decoder
}

// NewDecompressor returns a Decompressor that refuses payloads expanding
// beyond maxSize bytes. A maxSize of 0 keeps the zstd limit.
func NewDecompressor(maxSize uint64) (*Decompressor, error) {
	var opts []zstd.DOption
	if maxSize > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(maxSize))
	}
	decoder, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Decompressor{decoder: decoder}, nil
}

// Decompress expands compressed. An empty payload stays empty.
func (d *Decompressor) Decompress(compressed []byte) ([]byte, error) {
	if len(compressed) == 0 {
		return []byte{}, nil
	}
	out, err := d.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}

// Close stops the decoder's background goroutines.
func (d *Decompressor) Close() {
	if d.decoder != nil {
		d.decoder.Close()
	}
}
