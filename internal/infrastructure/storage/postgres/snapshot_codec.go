package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionAlgo specifies the compression algorithm used for a payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which zstd is used.
const DefaultCompressThreshold = 10 * 1024

// PayloadCodec serializes closing snapshot rows as JSON and compresses large
// payloads with zstd. Safe for concurrent use.
type PayloadCodec struct {
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewPayloadCodec creates a codec. A threshold <= 0 uses DefaultCompressThreshold.
func NewPayloadCodec(threshold int) (*PayloadCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &PayloadCodec{
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
	}, nil
}

// Encode marshals v and compresses the result when it exceeds the threshold.
func (c *PayloadCodec) Encode(v any) ([]byte, CompressionAlgo, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("marshal payload: %w", err)
	}
	if len(raw) <= c.compressThreshold {
		return raw, CompressionNone, nil
	}
	return c.encoder.EncodeAll(raw, nil), CompressionZstd, nil
}

// Decode decompresses data according to algo and unmarshals it into v.
func (c *PayloadCodec) Decode(data []byte, algo CompressionAlgo, v any) error {
	raw := data
	switch algo {
	case CompressionNone, "":
	case CompressionZstd:
		var err error
		raw, err = c.decoder.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("decompress payload: %w", err)
		}
	default:
		return fmt.Errorf("unknown compression algo %q", algo)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}

// Close releases encoder and decoder resources.
func (c *PayloadCodec) Close() {
	c.decoder.Close()
	_ = c.encoder.Close()
}
