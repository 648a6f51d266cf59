package dbstore

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how record payloads are stored.
type Compression uint8

const (
	// CompressionNone stores records verbatim (ffindex compatible).
	CompressionNone Compression = 0
	// CompressionLZ4 stores LZ4 blocks.
	CompressionLZ4 Compression = 1
	// CompressionZSTD stores zstd frames.
	CompressionZSTD Compression = 2
)

// String returns the manifest name of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd". Empty means none.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compressed records carry an 8-byte header:
// [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize == 0 means the payload did not shrink and is stored raw.
const recordHeaderSize = 8

// compressRecord appends the encoded form of data to dst.
func compressRecord(dst, data []byte, c Compression) ([]byte, error) {
	if c == CompressionNone {
		return append(dst, data...), nil
	}

	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}

	var hdr [recordHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))
	if len(compressed) == 0 || len(compressed) >= len(data) {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	dst = append(dst, hdr[:]...)
	return append(dst, compressed...), nil
}

// decompressRecord decodes a stored record. Uncompressed databases return
// data unchanged without copying.
func decompressRecord(data []byte, c Compression) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}
	if len(data) < recordHeaderSize {
		return nil, fmt.Errorf("%w: record too small for header", ErrCorrupt)
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[0:])
	compressedSize := binary.LittleEndian.Uint32(data[4:])
	payload := data[recordHeaderSize:]

	if compressedSize == 0 {
		if uint32(len(payload)) != uncompressedSize {
			return nil, fmt.Errorf("%w: raw record size mismatch", ErrCorrupt)
		}
		return payload, nil
	}
	if uint32(len(payload)) != compressedSize {
		return nil, fmt.Errorf("%w: compressed record size mismatch", ErrCorrupt)
	}

	out := make([]byte, uncompressedSize)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(payload, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, c)
	}
}
