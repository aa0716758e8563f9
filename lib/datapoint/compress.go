// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package datapoint

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the at-rest compression algorithm for a
// stored payload. Tags are persisted in the SQLite backend's
// compression column (1 byte each) — changing a value breaks existing
// databases.
type CompressionTag uint8

const (
	// CompressionNone indicates an uncompressed payload. Used for
	// already-compressed content (images, video, archives) where
	// compression adds CPU cost without reducing size.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 indicates LZ4 block compression. Fast default
	// for binary data (~1.5-2x ratio, ~4 GB/s decode).
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd indicates zstd compression at level 3. Better
	// ratios for text-like content (~3-5x ratio, ~1.5 GB/s decode).
	CompressionZstd CompressionTag = 2
)

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// errIncompressible is returned by compression functions when the
// compressed output is not smaller than the input. The caller should
// fall back to CompressionNone.
var errIncompressible = fmt.Errorf("data is incompressible")

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. zstd.Encoder and zstd.Decoder
// are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("datapoint: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("datapoint: zstd decoder initialization failed: " + err.Error())
	}
}

// compressPayload compresses a chunk for storage. It probes with zstd
// and keeps it when the ratio clears 1.5x, falls back to LZ4 for
// mildly compressible data, and stores incompressible data unchanged.
// Returns the stored bytes and the tag recorded alongside them.
func compressPayload(data []byte) ([]byte, CompressionTag, error) {
	if len(data) == 0 {
		return data, CompressionNone, nil
	}

	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))

	switch {
	case ratio >= 1.5:
		return compressed, CompressionZstd, nil

	case ratio >= 1.1:
		lz4Compressed, err := compressLZ4(data)
		if err == errIncompressible {
			return data, CompressionNone, nil
		}
		if err != nil {
			return nil, 0, err
		}
		return lz4Compressed, CompressionLZ4, nil

	default:
		return data, CompressionNone, nil
	}
}

// decompressPayload reverses compressPayload. The uncompressedSize
// must match the original chunk length exactly — this is verified and
// a mismatch returns an error.
func decompressPayload(stored []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(stored) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed payload: size %d does not match expected %d",
				len(stored), uncompressedSize)
		}
		return stored, nil

	case CompressionLZ4:
		return decompressLZ4(stored, uncompressedSize)

	case CompressionZstd:
		return decompressZstd(stored, uncompressedSize)

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// LZ4 compression: block-mode LZ4.

func compressLZ4(data []byte) ([]byte, error) {
	// CompressBlockBound returns the maximum compressed size.
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	// CompressBlock returns 0 when it determines the data is
	// incompressible. We also check whether the compressed output
	// is actually smaller than the input — if not, compression is
	// not worthwhile.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}

	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

// Zstd compression: level 3 (the "default" level — good ratio without
// excessive CPU).

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, 0, uncompressedSize)
	result, err := zstdDecoder.DecodeAll(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
