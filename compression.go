// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// decompressPayload restores one section payload according to its flags.
// Dispatch order matches the legacy tool: ZSTD bit first, then LZ4, then raw.
// Output is bounded by the declared uncompressed size; a stream that would
// expand past it fails instead of allocating beyond the bound.
func decompressPayload(data []byte, flags SectionFlags, size uint32) ([]byte, error) {
	switch {
	case flags.HasZSTD():
		return decompressZSTD(data, size)
	case flags.HasLZ4():
		return decompressLZ4(data, size)
	default:
		return data, nil
	}
}

// decompressZSTD decodes a ZSTD stream with a hard output-size bound.
func decompressZSTD(data []byte, size uint32) ([]byte, error) {
	maxMem := uint64(size)
	if maxMem == 0 {
		maxMem = 1
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxMem),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: init zstd: %w", ErrDecompression, err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrDecompression, err)
	}
	if len(out) > int(size) {
		return nil, fmt.Errorf("%w: zstd output %d exceeds declared size %d", ErrDecompression, len(out), size)
	}

	return out, nil
}

// decompressLZ4 block-decodes into an exactly size-sized buffer.
func decompressLZ4(data []byte, size uint32) ([]byte, error) {
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", ErrDecompression, err)
	}
	if n != int(size) {
		return nil, fmt.Errorf("%w: lz4 output %d does not match declared size %d", ErrDecompression, n, size)
	}

	return out, nil
}

// compressPayload packs payload bytes with the codec selected by flags.
// It returns the stored bytes, the stored-size field value (zero for raw),
// and the flags to write back. When block compression cannot shrink the
// payload the section is stored raw and compression bits are cleared so the
// rewritten table stays self-consistent.
func compressPayload(data []byte, flags SectionFlags) ([]byte, uint32, SectionFlags, error) {
	switch {
	case flags.HasZSTD():
		return compressZSTD(data, flags)
	case flags.HasLZ4():
		return compressLZ4(data, flags)
	default:
		return data, 0, flags, nil
	}
}

// compressZSTD encodes payload with ZSTD.
func compressZSTD(data []byte, flags SectionFlags) ([]byte, uint32, SectionFlags, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, 0, flags, fmt.Errorf("init zstd encoder: %w", err)
	}

	out := enc.EncodeAll(data, nil)
	if err := enc.Close(); err != nil {
		return nil, 0, flags, fmt.Errorf("close zstd encoder: %w", err)
	}

	if len(out) >= len(data) {
		// Incompressible input: store raw.
		return data, 0, flags &^ (FlagZSTD | FlagLZ4), nil
	}

	storedSize, err := checkedSectionSize(int64(len(out)))
	if err != nil {
		return nil, 0, flags, err
	}

	return out, storedSize, flags, nil
}

// compressLZ4 block-encodes payload with LZ4.
func compressLZ4(data []byte, flags SectionFlags) ([]byte, uint32, SectionFlags, error) {
	if len(data) == 0 {
		return data, 0, flags &^ (FlagZSTD | FlagLZ4), nil
	}

	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, buf)
	if err != nil {
		return nil, 0, flags, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(data) {
		// Incompressible input: store raw.
		return data, 0, flags &^ (FlagZSTD | FlagLZ4), nil
	}

	storedSize, err := checkedSectionSize(int64(n))
	if err != nil {
		return nil, 0, flags, err
	}

	return buf[:n], storedSize, flags, nil
}

// checkedSectionSize validates a payload length for uint32 header fields.
func checkedSectionSize(size int64) (uint32, error) {
	if size < 0 || size > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w: payload size %d", ErrSizeOverflow, size)
	}

	return uint32(size), nil
}
