// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import "errors"

// Sentinel errors for GIN operations. Use errors.Is in callers.
var (
	// ErrInvalidFormat means the file is missing the GIN magic or is shorter than it.
	ErrInvalidFormat = errors.New("invalid GIN file: missing or bad magic")
	// ErrTruncatedRead means a declared size or offset exceeds the file bounds.
	ErrTruncatedRead = errors.New("declared section bounds exceed file size")
	// ErrDecompression means one section payload failed to decompress.
	ErrDecompression = errors.New("section decompression failed")
	// ErrEmptyInputSet means no valid archives remain after batch validation.
	ErrEmptyInputSet = errors.New("no GIN archives in input set")
	// ErrNotAFile means the input path is a directory.
	ErrNotAFile = errors.New("input path is a directory")
	// ErrUnreadableInput means the input path cannot be opened for reading.
	ErrUnreadableInput = errors.New("input path is not readable")
	// ErrInvalidDestination means a reconstructed destination path is not legal.
	ErrInvalidDestination = errors.New("invalid destination path")
	// ErrSectionNotFound means no section matches the requested index or name.
	ErrSectionNotFound = errors.New("section not found")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrSizeOverflow means a size or offset does not fit its header field.
	ErrSizeOverflow = errors.New("size exceeds header field range")
	// ErrNilHeaderFile means the header file is nil or has no main header.
	ErrNilHeaderFile = errors.New("header file is nil")
	// ErrHeaderFieldWidth means a fixed-width binary field has the wrong length.
	ErrHeaderFieldWidth = errors.New("fixed-width header field has wrong length")
	// ErrPayloadMissing means the encoder could not resolve payload bytes for a section.
	ErrPayloadMissing = errors.New("section payload source missing")
)
