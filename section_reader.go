// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"bytes"
	"fmt"
	"io"
)

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// OpenSection opens the payload of the section at index for streaming reads.
// Raw sections stream straight from the underlying source without buffering;
// compressed sections are decoded up front and served from memory, since an
// LZ4 block needs the whole stored payload to decode.
func (r *Reader) OpenSection(index int) (io.ReadCloser, error) {
	if r == nil || r.ra == nil {
		return nil, ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if index < 0 || index >= len(r.sections) {
		return nil, fmt.Errorf("%w: index %d", ErrSectionNotFound, index)
	}

	s := &r.sections[index]
	if !s.Flags.HasZSTD() && !s.Flags.HasLZ4() {
		return nopCloser{Reader: io.NewSectionReader(r.ra, int64(s.Offset), int64(s.ReadSize()))}, nil
	}

	data, err := r.ReadSection(index)
	if err != nil {
		return nil, err
	}

	return nopCloser{Reader: bytes.NewReader(data)}, nil
}

// OpenSectionByName opens the first section whose trimmed name matches name.
func (r *Reader) OpenSectionByName(name string) (io.ReadCloser, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	for i := range r.sections {
		if r.sections[i].NameString() == name {
			return r.OpenSection(i)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, name)
}
