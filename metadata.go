// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"fmt"
	"io"
	"os"
)

// ReadMainHeader opens an archive and returns only its main header without
// parsing the section table.
func ReadMainHeader(path string) (MainHeader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return MainHeader{}, err
	}
	defer func() { _ = f.Close() }()

	return ReadMainHeaderFromReaderAt(f, size)
}

// ReadMainHeaderFromReaderAt reads only the main header from a random-access source.
func ReadMainHeaderFromReaderAt(ra io.ReaderAt, size int64) (MainHeader, error) {
	if ra == nil {
		return MainHeader{}, ErrNilReader
	}
	if size < 4 || !HasMagic(ra) {
		return MainHeader{}, ErrInvalidFormat
	}
	if size < mainHeaderSize {
		return MainHeader{}, fmt.Errorf("%w: file size %d below main header", ErrTruncatedRead, size)
	}

	head := make([]byte, mainHeaderSize)
	if _, err := ra.ReadAt(head, 0); err != nil {
		return MainHeader{}, fmt.Errorf("read main header: %w", err)
	}

	return parseMainHeader(head), nil
}

// ListSections opens an archive and returns section metadata without payload reads.
func ListSections(path string) ([]SectionHeader, error) {
	return ListSectionsWithOptions(path, ListOptions{})
}

// ListSectionsWithOptions opens an archive and returns filtered section metadata.
func ListSectionsWithOptions(path string, opts ListOptions) ([]SectionHeader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r, err := NewReaderFromReaderAt(f, size)
	if err != nil {
		return nil, err
	}

	sections := r.Sections()
	sections = filterSectionsByPrefix(sections, opts.NamePrefix)
	sections = filterSectionsByMinSize(sections, opts.MinSize)
	if opts.SanitizeNames {
		sections = sanitizeSectionNames(sections)
	}

	return sections, nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open GIN: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
