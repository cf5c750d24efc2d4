// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// Reader provides read-only access to a parsed GIN archive.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// main stores the parsed fixed main header.
	main MainHeader
	// sections stores parsed immutable section descriptors in table order.
	sections []SectionHeader
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// IsGinFile reports whether the file at path starts with the GIN magic.
// Files shorter than the magic field, unreadable files, and any other prefix
// all report false; the check never errors.
func IsGinFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	return HasMagic(f)
}

// HasMagic reports whether the source starts with the GIN magic constant.
func HasMagic(ra io.ReaderAt) bool {
	if ra == nil {
		return false
	}

	var prefix [4]byte
	if _, err := io.ReadFull(io.NewSectionReader(ra, 0, 4), prefix[:]); err != nil {
		return false
	}

	return binary.LittleEndian.Uint32(prefix[:]) == Magic
}

// Open opens a GIN archive by path and parses its header and section table.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GIN: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	r, err := NewReaderFromReaderAt(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt parses a GIN archive from an existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	r := &Reader{ra: ra, size: size}
	if err := r.parse(); err != nil {
		return nil, err
	}

	return r, nil
}

// Main returns a copy of the parsed main header.
func (r *Reader) Main() MainHeader {
	if r == nil {
		return MainHeader{}
	}

	return cloneMainHeader(r.main)
}

// Sections returns a copy of the parsed section descriptors in table order.
func (r *Reader) Sections() []SectionHeader {
	if r == nil {
		return nil
	}

	out := make([]SectionHeader, len(r.sections))
	for i := range r.sections {
		out[i] = cloneSectionHeader(r.sections[i])
	}

	return out
}

// HeaderFile returns the lossless decode/encode contract for this archive.
func (r *Reader) HeaderFile() *HeaderFile {
	if r == nil {
		return nil
	}

	hf := &HeaderFile{Main: cloneMainHeader(r.main)}
	hf.Sections = make([]SectionHeader, len(r.sections))
	for i := range r.sections {
		hf.Sections[i] = cloneSectionHeader(r.sections[i])
	}

	return hf
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// ReadSection reads and decompresses the payload of the section at index.
func (r *Reader) ReadSection(index int) ([]byte, error) {
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
	raw := make([]byte, s.ReadSize())
	if _, err := io.ReadFull(io.NewSectionReader(r.ra, int64(s.Offset), int64(len(raw))), raw); err != nil {
		return nil, fmt.Errorf("read section %s: %w", s.NameString(), err)
	}

	return decompressPayload(raw, s.Flags, s.Size)
}

// ReadSectionByName reads the first section whose trimmed name matches name.
func (r *Reader) ReadSectionByName(name string) ([]byte, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	for i := range r.sections {
		if r.sections[i].NameString() == name {
			return r.ReadSection(i)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, name)
}

// parse reads and validates the GIN structure from the underlying ReaderAt.
func (r *Reader) parse() error {
	// The magic is validated before any other field is trusted.
	if r.size < 4 || !HasMagic(r.ra) {
		return ErrInvalidFormat
	}

	if r.size < mainHeaderSize {
		return fmt.Errorf("%w: file size %d below main header", ErrTruncatedRead, r.size)
	}

	head := make([]byte, mainHeaderSize)
	if _, err := r.ra.ReadAt(head, 0); err != nil {
		return fmt.Errorf("read main header: %w", err)
	}

	r.main = parseMainHeader(head)

	tableSize := int64(r.main.SectionCount) * sectionHeaderSize
	if mainHeaderSize+tableSize > r.size {
		return fmt.Errorf("%w: section table of %d entries exceeds file size %d",
			ErrTruncatedRead, r.main.SectionCount, r.size)
	}

	// The descriptor table is always contiguous right after the main header,
	// even though payload regions are not.
	table := make([]byte, tableSize)
	if tableSize > 0 {
		if _, err := r.ra.ReadAt(table, mainHeaderSize); err != nil {
			return fmt.Errorf("read section table: %w", err)
		}
	}

	r.sections = make([]SectionHeader, r.main.SectionCount)
	for i := range r.sections {
		r.sections[i] = parseSectionHeader(table[i*sectionHeaderSize : (i+1)*sectionHeaderSize])
	}

	return validateSectionBounds(r.sections, r.size)
}

// parseMainHeader decodes the fixed main header block.
func parseMainHeader(b []byte) MainHeader {
	return MainHeader{
		Magic:        binary.LittleEndian.Uint32(b[0:4]),
		Version:      binary.LittleEndian.Uint32(b[4:8]),
		Reserved:     bytes.Clone(b[8:16]),
		FileID:       bytes.Clone(b[16:32]),
		Reserved2:    binary.LittleEndian.Uint32(b[32:36]),
		FilePath:     bytes.Clone(b[36:292]),
		SectionCount: binary.LittleEndian.Uint32(b[292:296]),
		Checksum:     bytes.Clone(b[296:312]),
	}
}

// parseSectionHeader decodes one fixed section descriptor block.
func parseSectionHeader(b []byte) SectionHeader {
	return SectionHeader{
		Name:           bytes.Clone(b[0:64]),
		Offset:         binary.LittleEndian.Uint64(b[64:72]),
		Size:           binary.LittleEndian.Uint32(b[72:76]),
		CompressedSize: binary.LittleEndian.Uint32(b[76:80]),
		Flags:          SectionFlags(binary.LittleEndian.Uint32(b[80:84])),
		Params:         bytes.Clone(b[84:100]),
		SectionVersion: binary.LittleEndian.Uint32(b[100:104]),
		SectionID:      bytes.Clone(b[104:120]),
		Checksum:       bytes.Clone(b[120:136]),
	}
}

// validateSectionBounds rejects descriptors whose payload region leaves the file.
// The legacy format never enforced this bound itself.
func validateSectionBounds(sections []SectionHeader, totalSize int64) error {
	for i := range sections {
		s := &sections[i]
		end := s.Offset + uint64(s.ReadSize())
		if end < s.Offset || end > uint64(totalSize) {
			return fmt.Errorf("%w: section %d (%s) payload [%d..%d) outside file of %d bytes",
				ErrTruncatedRead, i, s.NameString(), s.Offset, end, totalSize)
		}
	}

	return nil
}

// cloneMainHeader deep-copies byte fields so callers cannot mutate reader state.
func cloneMainHeader(h MainHeader) MainHeader {
	h.Reserved = bytes.Clone(h.Reserved)
	h.FileID = bytes.Clone(h.FileID)
	h.FilePath = bytes.Clone(h.FilePath)
	h.Checksum = bytes.Clone(h.Checksum)
	return h
}

// cloneSectionHeader deep-copies byte fields of one descriptor.
func cloneSectionHeader(s SectionHeader) SectionHeader {
	s.Name = bytes.Clone(s.Name)
	s.Params = bytes.Clone(s.Params)
	s.SectionID = bytes.Clone(s.SectionID)
	s.Checksum = bytes.Clone(s.Checksum)
	return s
}
