// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"bytes"
	"io"
)

// Internal binary layout and format limits.
const (
	// Magic is the 4-byte GIN container identifier ("GIN1", little-endian).
	Magic uint32 = 0x314E4947
	// mainHeaderSize is the fixed main header size in bytes.
	mainHeaderSize = 312
	// sectionHeaderSize is the fixed section descriptor size in bytes.
	sectionHeaderSize = 136
	// maxPathLen is the fixed width of the main header path field.
	maxPathLen = 256
	// sectionNameLen is the fixed width of the section name field.
	sectionNameLen = 64
	// sectionParamsLen is the opaque per-section params field width.
	sectionParamsLen = 16
	// checksumLen is the width of header and section checksum fields.
	checksumLen = 16
	// idLen is the width of file and section identifier fields.
	idLen = 16
	// reservedLen is the width of the main header reserved field.
	reservedLen = 8
	// embeddedPathOffset is where assets store their project path inside payload data.
	embeddedPathOffset = 20
	// embeddedPathScanLimit bounds the embedded path scan window.
	embeddedPathScanLimit = 4096
)

// SectionFlags is the per-section compression selector bitmask.
type SectionFlags uint32

// Section flag bits. Decode dispatch checks ZSTD first, then LZ4;
// sections with neither bit are stored raw.
const (
	// FlagLZ4 marks LZ4 block-compressed payload.
	FlagLZ4 SectionFlags = 0x1
	// FlagZSTD marks ZSTD-compressed payload.
	FlagZSTD SectionFlags = 0x2
)

// HasZSTD reports whether the ZSTD bit is set.
func (f SectionFlags) HasZSTD() bool { return f&FlagZSTD != 0 }

// HasLZ4 reports whether the LZ4 bit is set.
func (f SectionFlags) HasLZ4() bool { return f&FlagLZ4 != 0 }

// Codec returns a short tag for the codec selected by the bitmask.
func (f SectionFlags) Codec() string {
	switch {
	case f.HasZSTD():
		return "zstd"
	case f.HasLZ4():
		return "lz4"
	default:
		return "raw"
	}
}

// MainHeader is the fixed 312-byte GIN archive header.
// Byte-slice fields hold the full fixed-width raw value including padding,
// so an archive round-trips byte-exact through the header file.
type MainHeader struct {
	// Magic is the format identifier; must equal Magic.
	Magic uint32 `json:"magic"`
	// Version is the container format version.
	Version uint32 `json:"ver"`
	// Reserved is 8 opaque bytes carried through unchanged.
	Reserved []byte `json:"reserved"`
	// FileID is the 16-byte archive identifier.
	FileID []byte `json:"file_id"`
	// Reserved2 is a second opaque reserved field.
	Reserved2 uint32 `json:"reserved_2"`
	// FilePath is the fixed 256-byte NUL-terminated original project path.
	FilePath []byte `json:"file_path"`
	// SectionCount is the number of section descriptors in the table.
	SectionCount uint32 `json:"section_count"`
	// Checksum is the 16-byte header checksum, carried through unverified.
	Checksum []byte `json:"checksum"`
}

// Path returns the original project path with fixed-width padding trimmed.
func (h *MainHeader) Path() string {
	return cutAtNull(h.FilePath)
}

// SectionHeader is one fixed 136-byte section descriptor.
type SectionHeader struct {
	// Name is the fixed 64-byte NUL-terminated section name.
	Name []byte `json:"name"`
	// Offset is the absolute byte offset of the payload inside the archive.
	// Payload regions are independent of table position and need not be
	// sequential or contiguous.
	Offset uint64 `json:"offset"`
	// Size is the uncompressed payload length.
	Size uint32 `json:"size"`
	// CompressedSize is the stored payload length for compressed sections;
	// zero means the payload is stored raw at Size bytes.
	CompressedSize uint32 `json:"compressed_size"`
	// Flags selects the compression codec.
	Flags SectionFlags `json:"flags"`
	// Params is 16 opaque bytes carried through unchanged.
	Params []byte `json:"params"`
	// SectionVersion is the per-section format version.
	SectionVersion uint32 `json:"section_version"`
	// SectionID is the 16-byte section identifier.
	SectionID []byte `json:"section_id"`
	// Checksum is the 16-byte section checksum, carried through unverified.
	Checksum []byte `json:"checksum"`
}

// NameString returns the section name with fixed-width padding trimmed.
func (s *SectionHeader) NameString() string {
	return cutAtNull(s.Name)
}

// ReadSize returns how many payload bytes are stored in the archive for this
// section: CompressedSize when nonzero, Size otherwise.
func (s *SectionHeader) ReadSize() uint32 {
	if s.CompressedSize > 0 {
		return s.CompressedSize
	}

	return s.Size
}

// IsCompressed reports whether payload bytes must pass through a codec.
func (s *SectionHeader) IsCompressed() bool {
	return s.CompressedSize > 0 && (s.Flags.HasZSTD() || s.Flags.HasLZ4())
}

// cutAtNull returns the string value of a fixed-width NUL-terminated field.
func cutAtNull(b []byte) string {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return string(b[:idx])
	}

	return string(b)
}

// ChecksumPolicy controls how the encoder fills checksum fields.
type ChecksumPolicy string

// Encoder checksum policies. The legacy checksum algorithm is unconfirmed,
// so recomputation is opt-in rather than silently applied.
const (
	// ChecksumCarry copies checksum fields from the header file unchanged.
	ChecksumCarry ChecksumPolicy = "carry"
	// ChecksumRecompute fills section checksums with MD5 of the uncompressed
	// payload and the main checksum with MD5 over all section checksums.
	ChecksumRecompute ChecksumPolicy = "recompute"
)

// SectionProgress contains one completed section event from decode or encode flow.
type SectionProgress struct {
	// Name is the sanitized section name.
	Name string `json:"name"`
	// Index is the 0-based section table index.
	Index int `json:"index"`
	// Offset is the payload offset inside the archive.
	Offset uint64 `json:"offset"`
	// Size is the uncompressed payload length.
	Size uint32 `json:"size"`
	// CompressedSize is the stored payload length, zero for raw sections.
	CompressedSize uint32 `json:"compressed_size,omitempty"`
	// Codec is the codec tag selected by the section flags.
	Codec string `json:"codec,omitempty"`
}

// DecodeOptions configures single-archive decode behavior.
type DecodeOptions struct {
	// OnSectionDone is called after one section payload is fully written.
	OnSectionDone func(progress SectionProgress, outputPath string) `json:"-"`
	// OnSectionSkipped is called when one section fails to decompress.
	// Skipped sections produce no output file and do not abort the archive.
	OnSectionSkipped func(index int, name string, err error) `json:"-"`
	// OutputDir receives one file per extracted section.
	OutputDir string `json:"output_dir"`
	// HeaderDir receives the header file sidecar named after the archive.
	HeaderDir string `json:"header_dir"`
	// NumberOffset is the first sequence number used by this archive.
	NumberOffset int `json:"number_offset,omitempty"`
	// NumberNames prefixes output names with a zero-padded sequence number.
	NumberNames bool `json:"number_names,omitempty"`
}

// BatchOptions configures multi-archive decode behavior.
type BatchOptions struct {
	// OnInputSkipped is called for candidates dropped during validation:
	// unreadable paths, directories, and files failing the magic check.
	OnInputSkipped func(path string, reason error) `json:"-"`
	// OnSectionSkipped is forwarded to each per-archive decode.
	OnSectionSkipped func(index int, name string, err error) `json:"-"`
	// OutputDir receives one subdirectory per decoded archive.
	OutputDir string `json:"output_dir"`
	// HeaderDir receives one header file per decoded archive.
	HeaderDir string `json:"header_dir"`
	// MaxWorkers is the number of archive decode workers (zero means GOMAXPROCS).
	// Numbering ranges are pre-reserved from section counts before any worker
	// starts, so output is deterministic regardless of worker count.
	MaxWorkers int `json:"max_workers,omitempty"`
	// NumberNames prefixes output names with a globally unique sequence number.
	NumberNames bool `json:"number_names,omitempty"`
}

// StructureOptions configures structural reconstruction behavior.
type StructureOptions struct {
	// OnUnresolved is called for deferred members matching no sibling rule.
	// Unresolved members are dropped; this is not fatal to the run.
	OnUnresolved func(path string) `json:"-"`
	// OnInputSkipped is forwarded to the batch decode stage.
	OnInputSkipped func(path string, reason error) `json:"-"`
	// MaxWorkers is forwarded to the batch decode stage.
	MaxWorkers int `json:"max_workers,omitempty"`
}

// EncodeOptions configures archive encode behavior.
type EncodeOptions struct {
	// OnSectionDone is called after one section payload is written.
	OnSectionDone func(progress SectionProgress) `json:"-"`
	// ChecksumPolicy selects carry-through or recomputed checksums.
	ChecksumPolicy ChecksumPolicy `json:"checksum_policy,omitempty"`
}

// ListOptions configures metadata-only section listing.
type ListOptions struct {
	// NamePrefix keeps only sections whose name starts with this prefix.
	NamePrefix string `json:"name_prefix,omitempty"`
	// MinSize drops sections with uncompressed size below this threshold.
	MinSize uint32 `json:"min_size,omitempty"`
	// SanitizeNames rewrites section names to filesystem-safe output form.
	SanitizeNames bool `json:"sanitize_names,omitempty"`
}

// PayloadOpener resolves current payload bytes for one section during encode.
type PayloadOpener func(index int, name string) (io.ReadCloser, error)

// applyDefaults fills zero-valued decode options with defaults.
func (opts *DecodeOptions) applyDefaults() {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	if opts.HeaderDir == "" {
		opts.HeaderDir = opts.OutputDir
	}
}

// applyDefaults fills zero-valued encode options with defaults.
func (opts *EncodeOptions) applyDefaults() {
	if opts.ChecksumPolicy == "" {
		opts.ChecksumPolicy = ChecksumCarry
	}
}
