// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"context"
	"crypto/md5" //nolint:gosec // Checksum fields are 16 bytes; MD5 is a format fit, not a security boundary.
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Encode serializes a new archive from a header file and current section
// payloads. Sections are walked in table index order; each payload is
// recompressed per its stored flags and appended to the payload region while
// the table records the new offset. The rewritten table is internally
// consistent; offsets are not required to match the original archive.
func Encode(ctx context.Context, out io.WriteSeeker, hf *HeaderFile, open PayloadOpener, opts EncodeOptions) error {
	if out == nil {
		return ErrNilWriter
	}
	if hf == nil {
		return ErrNilHeaderFile
	}
	if open == nil {
		return ErrPayloadMissing
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()
	if err := hf.normalizeWidths(); err != nil {
		return err
	}

	main := cloneMainHeader(hf.Main)
	main.Magic = Magic
	count, err := checkedSectionSize(int64(len(hf.Sections)))
	if err != nil {
		return err
	}
	main.SectionCount = count

	sections := make([]SectionHeader, len(hf.Sections))
	for i := range hf.Sections {
		sections[i] = cloneSectionHeader(hf.Sections[i])
	}

	if _, err := out.Write(serializeMainHeader(&main)); err != nil {
		return fmt.Errorf("write main header: %w", err)
	}

	// Placeholder table first; real descriptors are patched in after the
	// payload region is laid out and new offsets are known.
	tableSize := int64(len(sections)) * sectionHeaderSize
	if _, err := out.Write(make([]byte, tableSize)); err != nil {
		return fmt.Errorf("write section table placeholder: %w", err)
	}

	offset := uint64(mainHeaderSize) + uint64(tableSize)
	checksums := make([]byte, 0, len(sections)*checksumLen)

	for i := range sections {
		if err := ctx.Err(); err != nil {
			return err
		}

		s := &sections[i]
		name := SanitizeSectionName(s.NameString())

		payload, err := readSectionPayload(open, i, name)
		if err != nil {
			return err
		}

		stored, compressedSize, flags, err := compressPayload(payload, s.Flags)
		if err != nil {
			return fmt.Errorf("compress section %d (%s): %w", i, name, err)
		}

		size, err := checkedSectionSize(int64(len(payload)))
		if err != nil {
			return fmt.Errorf("section %d (%s): %w", i, name, err)
		}

		s.Offset = offset
		s.Size = size
		s.CompressedSize = compressedSize
		s.Flags = flags
		if opts.ChecksumPolicy == ChecksumRecompute {
			sum := md5.Sum(payload) //nolint:gosec // format checksum, not security
			s.Checksum = sum[:]
		}
		checksums = append(checksums, s.Checksum...)

		if _, err := out.Write(stored); err != nil {
			return fmt.Errorf("write section %d (%s): %w", i, name, err)
		}

		offset += uint64(len(stored))
		if opts.OnSectionDone != nil {
			opts.OnSectionDone(SectionProgress{
				Index:          i,
				Name:           name,
				Offset:         s.Offset,
				Size:           s.Size,
				CompressedSize: s.CompressedSize,
				Codec:          s.Flags.Codec(),
			})
		}
	}

	if opts.ChecksumPolicy == ChecksumRecompute {
		sum := md5.Sum(checksums) //nolint:gosec // format checksum, not security
		main.Checksum = sum[:]

		if _, err := out.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek to main header: %w", err)
		}
		if _, err := out.Write(serializeMainHeader(&main)); err != nil {
			return fmt.Errorf("patch main header: %w", err)
		}
	} else {
		if _, err := out.Seek(mainHeaderSize, io.SeekStart); err != nil {
			return fmt.Errorf("seek to section table: %w", err)
		}
	}

	for i := range sections {
		if _, err := out.Write(serializeSectionHeader(&sections[i])); err != nil {
			return fmt.Errorf("patch section %d: %w", i, err)
		}
	}

	if _, err := out.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	return nil
}

// EncodeFile serializes a new archive to outPath.
func EncodeFile(ctx context.Context, outPath string, hf *HeaderFile, open PayloadOpener, opts EncodeOptions) error {
	f, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create GIN file: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	if err := Encode(ctx, f, hf, open, opts); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync GIN file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close GIN file: %w", err)
	}
	f = nil

	return nil
}

// DirPayloads resolves section payloads from flat sanitized-name files in dir,
// the layout a non-numbered decode produces.
func DirPayloads(dir string) PayloadOpener {
	return func(_ int, name string) (io.ReadCloser, error) {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrPayloadMissing, name, err)
		}

		return f, nil
	}
}

// MappedPayloads resolves section payloads through the structure ledger:
// the flat member under flatDir maps to its reconstructed (possibly
// hand-edited) destination, which is preferred when present.
func MappedPayloads(mappingsPath, flatDir string) (PayloadOpener, error) {
	data, err := os.ReadFile(mappingsPath)
	if err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}

	mappings := make(map[string]string)
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("parse mappings: %w", err)
	}

	return func(_ int, name string) (io.ReadCloser, error) {
		flat := filepath.Join(flatDir, name)
		source := flat
		if dest, ok := mappings[flat]; ok {
			source = dest
		}

		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrPayloadMissing, name, err)
		}

		return f, nil
	}, nil
}

// readSectionPayload reads one full payload from the opener.
func readSectionPayload(open PayloadOpener, index int, name string) ([]byte, error) {
	rc, err := open(index, name)
	if err != nil {
		return nil, err
	}

	payload, readErr := io.ReadAll(rc)
	closeErr := rc.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read payload %s: %w", name, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close payload %s: %w", name, closeErr)
	}

	return payload, nil
}

// serializeMainHeader encodes the fixed main header block.
func serializeMainHeader(h *MainHeader) []byte {
	b := make([]byte, mainHeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	copy(b[8:16], h.Reserved)
	copy(b[16:32], h.FileID)
	binary.LittleEndian.PutUint32(b[32:36], h.Reserved2)
	copy(b[36:292], h.FilePath)
	binary.LittleEndian.PutUint32(b[292:296], h.SectionCount)
	copy(b[296:312], h.Checksum)
	return b
}

// serializeSectionHeader encodes one fixed section descriptor block.
func serializeSectionHeader(s *SectionHeader) []byte {
	b := make([]byte, sectionHeaderSize)
	copy(b[0:64], s.Name)
	binary.LittleEndian.PutUint64(b[64:72], s.Offset)
	binary.LittleEndian.PutUint32(b[72:76], s.Size)
	binary.LittleEndian.PutUint32(b[76:80], s.CompressedSize)
	binary.LittleEndian.PutUint32(b[80:84], uint32(s.Flags))
	copy(b[84:100], s.Params)
	binary.LittleEndian.PutUint32(b[100:104], s.SectionVersion)
	copy(b[104:120], s.SectionID)
	copy(b[120:136], s.Checksum)
	return b
}
