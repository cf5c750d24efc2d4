// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Decode extracts every section of one archive into opts.OutputDir and writes
// the header file sidecar into opts.HeaderDir. It returns the written member
// paths in section table order. A section whose decompression fails
// contributes no output file and does not abort the archive.
func Decode(ctx context.Context, archivePath string, opts DecodeOptions) ([]string, error) {
	opts.applyDefaults()

	if ctx == nil {
		ctx = context.Background()
	}

	r, err := Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	if err := os.MkdirAll(opts.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.MkdirAll(opts.HeaderDir, 0o750); err != nil {
		return nil, fmt.Errorf("create header dir: %w", err)
	}

	written := make([]string, 0, len(r.sections))
	for i := range r.sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s := &r.sections[i]
		name := SanitizeSectionName(s.NameString())

		rc, err := r.OpenSection(i)
		if err != nil {
			if errors.Is(err, ErrDecompression) {
				if opts.OnSectionSkipped != nil {
					opts.OnSectionSkipped(i, name, err)
				}

				continue
			}

			return nil, err
		}

		outName := name
		if opts.NumberNames {
			// The global sequence number keeps duplicate section names from
			// colliding across the whole batch.
			outName = fmt.Sprintf("%04d_%s", opts.NumberOffset+i, name)
		}

		outPath := filepath.Join(opts.OutputDir, outName)
		if err := writeSectionFile(outPath, rc); err != nil {
			return nil, fmt.Errorf("write section %s: %w", name, err)
		}

		written = append(written, outPath)
		if opts.OnSectionDone != nil {
			opts.OnSectionDone(SectionProgress{
				Index:          i,
				Name:           name,
				Offset:         s.Offset,
				Size:           s.Size,
				CompressedSize: s.CompressedSize,
				Codec:          s.Flags.Codec(),
			}, outPath)
		}
	}

	sidecar := filepath.Join(opts.HeaderDir, filepath.Base(archivePath)+".json")
	if err := SaveHeaderFile(sidecar, r.HeaderFile()); err != nil {
		return nil, err
	}

	return written, nil
}

// writeSectionFile streams one section payload to path and closes the source.
func writeSectionFile(path string, rc io.ReadCloser) error {
	defer func() { _ = rc.Close() }()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(f, rc)
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}

	return closeErr
}
