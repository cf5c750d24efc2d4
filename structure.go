// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/woozymasta/pathrules"
)

// Fixed reconstruction layout names.
const (
	// decompDirName holds the flat per-archive extraction under the output root.
	decompDirName = "decompiled"
	// shipDirName is the reconstructed tree root.
	shipDirName = "ship"
	// headerDirName holds the per-archive header file sidecars.
	headerDirName = "header_files"
	// mappingsFileName is the source-to-destination ledger written once per run.
	mappingsFileName = "mappings.json"
	// assetsDirName is the source folder whose members bypass satellite deferral.
	assetsDirName = "assets"
	// decompAssetsDirName receives members extracted from an assets source folder.
	decompAssetsDirName = "decomp_assets"
	// fontsDirName receives members with a recognized font extension.
	fontsDirName = "fonts"
)

// One known pathological name collision is resolved by an explicit bypass
// instead of the sibling lookup rules. Do not generalize this matching.
const (
	pearlExceptionName    = "ST_factory_factory_pearl.ST_factory_turning_stop_pearl_inverted"
	pearlExceptionSibling = "ST_factory_factory_pearl.ST_factory_turning_stop_pearl.gin"
	pearlExceptionSuffix  = ".ST_factory_turning_stop_pearl_inverted"
)

var (
	// satelliteMatcher selects members whose placement depends on an already
	// placed primary file.
	satelliteMatcher = mustExtensionMatcher("*.reloc", "*.alloc", "*.assets")
	// fontMatcher selects font members routed into the fixed fonts folder.
	fontMatcher = mustExtensionMatcher("*.csv", "*.otf", "*.ttf")
)

// deferredEntry is one member awaiting second-pass sibling resolution.
type deferredEntry struct {
	// source is the flat extracted member path.
	source string
	// suffixes is the extension chain after the ".gin" anchor, original order.
	suffixes []string
}

// DecodeToStructure decodes the given archives and rebuilds their original
// directory hierarchy under outputDir. It creates decompiled/, ship/,
// header_files/ and writes the mappings.json ledger, replacing any previous
// run output. The returned map is the source-to-destination ledger.
func DecodeToStructure(ctx context.Context, inputPaths []string, outputDir string, opts StructureOptions) (map[string]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	decompDir := filepath.Join(outputDir, decompDirName)
	shipDir := filepath.Join(outputDir, shipDirName)
	headerDir := filepath.Join(outputDir, headerDirName)

	// An empty input set must fail before anything is written, so a bad run
	// never clobbers previous output. Diagnostics fire in the real batch run.
	if len(validateBatchInputs(inputPaths, BatchOptions{})) == 0 {
		return nil, ErrEmptyInputSet
	}

	if err := os.RemoveAll(outputDir); err != nil {
		return nil, fmt.Errorf("reset output dir: %w", err)
	}
	for _, dir := range []string{decompDir, shipDir, headerDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	// Structure flow extracts without number prefixes: sibling matching in
	// pass 2 works on the original section names.
	if _, err := DecodeBatch(ctx, inputPaths, BatchOptions{
		OutputDir:      decompDir,
		HeaderDir:      headerDir,
		OnInputSkipped: opts.OnInputSkipped,
		MaxWorkers:     opts.MaxWorkers,
		NumberNames:    false,
	}); err != nil {
		return nil, err
	}

	members, err := walkFiles(decompDir)
	if err != nil {
		return nil, err
	}

	mappings, err := ReconstructStructure(ctx, members, shipDir, opts)
	if err != nil {
		return nil, err
	}

	if err := writeMappings(filepath.Join(outputDir, mappingsFileName), mappings); err != nil {
		return nil, err
	}

	return mappings, nil
}

// ReconstructStructure rebuilds the intended hierarchy for a flat set of
// extracted members under shipDir and returns the source-to-destination
// ledger. Placement runs in two passes: direct routing first, then deferred
// satellite resolution against already placed siblings.
func ReconstructStructure(ctx context.Context, members []string, shipDir string, opts StructureOptions) (map[string]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	mappings := make(map[string]string, len(members))
	var deferred []deferredEntry

	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(member)
		parent := filepath.Base(filepath.Dir(member))

		// Satellites cannot be placed until their primary file exists,
		// unless they came out of an assets source folder.
		if satelliteMatcher.Included(name, false) && parent != assetsDirName {
			deferred = append(deferred, deferredEntry{source: member, suffixes: suffixesAfterGin(name)})
			continue
		}

		dest := routeMember(member, name, parent, shipDir)
		rel, ok := destRelativeToShip(dest, shipDir)
		if !ok || !isValidDestination(rel) {
			// Invalid or ship-root-degenerate destination: give the member a
			// second chance through the sibling matcher.
			deferred = append(deferred, deferredEntry{source: member, suffixes: suffixesAfterGin(name)})
			continue
		}

		if err := copyFile(member, dest); err != nil {
			return nil, err
		}

		mappings[member] = dest
	}

	for _, entry := range deferred {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dest, ok := resolveDeferred(entry, mappings)
		if !ok {
			if opts.OnUnresolved != nil {
				opts.OnUnresolved(entry.source)
			}

			continue
		}

		if err := copyFile(entry.source, dest); err != nil {
			return nil, err
		}

		mappings[entry.source] = dest
	}

	return mappings, nil
}

// routeMember computes the pass-1 destination for one member.
func routeMember(member, name, parent, shipDir string) string {
	if parent == assetsDirName {
		return filepath.Join(shipDir, decompAssetsDirName, name)
	}

	if fontMatcher.Included(name, false) {
		return filepath.Join(shipDir, fontsDirName, name)
	}

	// The game engine stores the asset's original project path inside the
	// payload itself at a fixed offset.
	embedded, err := readEmbeddedProjectPath(member)
	if err != nil {
		return filepath.Join(shipDir, name)
	}

	return filepath.Join(shipDir, filepath.FromSlash(strings.ReplaceAll(embedded, `\`, "/")))
}

// resolveDeferred matches one deferred member against already placed siblings.
func resolveDeferred(entry deferredEntry, mappings map[string]string) (string, bool) {
	dir := filepath.Dir(entry.source)
	name := filepath.Base(entry.source)
	stem := stemBeforeGin(name)

	ginKey := filepath.Join(dir, stem+ginExt)
	noExtKey := filepath.Join(dir, stem)

	if dest, ok := mappings[ginKey]; ok {
		chain := append([]string{ginExt}, entry.suffixes...)
		return siblingDest(dest, chain), true
	}

	if dest, ok := mappings[noExtKey]; ok {
		return siblingDest(dest, entry.suffixes), true
	}

	if name == pearlExceptionName {
		if dest, ok := mappings[filepath.Join(dir, pearlExceptionSibling)]; ok {
			base := trimLastSuffix(trimLastSuffix(filepath.Base(dest)))
			return filepath.Join(filepath.Dir(dest), base+pearlExceptionSuffix), true
		}
	}

	return "", false
}

// siblingDest re-appends the stripped suffix chain to a placed sibling's
// destination stem.
func siblingDest(siblingDestPath string, chain []string) string {
	base := trimLastSuffix(filepath.Base(siblingDestPath))
	return filepath.Join(filepath.Dir(siblingDestPath), base+strings.Join(chain, ""))
}

// destRelativeToShip returns dest relative to shipDir and whether it is a
// proper non-degenerate child of it.
func destRelativeToShip(dest, shipDir string) (string, bool) {
	rel, err := filepath.Rel(shipDir, dest)
	if err != nil {
		return "", false
	}
	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

// readEmbeddedProjectPath decodes the NUL-terminated project path stored at a
// fixed offset inside a member payload. The scan stops at a NUL byte or as
// soon as the accumulated text ends with ".gin"; a missing terminator inside
// the bounded window or invalid UTF-8 fails the decode.
func readEmbeddedProjectPath(member string) (string, error) {
	f, err := os.Open(member)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	window := make([]byte, embeddedPathScanLimit)
	n, err := f.ReadAt(window, embeddedPathOffset)
	if err != nil && err != io.EOF {
		return "", err
	}
	window = window[:n]

	var out []byte
	for i := 0; i < len(window); i++ {
		if window[i] == 0 {
			return validEmbeddedPath(out)
		}

		out = append(out, window[i])
		if len(out) >= len(ginExt) && string(out[len(out)-len(ginExt):]) == ginExt {
			return validEmbeddedPath(out)
		}
	}

	return "", fmt.Errorf("%w: no path terminator in member %s", ErrInvalidDestination, filepath.Base(member))
}

// validEmbeddedPath checks the decoded bytes are valid text.
func validEmbeddedPath(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: embedded path is not valid UTF-8", ErrInvalidDestination)
	}

	return string(raw), nil
}

// walkFiles lists every regular file under root.
func walkFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return out, nil
}

// copyFile copies one member to its destination, creating parents.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("copy %s: %w", src, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", dst, closeErr)
	}

	return nil
}

// writeMappings persists the ledger as indented JSON with lexicographically
// sorted keys, so a base file and its satellites sort adjacently.
func writeMappings(path string, mappings map[string]string) error {
	data, err := json.MarshalIndent(mappings, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal mappings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write mappings: %w", err)
	}

	return nil
}

// mustExtensionMatcher compiles a fixed extension routing table.
func mustExtensionMatcher(patterns ...string) *pathrules.Matcher {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: pattern,
		})
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		panic(err)
	}

	return matcher
}
