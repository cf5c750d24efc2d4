// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// memberPayload builds section payload bytes carrying an embedded project path
// at the fixed offset.
func memberPayload(embedded string) []byte {
	payload := make([]byte, embeddedPathOffset)
	payload = append(payload, []byte(embedded)...)
	return append(payload, 0)
}

// writeMember writes one flat extracted member file, creating parents.
func writeMember(t *testing.T, path string, content []byte) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// mustDest fails unless the ledger places source at the exact destination.
func mustDest(t *testing.T, mappings map[string]string, source, dest string) {
	t.Helper()

	got, ok := mappings[source]
	if !ok {
		t.Fatalf("%s missing from ledger", filepath.Base(source))
	}
	if got != dest {
		t.Fatalf("%s: placed at %q, want %q", filepath.Base(source), got, dest)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("%s: destination not written: %v", filepath.Base(source), err)
	}
}

// TestReconstructStructure_Routing verifies the pass-1 placement rules:
// assets folder members, fonts, embedded project paths, and the flat fallback.
func TestReconstructStructure_Routing(t *testing.T) {
	flat := t.TempDir()
	ship := filepath.Join(t.TempDir(), "ship")

	// Assets and font members carry embedded paths pointing elsewhere; the
	// fixed routing rules must win anyway.
	members := []string{
		writeMember(t, filepath.Join(flat, "assets", "logo.png"), memberPayload("Elsewhere/logo.png")),
		writeMember(t, filepath.Join(flat, "assets", "extra.assets"), []byte("meta")),
		writeMember(t, filepath.Join(flat, "world", "Title.ttf"), memberPayload("Elsewhere/Title.ttf")),
		writeMember(t, filepath.Join(flat, "world", "Foo.gin"), memberPayload("Levels/Zone/Foo.gin")),
		writeMember(t, filepath.Join(flat, "world", "tiny"), []byte("ab")),
	}

	mappings, err := ReconstructStructure(context.Background(), members, ship, StructureOptions{})
	if err != nil {
		t.Fatalf("ReconstructStructure: %v", err)
	}
	if len(mappings) != 5 {
		t.Fatalf("expected 5 placed members, got %d", len(mappings))
	}

	mustDest(t, mappings, members[0], filepath.Join(ship, "decomp_assets", "logo.png"))
	// Satellite extensions under an assets source folder are not deferred.
	mustDest(t, mappings, members[1], filepath.Join(ship, "decomp_assets", "extra.assets"))
	mustDest(t, mappings, members[2], filepath.Join(ship, "fonts", "Title.ttf"))
	mustDest(t, mappings, members[3], filepath.Join(ship, "Levels", "Zone", "Foo.gin"))
	// No embedded path readable: the member lands flat at the ship root.
	mustDest(t, mappings, members[4], filepath.Join(ship, "tiny"))
}

// TestReconstructStructure_SatelliteSiblings verifies deferred members resolve
// against their placed primary file, via both the ".gin" key and the
// extensionless key.
func TestReconstructStructure_SatelliteSiblings(t *testing.T) {
	flat := t.TempDir()
	ship := filepath.Join(t.TempDir(), "ship")

	foo := writeMember(t, filepath.Join(flat, "world", "Foo.gin"), memberPayload("Levels/Zone/Foo.gin"))
	fooReloc := writeMember(t, filepath.Join(flat, "world", "Foo.gin.reloc"), []byte("reloc"))
	bar := writeMember(t, filepath.Join(flat, "world", "Bar"), memberPayload("Props/Bar"))
	barAlloc := writeMember(t, filepath.Join(flat, "world", "Bar.alloc"), []byte("alloc"))

	mappings, err := ReconstructStructure(context.Background(),
		[]string{fooReloc, barAlloc, foo, bar}, ship, StructureOptions{})
	if err != nil {
		t.Fatal(err)
	}

	mustDest(t, mappings, fooReloc, filepath.Join(ship, "Levels", "Zone", "Foo.gin.reloc"))
	mustDest(t, mappings, barAlloc, filepath.Join(ship, "Props", "Bar.alloc"))
}

// TestReconstructStructure_UnresolvedSatellite verifies a satellite with no
// placed sibling is dropped with a diagnostic.
func TestReconstructStructure_UnresolvedSatellite(t *testing.T) {
	flat := t.TempDir()
	ship := filepath.Join(t.TempDir(), "ship")

	orphan := writeMember(t, filepath.Join(flat, "world", "Orphan.gin.reloc"), []byte("reloc"))

	var unresolved []string
	mappings, err := ReconstructStructure(context.Background(), []string{orphan}, ship, StructureOptions{
		OnUnresolved: func(path string) { unresolved = append(unresolved, path) },
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(mappings) != 0 {
		t.Errorf("orphan placed anyway: %v", mappings)
	}
	if len(unresolved) != 1 || unresolved[0] != orphan {
		t.Errorf("unresolved diagnostic: %v", unresolved)
	}
}

// TestReconstructStructure_PearlException verifies the hard-coded bypass for
// the known pathological name collision.
func TestReconstructStructure_PearlException(t *testing.T) {
	flat := t.TempDir()
	ship := filepath.Join(t.TempDir(), "ship")

	primary := writeMember(t, filepath.Join(flat, "fac", pearlExceptionSibling),
		memberPayload("Factory/"+pearlExceptionSibling))
	// The inverted variant carries no usable embedded path, so pass 1 defers it.
	inverted := writeMember(t, filepath.Join(flat, "fac", pearlExceptionName),
		memberPayload(`bad<dest`))

	mappings, err := ReconstructStructure(context.Background(), []string{primary, inverted}, ship, StructureOptions{})
	if err != nil {
		t.Fatal(err)
	}

	mustDest(t, mappings, primary, filepath.Join(ship, "Factory", pearlExceptionSibling))
	mustDest(t, mappings, inverted, filepath.Join(ship, "Factory", pearlExceptionName))
}

// TestDecodeToStructure_EndToEnd runs the full flow against a real archive:
// batch decode, placement, sibling resolution, and the persisted ledger.
func TestDecodeToStructure_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	payload := memberPayload("Levels/Zone/Foo.gin")
	archive := filepath.Join(dir, "world.gin")
	if err := os.WriteFile(archive, buildArchiveBytes(t, []testSection{
		rawSection("Foo.gin", payload),
		rawSection("Foo.gin.reloc", []byte("reloc-data")),
	}), 0o600); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(t.TempDir(), "out")
	mappings, err := DecodeToStructure(context.Background(), []string{archive}, outDir, StructureOptions{})
	if err != nil {
		t.Fatalf("DecodeToStructure: %v", err)
	}
	if len(mappings) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(mappings))
	}

	placed, err := os.ReadFile(filepath.Join(outDir, "ship", "Levels", "Zone", "Foo.gin"))
	if err != nil {
		t.Fatalf("primary not placed: %v", err)
	}
	if !bytes.Equal(placed, payload) {
		t.Error("placed payload mismatch")
	}
	if _, err := os.Stat(filepath.Join(outDir, "ship", "Levels", "Zone", "Foo.gin.reloc")); err != nil {
		t.Errorf("satellite not placed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "header_files", "world.gin.json")); err != nil {
		t.Errorf("header file sidecar missing: %v", err)
	}

	// The flat extraction stays available next to the reconstructed tree.
	if _, err := os.Stat(filepath.Join(outDir, "decompiled", "world", "Foo.gin")); err != nil {
		t.Errorf("flat member missing: %v", err)
	}

	ledger, err := os.ReadFile(filepath.Join(outDir, "mappings.json"))
	if err != nil {
		t.Fatal(err)
	}
	persisted := make(map[string]string)
	if err := json.Unmarshal(ledger, &persisted); err != nil {
		t.Fatal(err)
	}
	if len(persisted) != len(mappings) {
		t.Errorf("persisted ledger has %d entries, want %d", len(persisted), len(mappings))
	}
}

// TestDecodeToStructure_EmptyInputKeepsOldOutput verifies a run with no valid
// input fails before the previous output directory is removed.
func TestDecodeToStructure_EmptyInputKeepsOldOutput(t *testing.T) {
	outDir := t.TempDir()
	marker := filepath.Join(outDir, "previous-run.txt")
	if err := os.WriteFile(marker, []byte("keep me"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := DecodeToStructure(context.Background(),
		[]string{filepath.Join(t.TempDir(), "missing.gin")}, outDir, StructureOptions{})
	if !errors.Is(err, ErrEmptyInputSet) {
		t.Fatalf("expected ErrEmptyInputSet, got %v", err)
	}

	if _, err := os.Stat(marker); err != nil {
		t.Errorf("previous output clobbered: %v", err)
	}
}
