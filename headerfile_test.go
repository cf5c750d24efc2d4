// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// testHeaderFile builds a header file with count fully populated sections.
func testHeaderFile(count int) *HeaderFile {
	hf := &HeaderFile{
		Main: MainHeader{
			Magic:        Magic,
			Version:      3,
			Reserved:     testPattern(reservedLen, 0x01),
			FileID:       testPattern(idLen, 0xAA),
			Reserved2:    9,
			FilePath:     fixedWidth("Levels/hf.gin", maxPathLen),
			SectionCount: uint32(count),
			Checksum:     testPattern(checksumLen, 0xBB),
		},
	}

	for i := 0; i < count; i++ {
		hf.Sections = append(hf.Sections, SectionHeader{
			Name:           fixedWidth(fmt.Sprintf("section_%02d", i), sectionNameLen),
			Offset:         uint64(1000 + i*100),
			Size:           uint32(50 + i),
			CompressedSize: uint32(i % 3 * 10),
			Flags:          SectionFlags(i % 3),
			Params:         testPattern(sectionParamsLen, byte(i)),
			SectionVersion: uint32(i),
			SectionID:      testPattern(idLen, byte(0x40+i)),
			Checksum:       testPattern(checksumLen, byte(0x60+i)),
		})
	}

	return hf
}

// TestHeaderFile_RoundTrip verifies a marshal/unmarshal cycle preserves every
// field and the table order past ten sections, where plain map key ordering
// would put "10" before "2".
func TestHeaderFile_RoundTrip(t *testing.T) {
	hf := testHeaderFile(13)

	data, err := json.Marshal(hf)
	if err != nil {
		t.Fatal(err)
	}

	got := &HeaderFile{}
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatal(err)
	}

	if got.Main.Version != hf.Main.Version || !bytes.Equal(got.Main.FilePath, hf.Main.FilePath) {
		t.Error("main header changed in round trip")
	}
	if len(got.Sections) != 13 {
		t.Fatalf("expected 13 sections, got %d", len(got.Sections))
	}
	for i := range got.Sections {
		want := fmt.Sprintf("section_%02d", i)
		if got.Sections[i].NameString() != want {
			t.Errorf("section %d: name %q, want %q", i, got.Sections[i].NameString(), want)
		}
		if got.Sections[i].Offset != hf.Sections[i].Offset {
			t.Errorf("section %d: offset %d, want %d", i, got.Sections[i].Offset, hf.Sections[i].Offset)
		}
		if !bytes.Equal(got.Sections[i].Params, hf.Sections[i].Params) {
			t.Errorf("section %d: params changed", i)
		}
	}
}

// TestHeaderFile_MarshalIndexOrder verifies the raw JSON emits section keys in
// ascending numeric order.
func TestHeaderFile_MarshalIndexOrder(t *testing.T) {
	data, err := json.Marshal(testHeaderFile(12))
	if err != nil {
		t.Fatal(err)
	}

	text := string(data)
	prev := -1
	for i := 0; i < 12; i++ {
		pos := strings.Index(text, fmt.Sprintf(`"%d":`, i))
		if pos < 0 {
			t.Fatalf("section key %d missing from JSON", i)
		}
		if pos < prev {
			t.Fatalf("section key %d out of order", i)
		}
		prev = pos
	}
}

// TestHeaderFile_UnmarshalRejectsGaps verifies a sections object with a hole
// in the index sequence fails to parse.
func TestHeaderFile_UnmarshalRejectsGaps(t *testing.T) {
	data, err := json.Marshal(testHeaderFile(3))
	if err != nil {
		t.Fatal(err)
	}
	gapped := strings.Replace(string(data), `"1":`, `"5":`, 1)

	if err := json.Unmarshal([]byte(gapped), &HeaderFile{}); err == nil {
		t.Fatal("expected gap error")
	}

	bad := strings.Replace(string(data), `"1":`, `"x":`, 1)
	if err := json.Unmarshal([]byte(bad), &HeaderFile{}); err == nil {
		t.Fatal("expected bad-index error")
	}
}

// TestHeaderFile_SaveLoad verifies the file round trip through disk.
func TestHeaderFile_SaveLoad(t *testing.T) {
	hf := testHeaderFile(4)
	path := filepath.Join(t.TempDir(), "archive.gin.json")

	if err := SaveHeaderFile(path, hf); err != nil {
		t.Fatal(err)
	}

	got, err := LoadHeaderFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(got.Sections))
	}
	if !bytes.Equal(got.Main.Checksum, hf.Main.Checksum) {
		t.Error("main checksum changed through disk round trip")
	}

	if err := SaveHeaderFile(filepath.Join(t.TempDir(), "nil.json"), nil); !errors.Is(err, ErrNilHeaderFile) {
		t.Errorf("expected ErrNilHeaderFile, got %v", err)
	}
}

// TestHeaderFile_NormalizeWidths verifies short fixed-width fields are padded
// on load and overlong ones are rejected.
func TestHeaderFile_NormalizeWidths(t *testing.T) {
	hf := testHeaderFile(1)
	hf.Main.FileID = []byte{0xAA, 0xBB}
	hf.Sections[0].Name = []byte("short")

	path := filepath.Join(t.TempDir(), "trimmed.json")
	if err := SaveHeaderFile(path, hf); err != nil {
		t.Fatal(err)
	}

	got, err := LoadHeaderFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Main.FileID) != idLen {
		t.Errorf("file id not padded: %d bytes", len(got.Main.FileID))
	}
	if len(got.Sections[0].Name) != sectionNameLen {
		t.Errorf("section name not padded: %d bytes", len(got.Sections[0].Name))
	}
	if got.Sections[0].NameString() != "short" {
		t.Errorf("padded name: got %q", got.Sections[0].NameString())
	}

	over := testHeaderFile(1)
	over.Sections[0].Name = bytes.Repeat([]byte("n"), sectionNameLen+1)
	if err := over.normalizeWidths(); !errors.Is(err, ErrHeaderFieldWidth) {
		t.Errorf("expected ErrHeaderFieldWidth, got %v", err)
	}
}
