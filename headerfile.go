// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// HeaderFile is the lossless text-serialized form of an archive's main header
// plus its ordered section table. It is the decode/encode contract: together
// with the section payloads it is everything the encoder needs to reproduce
// an equivalent archive. Binary fields serialize as base64 so every byte
// round-trips exactly while the file stays human-diffable.
type HeaderFile struct {
	// Main is the archive main header.
	Main MainHeader `json:"main"`
	// Sections holds descriptors ordered by 0-based table index.
	Sections []SectionHeader `json:"sections"`
}

// MarshalJSON emits the sections table as an object keyed by table index,
// in ascending numeric order. Plain map marshaling would order "10" before
// "2" and break the index ordering contract.
func (hf *HeaderFile) MarshalJSON() ([]byte, error) {
	mainJSON, err := json.Marshal(&hf.Main)
	if err != nil {
		return nil, fmt.Errorf("marshal main header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"main":`)
	buf.Write(mainJSON)
	buf.WriteString(`,"sections":{`)
	for i := range hf.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}

		buf.WriteByte('"')
		buf.WriteString(strconv.Itoa(i))
		buf.WriteString(`":`)

		sectionJSON, err := json.Marshal(&hf.Sections[i])
		if err != nil {
			return nil, fmt.Errorf("marshal section %d: %w", i, err)
		}

		buf.Write(sectionJSON)
	}
	buf.WriteString("}}")

	return buf.Bytes(), nil
}

// UnmarshalJSON parses the index-keyed sections object back into table order.
func (hf *HeaderFile) UnmarshalJSON(data []byte) error {
	var aux struct {
		Main     MainHeader               `json:"main"`
		Sections map[string]SectionHeader `json:"sections"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	indexes := make([]int, 0, len(aux.Sections))
	for key := range aux.Sections {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return fmt.Errorf("header file: bad section index %q", key)
		}

		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	sections := make([]SectionHeader, 0, len(indexes))
	for want, idx := range indexes {
		if idx != want {
			return fmt.Errorf("header file: section table has a gap at index %d", want)
		}

		sections = append(sections, aux.Sections[strconv.Itoa(idx)])
	}

	hf.Main = aux.Main
	hf.Sections = sections
	return nil
}

// SaveHeaderFile writes the header file as indented JSON to path.
func SaveHeaderFile(path string, hf *HeaderFile) error {
	if hf == nil {
		return ErrNilHeaderFile
	}

	data, err := json.MarshalIndent(hf, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal header file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write header file: %w", err)
	}

	return nil
}

// LoadHeaderFile parses a header file from path.
func LoadHeaderFile(path string) (*HeaderFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read header file: %w", err)
	}

	hf := &HeaderFile{}
	if err := json.Unmarshal(data, hf); err != nil {
		return nil, fmt.Errorf("parse header file: %w", err)
	}

	if err := hf.normalizeWidths(); err != nil {
		return nil, err
	}

	return hf, nil
}

// normalizeWidths pads short fixed-width binary fields with zeros and rejects
// overlong ones. Hand-edited header files may hold trimmed values; the wire
// format always needs the full width.
func (hf *HeaderFile) normalizeWidths() error {
	var err error
	if hf.Main.Reserved, err = fitWidth("main.reserved", hf.Main.Reserved, reservedLen); err != nil {
		return err
	}
	if hf.Main.FileID, err = fitWidth("main.file_id", hf.Main.FileID, idLen); err != nil {
		return err
	}
	if hf.Main.FilePath, err = fitWidth("main.file_path", hf.Main.FilePath, maxPathLen); err != nil {
		return err
	}
	if hf.Main.Checksum, err = fitWidth("main.checksum", hf.Main.Checksum, checksumLen); err != nil {
		return err
	}

	for i := range hf.Sections {
		s := &hf.Sections[i]
		if s.Name, err = fitWidth(fmt.Sprintf("section %d name", i), s.Name, sectionNameLen); err != nil {
			return err
		}
		if s.Params, err = fitWidth(fmt.Sprintf("section %d params", i), s.Params, sectionParamsLen); err != nil {
			return err
		}
		if s.SectionID, err = fitWidth(fmt.Sprintf("section %d id", i), s.SectionID, idLen); err != nil {
			return err
		}
		if s.Checksum, err = fitWidth(fmt.Sprintf("section %d checksum", i), s.Checksum, checksumLen); err != nil {
			return err
		}
	}

	return nil
}

// fitWidth pads value to width with zeros or fails when value is overlong.
func fitWidth(field string, value []byte, width int) ([]byte, error) {
	if len(value) > width {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrHeaderFieldWidth, field, len(value), width)
	}
	if len(value) == width {
		return value, nil
	}

	padded := make([]byte, width)
	copy(padded, value)
	return padded, nil
}
