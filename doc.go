// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

/*
Package gin provides read, extract, structure-reconstruction, and encode
operations for GIN game archive containers. A GIN archive holds a fixed main
header, a contiguous table of section descriptors, and independently offset,
independently compressed payload blocks (raw, LZ4 block, or ZSTD, selected by
a per-section flags bitmask).

Decoding writes each section to a flat output file plus a lossless JSON
"header file" sidecar; the sidecar together with the payloads is everything
Encode needs to rebuild an equivalent archive.

# Reading

Open an archive and read sections:

	r, err := gin.Open("world.gin")
	if err != nil {
	    return err
	}
	defer r.Close()
	for i, s := range r.Sections() {
	    data, _ := r.ReadSection(i)
	    _ = s.NameString()
	    // use data
	}

For metadata-only scans, use fast helpers without creating a full reader:

	head, err := gin.ReadMainHeader("world.gin")
	if err != nil {
	    return err
	}
	sections, err := gin.ListSections("world.gin")
	if err != nil {
	    return err
	}
	_, _ = head, sections

# Extracting

Decode one archive to flat files plus the header file sidecar:

	paths, err := gin.Decode(ctx, "world.gin", gin.DecodeOptions{
	    OutputDir:   "out/world",
	    HeaderDir:   "out/headers",
	    NumberNames: true,
	})

Decode a whole batch with globally unique, strictly increasing sequence
numbers (ranges are pre-reserved from section counts, so output is
deterministic even with parallel workers):

	paths, err = gin.DecodeBatch(ctx, inputs, gin.BatchOptions{
	    OutputDir:   "out/decompiled",
	    HeaderDir:   "out/headers",
	    NumberNames: true,
	    MaxWorkers:  4,
	    OnInputSkipped: func(path string, reason error) {
	        // skipped candidate diagnostic
	    },
	})

# Structure reconstruction

Rebuild the archives' original directory hierarchy under ship/ and write the
source-to-destination ledger:

	mappings, err := gin.DecodeToStructure(ctx, inputs, "out", gin.StructureOptions{
	    OnUnresolved: func(path string) {
	        // satellite member with no placed sibling
	    },
	})
	_ = mappings

# Encoding

Rebuild an archive from a header file and (possibly hand-edited) payloads:

	hf, err := gin.LoadHeaderFile("out/headers/world.gin.json")
	if err != nil {
	    return err
	}
	open, err := gin.MappedPayloads("out/mappings.json", "out/decompiled/world")
	if err != nil {
	    return err
	}
	err = gin.EncodeFile(ctx, "world.gin", hf, open, gin.EncodeOptions{
	    ChecksumPolicy: gin.ChecksumCarry,
	})

Checksum fields are carried through unchanged by default; recomputation is an
explicit opt-in policy (gin.ChecksumRecompute).
*/
package gin
