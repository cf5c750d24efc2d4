// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import "strings"

// filterSectionsByPrefix keeps sections whose trimmed name starts with prefix.
func filterSectionsByPrefix(sections []SectionHeader, prefix string) []SectionHeader {
	if prefix == "" {
		return sections
	}

	out := make([]SectionHeader, 0, len(sections))
	for i := range sections {
		if strings.HasPrefix(sections[i].NameString(), prefix) {
			out = append(out, sections[i])
		}
	}

	return out
}

// filterSectionsByMinSize keeps sections whose uncompressed size meets the threshold.
func filterSectionsByMinSize(sections []SectionHeader, minSize uint32) []SectionHeader {
	if minSize == 0 {
		return sections
	}

	out := make([]SectionHeader, 0, len(sections))
	for i := range sections {
		if sections[i].Size >= minSize {
			out = append(out, sections[i])
		}
	}

	return out
}

// sanitizeSectionNames rewrites section names to filesystem-safe output form
// for listing workflows.
func sanitizeSectionNames(sections []SectionHeader) []SectionHeader {
	out := make([]SectionHeader, len(sections))
	for i := range sections {
		out[i] = sections[i]
		out[i].Name = []byte(SanitizeSectionName(sections[i].NameString()))
	}

	return out
}
