// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"strings"
	"unicode"
)

const (
	// maxDestSegmentLen limits one destination path segment to common filesystem-safe length.
	maxDestSegmentLen = 240
)

var (
	// reservedDOSNames contains case-insensitive reserved DOS/Windows device names.
	// Reconstructed destinations must stay legal on the game's shipping platform.
	reservedDOSNames = map[string]struct{}{
		"aux":    {},
		"clock$": {},
		"com1":   {},
		"com2":   {},
		"com3":   {},
		"com4":   {},
		"com5":   {},
		"com6":   {},
		"com7":   {},
		"com8":   {},
		"com9":   {},
		"con":    {},
		"lpt1":   {},
		"lpt2":   {},
		"lpt3":   {},
		"lpt4":   {},
		"lpt5":   {},
		"lpt6":   {},
		"lpt7":   {},
		"lpt8":   {},
		"lpt9":   {},
		"nul":    {},
		"prn":    {},
	}
)

// SanitizeSectionName rewrites a section name to the flat extraction form:
// only alphanumeric runes, '_', '-', and '.' survive, everything else is dropped.
func SanitizeSectionName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// isValidDestination reports whether a slash-separated relative destination
// is a legal Windows filesystem path. Unlike extraction-name sanitizing this
// is a check, not a rewrite: an illegal destination defers the member instead.
func isValidDestination(relPath string) bool {
	relPath = strings.ReplaceAll(relPath, `\`, `/`)
	relPath = strings.Trim(relPath, "/")
	if relPath == "" {
		return false
	}

	for _, segment := range strings.Split(relPath, "/") {
		if !isValidDestSegment(segment) {
			return false
		}
	}

	return true
}

// isValidDestSegment validates one destination path segment.
func isValidDestSegment(segment string) bool {
	if segment == "" || segment == "." || segment == ".." {
		return false
	}
	if len(segment) > maxDestSegmentLen {
		return false
	}
	if strings.HasSuffix(segment, ".") || strings.HasSuffix(segment, " ") {
		return false
	}
	if isReservedDeviceName(segment) {
		return false
	}

	for _, r := range segment {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			return false
		}
	}

	return true
}

// isReservedDeviceName reports whether name matches a reserved device identifier.
func isReservedDeviceName(name string) bool {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}
	candidate = strings.TrimRight(candidate, ". ")
	if candidate == "" {
		return false
	}

	_, ok := reservedDOSNames[candidate]
	return ok
}
