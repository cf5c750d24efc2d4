// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import "strings"

// ginExt is the archive member extension the sibling matcher anchors on.
const ginExt = ".gin"

// lastSuffix returns the trailing ".ext" of a file name, or "" when the name
// has no extension. A leading dot alone does not count as an extension.
func lastSuffix(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return ""
	}

	return name[idx:]
}

// trimLastSuffix removes the trailing extension, if any.
func trimLastSuffix(name string) string {
	suffix := lastSuffix(name)
	return name[:len(name)-len(suffix)]
}

// stripUntilGin removes trailing extensions until the name ends with ".gin"
// or runs out of extensions. "Foo.gin.reloc" becomes "Foo.gin";
// "Foo.bar.baz" becomes "Foo".
func stripUntilGin(name string) string {
	for {
		suffix := lastSuffix(name)
		if suffix == "" || suffix == ginExt {
			return name
		}

		name = name[:len(name)-len(suffix)]
	}
}

// suffixesAfterGin returns the extensions that follow the ".gin" anchor in
// original order. "Foo.gin.reloc" yields [".reloc"]; a name without ".gin"
// yields its whole extension chain.
func suffixesAfterGin(name string) []string {
	var reversed []string
	for {
		suffix := lastSuffix(name)
		if suffix == "" || suffix == ginExt {
			break
		}

		reversed = append(reversed, suffix)
		name = name[:len(name)-len(suffix)]
	}

	out := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		out = append(out, reversed[i])
	}

	return out
}

// stemBeforeGin returns the member base name with the ".gin" anchor and any
// trailing extensions removed: the sibling lookup key stem.
func stemBeforeGin(name string) string {
	return strings.TrimSuffix(stripUntilGin(name), ginExt)
}
