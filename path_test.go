// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"reflect"
	"testing"
)

// TestLastSuffix verifies extension extraction semantics, including hidden
// files whose leading dot is not an extension.
func TestLastSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"file.txt", ".txt"},
		{"file.tar.gz", ".gz"},
		{"noext", ""},
		{".hidden", ""},
		{"a.b", ".b"},
		{"", ""},
	}

	for _, c := range cases {
		if got := lastSuffix(c.in); got != c.want {
			t.Errorf("lastSuffix(%q) = %q, want %q", c.in, got, c.want)
		}
		trimmed := c.in[:len(c.in)-len(c.want)]
		if got := trimLastSuffix(c.in); got != trimmed {
			t.Errorf("trimLastSuffix(%q) = %q, want %q", c.in, got, trimmed)
		}
	}
}

// TestStripUntilGin verifies suffix stripping anchors on the archive extension.
func TestStripUntilGin(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Foo.gin.reloc", "Foo.gin"},
		{"Foo.gin.reloc.alloc", "Foo.gin"},
		{"Foo.gin", "Foo.gin"},
		{"Foo.bar.baz", "Foo"},
		{"Foo", "Foo"},
	}

	for _, c := range cases {
		if got := stripUntilGin(c.in); got != c.want {
			t.Errorf("stripUntilGin(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestSuffixesAfterGin verifies the stripped chain keeps original order.
func TestSuffixesAfterGin(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Foo.gin.reloc", []string{".reloc"}},
		{"Foo.gin.reloc.alloc", []string{".reloc", ".alloc"}},
		{"Foo.gin", nil},
		{"Foo.bar.baz", []string{".bar", ".baz"}},
		{"Foo", nil},
	}

	for _, c := range cases {
		got := suffixesAfterGin(c.in)
		if len(got) == 0 && len(c.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("suffixesAfterGin(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// TestStemBeforeGin verifies the sibling lookup key stem.
func TestStemBeforeGin(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Foo.gin.reloc", "Foo"},
		{"Foo.gin", "Foo"},
		{"Bar.alloc", "Bar"},
		{"Bar", "Bar"},
	}

	for _, c := range cases {
		if got := stemBeforeGin(c.in); got != c.want {
			t.Errorf("stemBeforeGin(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
