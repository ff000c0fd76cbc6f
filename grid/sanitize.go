// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// illegal lists the runes removed from cell text: the C0 controls the markup
// does not allow, and '&'.
var illegal = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00, Hi: 0x08, Stride: 1},
		{Lo: 0x0B, Hi: 0x0C, Stride: 1},
		{Lo: 0x0E, Hi: 0x1F, Stride: 1},
		{Lo: 0x26, Hi: 0x26, Stride: 1},
	},
	LatinOffset: 4,
}

var stripIllegal = runes.Remove(runes.In(illegal))

// Sanitize removes the runes the target markup forbids from s.
//
// The ampersand is dropped as well, it is not escaped.
func Sanitize(s string) string {
	if !hasIllegal(s) {
		return s
	}
	t, _, err := transform.String(stripIllegal, s)
	if err != nil {
		return s
	}
	return t
}

func hasIllegal(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c == '&' {
			if c != '\t' && c != '\n' && c != '\r' {
				return true
			}
		}
	}
	return false
}
