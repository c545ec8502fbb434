// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

import "strings"

// SizeOrder is the canonical ascending size sequence. Charts may carry any
// subset of it; range restriction and tie-breaking follow this order.
var SizeOrder = []string{"XXS", "XS", "S", "M", "L", "XL", "XXL", "3XL", "4XL", "5XL", "6XL"}

// sizeIndex maps upper-cased size names to their canonical position.
var sizeIndex = func() map[string]int {
	m := make(map[string]int, len(SizeOrder))
	for i, s := range SizeOrder {
		m[s] = i
	}
	return m
}()

// SizeIndex returns the canonical position of a size name
// (case-insensitive), or -1 for names outside the canonical order.
func SizeIndex(size string) int {
	if i, ok := sizeIndex[strings.ToUpper(strings.TrimSpace(size))]; ok {
		return i
	}
	return -1
}

// CanonicalSize returns the canonical spelling of a size name, or empty
// for names outside the canonical order.
func CanonicalSize(size string) string {
	i := SizeIndex(size)
	if i < 0 {
		return ""
	}
	return SizeOrder[i]
}

// SizeLess reports whether a precedes b in canonical order. Unknown sizes
// sort after all known ones.
func SizeLess(a, b string) bool {
	ia, ib := SizeIndex(a), SizeIndex(b)
	if ia < 0 {
		return false
	}
	if ib < 0 {
		return true
	}
	return ia < ib
}

// sizeInRange reports whether size falls inside the inclusive canonical
// sub-range [min, max]. Sizes outside the canonical order are never in
// range.
func sizeInRange(size, min, max string) bool {
	i := SizeIndex(size)
	lo, hi := SizeIndex(min), SizeIndex(max)
	if i < 0 || lo < 0 || hi < 0 {
		return false
	}
	return i >= lo && i <= hi
}
