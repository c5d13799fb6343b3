// Package utils provides small generic helpers used across the packages.
package utils

import (
	"strings"
)

// Map applies mapper to every element of coll, passing the element index.
func Map[A any, B any](coll []A, mapper func(A, uint64) B) []B {
	out := make([]B, len(coll))
	for i, item := range coll {
		out[i] = mapper(item, uint64(i))
	}
	return out
}

// Filter returns the elements of coll for which criteria returns true.
func Filter[A any](coll []A, criteria func(A) bool) []A {
	out := make([]A, 0)
	for _, item := range coll {
		if criteria(item) {
			out = append(out, item)
		}
	}
	return out
}

// AreAddressesEqual compares two hex addresses, ignoring case.
func AreAddressesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// SplitAndTrim splits s on sep, trims each element and drops empty ones.
func SplitAndTrim(s string, sep string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
