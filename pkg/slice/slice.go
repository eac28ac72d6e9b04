// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice adds the generic Map and Filter helpers missing from [slices].
package slice

// Map returns fn applied to every element of in. A nil input yields nil.
func Map[T, U any](in []T, fn func(T) U) []U {
	if in == nil {
		return nil
	}
	out := make([]U, 0, len(in))
	for _, item := range in {
		out = append(out, fn(item))
	}
	return out
}

// Filter returns the elements of in for which keep is true, in order.
// The input is left untouched.
func Filter[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, item := range in {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
