// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer builds pointers to literals, mostly for optional fields such
// as the nil-means-unchanged members of an update.
package pointer

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}
