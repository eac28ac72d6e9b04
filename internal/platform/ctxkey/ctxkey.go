// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey holds the context keys shared by middleware and handlers.
// Read and write them through ctxutil rather than directly.
package ctxkey

// key is unexported so no other package can construct a colliding key.
type key int

const (
	// KeyRequestID carries the X-Request-ID correlation value.
	KeyRequestID key = iota + 1

	// KeyPrincipal carries the authenticated caller ([sec.Principal]).
	KeyPrincipal

	// KeyLogger carries the request-scoped [*log/slog.Logger].
	KeyLogger

	// KeyClientIP carries the client address resolved against trusted proxies.
	KeyClientIP
)
