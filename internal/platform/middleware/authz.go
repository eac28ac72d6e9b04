// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/kbase/internal/platform/apperr"
	"github.com/taibuivan/kbase/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/kbase/internal/platform/request"
	"github.com/taibuivan/kbase/internal/platform/respond"
	"github.com/taibuivan/kbase/internal/platform/sec"
)

// Authenticator resolves a bearer token into an active principal.
//
// Defining it here decouples the middleware from the auth service, so tests can
// inject a fake.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (*sec.Principal, error)
}

// Authenticate extracts and verifies the bearer token from the Authorization header.
//
// # Flow
//  1. No Authorization header: the request proceeds as anonymous.
//  2. Malformed header: 401.
//  3. Token rejected: the authenticator's error is rendered (401 for bad tokens,
//     403 for inactive identities).
//  4. Otherwise the [*sec.Principal] is injected into the request context.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token, wellFormed := requestutil.BearerToken(request)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if wellFormed && token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			if !wellFormed {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			principal, err := authenticator.Authenticate(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", principal.UserID)))
			if requestCaller, ok := ctx.Value(callerKey{}).(*caller); ok {
				requestCaller.userID = principal.UserID
			}
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated caller doesn't have the required role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It implies
// [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Anonymous caller: 401 Unauthorized.
//  2. Role below required under [sec.Authorize]: 403 Forbidden.
func RequireRole(required sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !principal.Can(required) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
