// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/kbase/internal/platform/apperr"
	"github.com/taibuivan/kbase/internal/platform/metrics"
	"github.com/taibuivan/kbase/internal/platform/sec"
	"github.com/taibuivan/kbase/internal/system/audit"
	"github.com/taibuivan/kbase/internal/users/identity"
	"github.com/taibuivan/kbase/pkg/slug"
	"github.com/taibuivan/kbase/pkg/uuid"
)

// # Service

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any change to the login, refresh or
// authenticate paths must keep every credential failure indistinguishable.
type Service struct {
	identities identity.Repository
	hasher     *sec.PasswordHasher
	codec      *sec.TokenCodec
	verifier   *sec.TokenVerifier
	logger     *slog.Logger

	denylist sec.Denylist
	metrics  *metrics.Metrics
	trail    *audit.Trail
	now      func() time.Time
}

// Option wires an optional collaborator into the [Service].
type Option func(*Service)

// WithDenylist enables token revocation.
func WithDenylist(denylist sec.Denylist) Option {
	return func(service *Service) { service.denylist = denylist }
}

// WithMetrics counts logins and token outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(service *Service) { service.metrics = m }
}

// WithTrail records security events.
func WithTrail(trail *audit.Trail) Option {
	return func(service *Service) { service.trail = trail }
}

// WithClock replaces time.Now for last-login stamps.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// NewService constructs a new [Service] with its required dependencies.
func NewService(
	identities identity.Repository,
	hasher *sec.PasswordHasher,
	codec *sec.TokenCodec,
	verifier *sec.TokenVerifier,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	service := &Service{
		identities: identities,
		hasher:     hasher,
		codec:      codec,
		verifier:   verifier,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// # Login

/*
Login validates credentials and issues a token pair.

Description: Unknown email, ambiguous email, wrong password and disabled
accounts all fail with the same [apperr.InvalidCredentials]. Unknown emails
still pay for one bcrypt comparison so response times do not reveal which
accounts exist.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *Session: Token pair and identity
  - error: InvalidCredentials or storage failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	found, err := service.identities.FindByEmail(ctx, input.Email, input.OrganizationSlug)
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) && !errors.Is(err, identity.ErrAmbiguous) {
			return nil, fmt.Errorf("auth_service_find_identity_failed: %w", err)
		}
		service.hasher.Equalize(input.Password)
		service.loginFailed(ctx, nil, input, "unknown_identity")
		return nil, apperr.InvalidCredentials()
	}

	// The hash is checked before the active flag so both paths cost the same.
	if !service.hasher.Verify(input.Password, found.PasswordHash) {
		service.loginFailed(ctx, found, input, "wrong_password")
		return nil, apperr.InvalidCredentials()
	}
	if !found.Active() {
		service.loginFailed(ctx, found, input, "inactive")
		return nil, apperr.InvalidCredentials()
	}

	loginTime := service.now().UTC()
	if err := service.identities.TouchLastLogin(ctx, found.ID, loginTime); err != nil {
		service.logger.WarnContext(ctx, "auth_touch_last_login_failed",
			slog.String("user_id", found.ID),
			slog.Any("error", err),
		)
	} else {
		found.LastLoginAt = &loginTime
	}

	session, err := service.issue(found)
	if err != nil {
		return nil, err
	}

	service.metrics.Login(metrics.LoginSuccess)
	service.trail.Record(ctx, audit.Entry{
		OrganizationID: found.OrganizationID,
		ActorID:        found.ID,
		Action:         audit.ActionLoginSuccess,
		IPAddress:      input.Client.IPAddress,
		UserAgent:      input.Client.UserAgent,
	})

	return session, nil
}

func (service *Service) loginFailed(ctx context.Context, found *identity.Identity, input LoginInput, reason string) {
	service.metrics.Login(metrics.LoginFailure)

	entry := audit.Entry{
		Action:    audit.ActionLoginFailure,
		IPAddress: input.Client.IPAddress,
		UserAgent: input.Client.UserAgent,
		Metadata:  map[string]any{"email": identity.NormalizeEmail(input.Email), "reason": reason},
	}
	if found != nil {
		entry.OrganizationID = found.OrganizationID
		entry.ActorID = found.ID
	}
	service.trail.Record(ctx, entry)
}

// # Refresh

/*
Refresh exchanges a refresh token for a new pair.

Description: The identity must still exist and be active. The presented
refresh token stays valid until its own expiry unless a denylist is
configured, in which case it is consumed on use: of any number of
concurrent refreshes with the same token exactly one receives a pair.

Parameters:
  - ctx: context.Context
  - refreshToken: string
  - client: ClientInfo

Returns:
  - *Session: New token pair
  - error: InvalidToken or storage failures
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*Session, error) {
	claims, err := service.verify(ctx, refreshToken, sec.TokenRefresh)
	if err != nil {
		return nil, err
	}

	found, err := service.identities.FindByID(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperr.InvalidToken()
		}
		return nil, fmt.Errorf("auth_service_find_identity_failed: %w", err)
	}
	if !found.Active() {
		return nil, apperr.InvalidToken()
	}

	// Consuming the token is the atomic step; the IsRevoked check in verify
	// only rejects replays that arrive after it.
	first, err := service.revoke(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !first {
		service.metrics.TokenRejected(sec.TokenRefresh)
		service.logger.WarnContext(ctx, "auth_refresh_token_reused",
			slog.String("user_id", found.ID),
			slog.String("token_family", claims.Family()),
		)
		return nil, apperr.InvalidToken()
	}

	session, err := service.issue(found)
	if err != nil {
		return nil, err
	}

	service.trail.Record(ctx, audit.Entry{
		OrganizationID: found.OrganizationID,
		ActorID:        found.ID,
		Action:         audit.ActionTokenRefresh,
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
		Metadata:       map[string]any{"token_family": claims.Family()},
	})

	return session, nil
}

// # Authentication

/*
Authenticate resolves a bearer access token into the calling principal.

Description: Verifies the token, consults the denylist when one is
configured, loads the identity and requires it to be active. Every token
problem surfaces as 401; a valid token for a disabled identity is 403.

Parameters:
  - ctx: context.Context
  - bearerToken: string

Returns:
  - *sec.Principal: The authenticated caller
  - error: InvalidToken (401), Forbidden (403) or storage failures
*/
func (service *Service) Authenticate(ctx context.Context, bearerToken string) (*sec.Principal, error) {
	claims, err := service.verify(ctx, bearerToken, sec.TokenAccess)
	if err != nil {
		return nil, err
	}

	found, err := service.identities.FindByID(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperr.InvalidToken()
		}
		return nil, fmt.Errorf("auth_service_find_identity_failed: %w", err)
	}

	if _, err := sec.RequireActive(found); err != nil {
		return nil, apperr.Forbidden("Inactive user")
	}

	return &sec.Principal{
		UserID:         found.ID,
		OrganizationID: found.OrganizationID,
		Email:          found.Email,
		Role:           found.Role,
		TokenID:        claims.TokenID(),
		TokenExpiresAt: claims.ExpiresAt(),
	}, nil
}

// Authorize returns nil when principal holds at least the required role.
func (service *Service) Authorize(principal *sec.Principal, required sec.Role) error {
	if principal == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if !principal.Can(required) {
		return apperr.Forbidden("Insufficient permissions")
	}
	return nil
}

// verify runs the token verifier and the denylist, counting rejections.
func (service *Service) verify(ctx context.Context, token string, expected sec.TokenType) (sec.Claims, error) {
	claims, err := service.verifier.Verify(token, expected)
	if err != nil {
		service.metrics.TokenRejected(expected)
		service.logger.DebugContext(ctx, "auth_token_rejected",
			slog.String("type", string(expected)),
			slog.String("fingerprint", sec.Fingerprint(token)),
		)
		return nil, apperr.InvalidToken()
	}

	if service.denylist == nil {
		return claims, nil
	}

	revoked, err := service.denylist.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		// Fail closed: an unreachable denylist must not let revoked tokens through.
		service.logger.ErrorContext(ctx, "auth_denylist_lookup_failed", slog.Any("error", err))
		return nil, apperr.ServiceUnavailable("Token revocation check unavailable")
	}
	if revoked {
		service.metrics.TokenRejected(expected)
		service.logger.DebugContext(ctx, "auth_token_revoked",
			slog.String("type", string(expected)),
			slog.String("user_id", claims.Subject()),
		)
		return nil, apperr.InvalidToken()
	}

	return claims, nil
}

// # Logout

/*
Logout ends the caller's session.

Description: Without a denylist this is a no-op and clients simply discard
their tokens. With one, the access token that authenticated the request is
revoked until its expiry, along with refreshToken when it is supplied and
belongs to the same identity.

Parameters:
  - ctx: context.Context
  - principal: *sec.Principal
  - refreshToken: string (optional)
  - client: ClientInfo

Returns:
  - error: Revocation failures
*/
func (service *Service) Logout(ctx context.Context, principal *sec.Principal, refreshToken string, client ClientInfo) error {
	if principal == nil {
		return apperr.Unauthorized("Authentication required")
	}

	if service.denylist != nil {
		if _, err := service.denylist.Revoke(ctx, principal.TokenID, principal.TokenExpiresAt); err != nil {
			return fmt.Errorf("auth_service_revoke_access_failed: %w", err)
		}

		if refreshToken != "" {
			claims, err := service.verifier.Verify(refreshToken, sec.TokenRefresh)
			if err == nil && claims.Subject() == principal.UserID {
				if _, err := service.revoke(ctx, claims); err != nil {
					return err
				}
			}
		}
	}

	service.trail.Record(ctx, audit.Entry{
		OrganizationID: principal.OrganizationID,
		ActorID:        principal.UserID,
		Action:         audit.ActionLogout,
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
	})
	return nil
}

// revoke denylists a verified token until its expiry and reports whether this
// call was the one that revoked it. Without a denylist every call is first.
func (service *Service) revoke(ctx context.Context, claims sec.Claims) (bool, error) {
	if service.denylist == nil {
		return true, nil
	}
	first, err := service.denylist.Revoke(ctx, claims.TokenID(), claims.ExpiresAt())
	if err != nil {
		return false, fmt.Errorf("auth_service_revoke_failed: %w", err)
	}
	return first, nil
}

// # Registration

/*
Register creates an organization together with its first administrator and
logs that administrator in.

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - *Session: Token pair for the new administrator
  - error: WeakPassword, Conflict (slug, email or username taken) or storage failures
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if ok, reason := sec.CheckStrength(input.Password); !ok {
		return nil, apperr.WeakPassword(reason)
	}

	organizationSlug := slug.From(input.OrganizationSlug)
	if organizationSlug == "" {
		organizationSlug = slug.From(input.OrganizationName)
	}
	if organizationSlug == "" {
		return nil, apperr.ValidationError("Organization name must contain letters or digits",
			apperr.FieldError{Field: identity.FieldOrganizationName, Message: "must contain letters or digits"})
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	organization := &identity.Organization{
		ID:       uuid.New(),
		Name:     input.OrganizationName,
		Slug:     organizationSlug,
		IsActive: true,
	}
	owner := &identity.Identity{
		ID:           uuid.New(),
		Email:        identity.NormalizeEmail(input.Email),
		Username:     input.Username,
		FullName:     input.FullName,
		PasswordHash: hashedPassword,
		Role:         sec.RoleAdmin,
		IsActive:     true,
	}

	if err := service.identities.CreateWithOrganization(ctx, organization, owner); err != nil {
		if errors.Is(err, identity.ErrDuplicate) {
			return nil, apperr.Conflict("Organization slug is already taken")
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.trail.Record(ctx, audit.Entry{
		OrganizationID: organization.ID,
		ActorID:        owner.ID,
		Action:         audit.ActionIdentityCreated,
		IPAddress:      input.Client.IPAddress,
		UserAgent:      input.Client.UserAgent,
		Metadata:       map[string]any{"organization_slug": organization.Slug, "role": string(owner.Role)},
	})

	return service.issue(owner)
}

// # Self Service

// Me returns the identity behind principal.
func (service *Service) Me(ctx context.Context, principal *sec.Principal) (*identity.Identity, error) {
	if principal == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	found, err := service.identities.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("auth_service_me_failed: %w", err)
	}
	return found, nil
}

/*
ChangePassword rotates the caller's password.

Parameters:
  - ctx: context.Context
  - principal: *sec.Principal
  - input: ChangePasswordInput

Returns:
  - error: InvalidCredentials (wrong current password), WeakPassword or storage failures
*/
func (service *Service) ChangePassword(ctx context.Context, principal *sec.Principal, input ChangePasswordInput) error {
	found, err := service.Me(ctx, principal)
	if err != nil {
		return err
	}

	if !service.hasher.Verify(input.CurrentPassword, found.PasswordHash) {
		return apperr.InvalidCredentials()
	}
	if ok, reason := sec.CheckStrength(input.NewPassword); !ok {
		return apperr.WeakPassword(reason)
	}

	hashedPassword, err := service.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_hash_failed: %w", err)
	}
	if err := service.identities.UpdatePassword(ctx, found.ID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_update_password_failed: %w", err)
	}

	service.trail.Record(ctx, audit.Entry{
		OrganizationID: found.OrganizationID,
		ActorID:        found.ID,
		Action:         audit.ActionPasswordChanged,
		IPAddress:      input.Client.IPAddress,
		UserAgent:      input.Client.UserAgent,
	})
	return nil
}

// # Token Issuance

func (service *Service) issue(owner *identity.Identity) (*Session, error) {
	pair, err := service.codec.MintPair(owner.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("auth_service_mint_failed: %w", err)
	}

	service.metrics.TokenMinted(sec.TokenAccess)
	service.metrics.TokenMinted(sec.TokenRefresh)

	return &Session{TokenPair: pair, User: owner}, nil
}
