// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kbase/internal/platform/middleware"
	requestutil "github.com/taibuivan/kbase/internal/platform/request"
	"github.com/taibuivan/kbase/internal/platform/respond"
	"github.com/taibuivan/kbase/internal/platform/validate"
	"github.com/taibuivan/kbase/internal/users/identity"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// Token issuance (login, refresh, register) is public; logout, me and
// change-password require a principal placed in the context by
// [middleware.Authenticate].
type Handler struct {
	authService  *Service
	loginLimiter func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler].
//
// loginLimiter wraps the credential endpoints (login and register); pass nil
// to leave them unthrottled.
func NewHandler(service *Service, loginLimiter func(http.Handler) http.Handler) *Handler {
	if loginLimiter == nil {
		loginLimiter = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{authService: service, loginLimiter: loginLimiter}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /login           : Exchanges credentials for a token pair.
//   - POST /register        : Creates an organization and its administrator.
//   - POST /refresh         : Exchanges a refresh token for a new pair.
//   - POST /logout          : Revokes the caller's tokens when revocation is enabled.
//   - GET  /me              : Returns the caller's identity.
//   - POST /change-password : Rotates the caller's password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.loginLimiter)
		r.Post("/login", handler.login)
		r.Post("/register", handler.register)
	})
	router.Post("/refresh", handler.refresh)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Get("/me", handler.me)
		r.Post("/change-password", handler.changePassword)
	})

	return router
}

// # Payloads

type loginRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationSlug string `json:"organization_slug"`
}

type registerRequest struct {
	OrganizationName string `json:"organization_name"`
	OrganizationSlug string `json:"organization_slug"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	FullName         string `json:"full_name"`
	Password         string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// tokenResponse is the body of every endpoint that issues tokens.
type tokenResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type"`
	ExpiresIn    int64              `json:"expires_in"`
	User         *identity.Identity `json:"user,omitempty"`
}

func newTokenResponse(session *Session, includeUser bool) tokenResponse {
	response := tokenResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    expiresInSeconds(session.AccessExpiresIn),
	}
	if includeUser {
		response.User = session.User
	}
	return response
}

func clientInfo(request *http.Request) ClientInfo {
	return ClientInfo{
		IPAddress: requestutil.ClientIP(request),
		UserAgent: request.UserAgent(),
	}
}

/*
Login authenticates an identity and issues a token pair.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password, OrganizationSlug)

Response:
  - 200: tokenResponse with user
  - 400: Validation failure
  - 401: INVALID_CREDENTIALS
  - 429: Too many attempts
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(identity.FieldEmail, input.Email).
		Required(identity.FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:            input.Email,
		Password:         input.Password,
		OrganizationSlug: input.OrganizationSlug,
		Client:           clientInfo(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newTokenResponse(session, true))
}

/*
Register creates an organization and its first administrator.

POST /api/v1/auth/register

Response:
  - 201: tokenResponse with user
  - 400: Validation failure or WEAK_PASSWORD
  - 409: Organization slug already taken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(identity.FieldOrganizationName, input.OrganizationName).
		MaxLen(identity.FieldOrganizationName, input.OrganizationName, 255).
		Required(identity.FieldEmail, input.Email).
		Email(identity.FieldEmail, input.Email).
		Required(identity.FieldUsername, input.Username).
		MinLen(identity.FieldUsername, input.Username, 3).
		MaxLen(identity.FieldUsername, input.Username, 100).
		MaxLen(identity.FieldFullName, input.FullName, 255).
		Required(identity.FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		OrganizationName: input.OrganizationName,
		OrganizationSlug: input.OrganizationSlug,
		Email:            input.Email,
		Username:         input.Username,
		FullName:         input.FullName,
		Password:         input.Password,
		Client:           clientInfo(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, newTokenResponse(session, true))
}

/*
Refresh issues a new token pair from a refresh token.

POST /api/v1/auth/refresh

Response:
  - 200: tokenResponse
  - 401: INVALID_TOKEN (expired, forged, wrong type or inactive identity)
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	session, err := handler.authService.Refresh(request.Context(), input.RefreshToken, clientInfo(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newTokenResponse(session, false))
}

/*
Logout ends the caller's session.

POST /api/v1/auth/logout

Description: The body is optional; when it carries a refresh_token that
token is revoked too.

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input refreshRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, validate.ErrInvalidJSON)
			return
		}
	}

	if err := handler.authService.Logout(request.Context(), principal, input.RefreshToken, clientInfo(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// me handles GET /api/v1/auth/me.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.authService.Me(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

/*
ChangePassword rotates the caller's password.

POST /api/v1/auth/change-password

Response:
  - 204: No Content
  - 400: WEAK_PASSWORD
  - 401: INVALID_CREDENTIALS (current password does not match)
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(request.Context(), principal, ChangePasswordInput{
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
		Client:          clientInfo(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
