// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kbase/internal/platform/middleware"
	requestutil "github.com/taibuivan/kbase/internal/platform/request"
	"github.com/taibuivan/kbase/internal/platform/respond"
	"github.com/taibuivan/kbase/internal/platform/sec"
	"github.com/taibuivan/kbase/internal/platform/validate"
	"github.com/taibuivan/kbase/internal/users/identity"
	"github.com/taibuivan/kbase/pkg/pagination"
)

// Handler implements the HTTP layer for identity administration.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] with the admin user endpoints.
//
// # Endpoints
//   - GET   /users      : Paginated members of the caller's organization.
//   - POST  /users      : Creates a member.
//   - PATCH /users/{id} : Changes a member's role or active flag.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/users", handler.listUsers)
	router.Post("/users", handler.createUser)
	router.Patch("/users/{id}", handler.updateUser)

	return router
}

// # Payloads

type createUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

/*
GET /api/v1/admin/users.

Request:
  - query: page, limit

Response:
  - 200: Paginated identities
  - 401: Authentication required
  - 403: Insufficient permissions
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	admin, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.accountService.List(request.Context(), admin, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, page.Members, page.Meta)
}

/*
POST /api/v1/admin/users.

Response:
  - 201: The created identity
  - 400: Validation failure or WEAK_PASSWORD
  - 409: Email or username already registered
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	admin, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(identity.FieldEmail, input.Email).
		Email(identity.FieldEmail, input.Email).
		Required(identity.FieldUsername, input.Username).
		MinLen(identity.FieldUsername, input.Username, 3).
		MaxLen(identity.FieldUsername, input.Username, 100).
		MaxLen(identity.FieldFullName, input.FullName, 255).
		Required(identity.FieldPassword, input.Password).
		Role(identity.FieldRole, input.Role)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role := sec.RoleViewer
	if input.Role != "" {
		role, _ = sec.ParseRole(input.Role)
	}

	created, err := handler.accountService.Create(request.Context(), admin, CreateInput{
		Email:    input.Email,
		Username: input.Username,
		FullName: input.FullName,
		Password: input.Password,
		Role:     role,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
PATCH /api/v1/admin/users/{id}.

Request:
  - body: updateUserRequest (role and/or is_active)

Response:
  - 200: The updated identity
  - 404: No such member in the caller's organization
  - 422: Self-demotion or self-deactivation
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	admin, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	update := identity.AccessUpdate{IsActive: input.IsActive}
	if input.Role != nil {
		validator := &validate.Validator{}
		validator.Required(identity.FieldRole, *input.Role).
			Role(identity.FieldRole, *input.Role)
		if err := validator.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}

		role, _ := sec.ParseRole(*input.Role)
		update.Role = &role
	}

	updated, err := handler.accountService.UpdateAccess(request.Context(), admin, requestutil.ID(request, "id"), update)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}
