// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kbase/internal/platform/apperr"
	"github.com/taibuivan/kbase/internal/platform/respond"
	"github.com/taibuivan/kbase/pkg/pagination"
)

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantCode       string
		wantChallenge  bool
		wantHiddenText string
	}{
		{"invalid token", apperr.InvalidToken(), http.StatusUnauthorized, "INVALID_TOKEN", true, ""},
		{"invalid credentials", apperr.InvalidCredentials(), http.StatusUnauthorized, "INVALID_CREDENTIALS", true, ""},
		{"forbidden", apperr.Forbidden("Insufficient role"), http.StatusForbidden, "FORBIDDEN", false, ""},
		{"denylist down", apperr.ServiceUnavailable("Token revocation check unavailable"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", false, ""},
		{"plain error", errors.New("pq: relation missing"), http.StatusInternalServerError, "INTERNAL_ERROR", false, "relation missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/", nil)

			respond.Error(recorder, request, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantCode, decode(t, recorder)["code"])
			if tt.wantChallenge {
				assert.Equal(t, `Bearer realm="kbase"`, recorder.Header().Get("WWW-Authenticate"))
			} else {
				assert.Empty(t, recorder.Header().Get("WWW-Authenticate"))
			}
			if tt.wantHiddenText != "" {
				assert.NotContains(t, recorder.Body.String(), tt.wantHiddenText)
			}
		})
	}
}

func TestError_ValidationDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Error(recorder, httptest.NewRequest(http.MethodPost, "/", nil),
		apperr.ValidationError("Validation failed", apperr.FieldError{Field: "email", Message: "This field is required"}))

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	details, ok := decode(t, recorder)["details"].([]any)
	require.True(t, ok)
	assert.Len(t, details, 1)
}

func TestPaginated(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Paginated(recorder, []string{"a", "b"}, pagination.NewMeta(1, 2, 5))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"data":["a","b"],"meta":{"page":1,"limit":2,"total":5,"total_pages":3}}`,
		recorder.Body.String())
}

func TestNoContent(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.NoContent(recorder)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Zero(t, recorder.Body.Len())
}
