package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savemate/auth-service/internal/models"
	"github.com/savemate/auth-service/internal/service"
)

// fakeAuth — стаб Authenticator: отдаёт заранее заданные user/err.
type fakeAuth struct {
	user      *models.User
	err       error
	lastToken string
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	f.lastToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errEnvelope struct {
	Error apiError `json:"error"`
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) errEnvelope {
	t.Helper()
	var env errEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func testUser(admin, business bool) *models.User {
	return &models.User{
		ID:              uuid.New(),
		Email:           "user@example.com",
		Username:        "user",
		IsActive:        true,
		IsAdmin:         admin,
		IsBusinessOwner: business,
	}
}

func okHandler(t *testing.T, wantPrincipal bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantPrincipal {
			require.NotNil(t, Principal(r.Context()))
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth_MissingOrMalformedHeader(t *testing.T) {
	t.Parallel()

	fa := &fakeAuth{user: testUser(false, false)}
	h := Chain(okHandler(t, true), RequireAuth(fa))

	tests := []struct {
		name   string
		header string
	}{
		{name: "no_header", header: ""},
		{name: "wrong_scheme", header: "Basic abc"},
		{name: "bearer_no_token", header: "Bearer "},
		{name: "bearer_only_spaces", header: "Bearer    "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Equal(t, "unauthorized", decodeErr(t, w).Error.Code)
		})
	}
}

func TestRequireAuth_InvalidToken_Variants(t *testing.T) {
	t.Parallel()

	// Любой отказ кодека токенов — единый 401 unauthorized.
	for _, sentinel := range []error{
		service.ErrMalformedToken,
		service.ErrBadSignature,
		service.ErrTokenExpired,
		service.ErrWrongTokenKind,
		service.ErrUnknownSubject,
	} {
		fa := &fakeAuth{err: fmt.Errorf("service.auth.Authenticate: %w", sentinel)}
		h := Chain(okHandler(t, true), RequireAuth(fa))

		r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		r.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code, "sentinel=%v", sentinel)
		require.Equal(t, "unauthorized", decodeErr(t, w).Error.Code)
	}
}

func TestRequireAuth_DeactivatedAccount_Uniform401(t *testing.T) {
	t.Parallel()

	// Деактивация на gate-пути выражается ErrUnknownSubject, поэтому ответ
	// обязан совпадать с ответом на битый токен: 401 с тем же телом,
	// без account_inactive и любых других намёков на состояние учётки.
	fa := &fakeAuth{err: fmt.Errorf("service.auth.Authenticate: %w", service.ErrUnknownSubject)}
	h := Chain(okHandler(t, true), RequireAuth(fa))

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	got := decodeErr(t, w)
	require.Equal(t, "unauthorized", got.Error.Code)
	require.Equal(t, "unauthorized", got.Error.Message)

	fa.err = fmt.Errorf("service.auth.Authenticate: %w", service.ErrBadSignature)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r)

	require.Equal(t, w2.Code, w.Code)
	require.Equal(t, decodeErr(t, w2), got)
}

func TestRequireAuth_OK_PrincipalInContext(t *testing.T) {
	t.Parallel()

	user := testUser(false, false)
	fa := &fakeAuth{user: user}

	var got *models.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Principal(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	h := Chain(inner, RequireAuth(fa))

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.Header.Set("Authorization", "Bearer the-token")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "the-token", fa.lastToken)
	require.NotNil(t, got)
	require.Equal(t, user.ID, got.ID)
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	t.Run("non_admin_403", func(t *testing.T) {
		fa := &fakeAuth{user: testUser(false, false)}
		h := Chain(okHandler(t, true), RequireAuth(fa), RequireAdmin())

		r := httptest.NewRequest(http.MethodPost, "/users/x/deactivate", nil)
		r.Header.Set("Authorization", "Bearer t")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, "forbidden", decodeErr(t, w).Error.Code)
	})

	t.Run("admin_ok", func(t *testing.T) {
		fa := &fakeAuth{user: testUser(true, false)}
		h := Chain(okHandler(t, true), RequireAuth(fa), RequireAdmin())

		r := httptest.NewRequest(http.MethodPost, "/users/x/deactivate", nil)
		r.Header.Set("Authorization", "Bearer t")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("without_require_auth_403", func(t *testing.T) {
		// RequireAdmin без RequireAuth — principal отсутствует, отказ.
		h := Chain(okHandler(t, false), RequireAdmin())

		r := httptest.NewRequest(http.MethodPost, "/users/x/deactivate", nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequireBusinessOwner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		user     *models.User
		wantCode int
	}{
		{name: "plain_user_403", user: testUser(false, false), wantCode: http.StatusForbidden},
		{name: "business_owner_ok", user: testUser(false, true), wantCode: http.StatusNoContent},
		{name: "admin_ok", user: testUser(true, false), wantCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAuth{user: tt.user}
			h := Chain(okHandler(t, true), RequireAuth(fa), RequireBusinessOwner())

			r := httptest.NewRequest(http.MethodGet, "/some-biz-route", nil)
			r.Header.Set("Authorization", "Bearer t")
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			require.Equal(t, tt.wantCode, w.Code)
		})
	}
}
