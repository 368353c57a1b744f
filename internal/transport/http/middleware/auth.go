package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/savemate/auth-service/internal/errors"
	"github.com/savemate/auth-service/internal/models"
)

// Authenticator разрешает личность по access-токену.
// Реализуется пакетом service; в тестах подменяется моками.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type principalKey struct{}

// Principal достаёт аутентифицированного пользователя из контекста.
// Возвращает nil, если запрос не проходил через RequireAuth.
func Principal(ctx context.Context) *models.User {
	if u, ok := ctx.Value(principalKey{}).(*models.User); ok {
		return u
	}

	return nil
}

// RequireAuth — authorization gate: извлекает Bearer-токен, разрешает личность
// и кладёт её в контекст. Любой отказ здесь — единый 401:
//   - нет заголовка / не схема Bearer / пустой токен (ErrMissingAuth);
//   - токен не прошёл разбор (сентинелы кодека);
//   - subject исчез или деактивирован (ErrUnknownSubject).
func RequireAuth(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				apierrors.WriteError(w, r, apierrors.ErrMissingAuth)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает только администраторов.
// Навешивается ПОСЛЕ RequireAuth: личность уже доказана, поэтому
// отказ здесь — всегда 403, никогда не 401.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := Principal(r.Context())
			if user == nil || !user.IsAdmin {
				apierrors.WriteError(w, r, apierrors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireBusinessOwner пропускает владельцев бизнеса и администраторов.
func RequireBusinessOwner() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := Principal(r.Context())
			if user == nil || (!user.IsBusinessOwner && !user.IsAdmin) {
				apierrors.WriteError(w, r, apierrors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken извлекает токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) <= len(prefix) {
		return "", false
	}

	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}
