package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/savemate/auth-service/internal/pkg/log"
)

// TokenKind — вид токена; зашивается в подписанный claim token_type
// и никогда не выводится из контекста предъявления.
type TokenKind string

const (
	// TokenKindAccess — короткоживущий токен доступа к API.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh — долгоживущий токен для выпуска новых access.
	TokenKindRefresh TokenKind = "refresh"
)

// tokenClaims — подписанная нагрузка токена.
type tokenClaims struct {
	Kind string `json:"token_type"`
	jwt.RegisteredClaims
}

// ttl возвращает время жизни для вида токена.
func (s *Service) ttl(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return s.cfg.RefreshTokenTTL
	}

	return s.cfg.AccessTokenTTL
}

// issueToken чеканит подписанный JWT заданного вида:
// exp строго равен iat + TTL вида.
func (s *Service) issueToken(ctx context.Context, userID uuid.UUID, kind TokenKind, now time.Time) (string, time.Time, error) {
	const op = "service.token.issueToken"

	lg := log.From(ctx)

	expiresAt := now.Add(s.ttl(kind))
	claims := tokenClaims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		lg.Error("token_sign_failed",
			slog.String("op", op),
			slog.String("kind", string(kind)),
			slog.String("err", err.Error()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, expiresAt, nil
}

// decodeToken разбирает и проверяет токен ожидаемого вида.
//
// Чистая функция от (строка, текущее время, ключ); порядок отказов:
//   - ErrMalformedToken — строка не разбирается как JWT;
//   - ErrBadSignature — подпись не сходится с текущим ключом
//     (проверяется до claims, поэтому просроченный токен с верной
//     подписью никогда не попадает сюда);
//   - ErrTokenExpired — now >= exp;
//   - ErrWrongTokenKind — token_type не совпал с ожидаемым.
func (s *Service) decodeToken(raw string, expected TokenKind) (uuid.UUID, error) {
	const op = "service.token.decodeToken"

	token, err := jwt.ParseWithClaims(raw, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrBadSignature)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrBadSignature)
		case errors.Is(err, jwt.ErrTokenExpired):
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		default:
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
		}
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	if claims.Kind != string(expected) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrWrongTokenKind)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	return uid, nil
}
