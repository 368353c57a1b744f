// handlers — REST-хендлеры auth-сервиса SaveMate.
// Слой тонкий: декодирование запроса, вызов service, маппинг ошибок
// через apierrors.WriteError; бизнес-правил здесь нет.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	apierrors "github.com/savemate/auth-service/internal/errors"
	"github.com/savemate/auth-service/internal/models"
	"github.com/savemate/auth-service/internal/service"
)

// tokenType — фиксированное значение поля token_type в ответах.
const tokenType = "bearer"

// Handlers агрегирует зависимости (бизнес-слой).
type Handlers struct {
	service *service.Service
}

func New(s *service.Service) *Handlers {
	return &Handlers{service: s}
}

// tokensPayload — пара токенов в ответах register/login.
type tokensPayload struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	TokenType       string    `json:"token_type"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// userPayload — безопасная проекция пользователя: хэш пароля не сериализуется
// никогда, у структуры просто нет такого поля.
type userPayload struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	FullName        string    `json:"full_name"`
	IsActive        bool      `json:"is_active"`
	IsAdmin         bool      `json:"is_admin"`
	IsBusinessOwner bool      `json:"is_business_owner"`
	CreatedAt       time.Time `json:"created_at"`
}

// authPayload — корневой объект ответа register/login.
type authPayload struct {
	Tokens tokensPayload `json:"tokens"`
	User   userPayload   `json:"user"`
}

func toUserPayload(u *models.User) userPayload {
	return userPayload{
		ID:              u.ID.String(),
		Email:           u.Email,
		Username:        u.Username,
		FullName:        u.FullName,
		IsActive:        u.IsActive,
		IsAdmin:         u.IsAdmin,
		IsBusinessOwner: u.IsBusinessOwner,
		CreatedAt:       u.CreatedAt,
	}
}

func toAuthPayload(pair *models.TokenPair, u *models.User) authPayload {
	return authPayload{
		Tokens: tokensPayload{
			AccessToken:     pair.AccessToken,
			RefreshToken:    pair.RefreshToken,
			TokenType:       tokenType,
			AccessExpiresAt: pair.AccessExpiresAt,
		},
		User: toUserPayload(u),
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// writeInvalidBody — локальная ошибка парсинга тела -> 400.
func writeInvalidBody(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
}
