package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/savemate/auth-service/internal/errors"
	"github.com/savemate/auth-service/internal/service"
	"github.com/savemate/auth-service/internal/transport/http/middleware"
)

type registerRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	FullName        string `json:"full_name"`
	IsBusinessOwner bool   `json:"is_business_owner"`
}

type loginRequest struct {
	// Identifier — e-mail или username, без различия на уровне API.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshPayload — ответ refresh: ровно один новый access-токен.
// Ротации refresh нет, поэтому поля refresh_token здесь нет.
type refreshPayload struct {
	AccessToken     string    `json:"access_token"`
	TokenType       string    `json:"token_type"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		writeInvalidBody(w, r)
		return
	}

	pair, user, err := h.service.RegisterUser(r.Context(), service.RegisterInput{
		Email:           in.Email,
		Username:        in.Username,
		Password:        in.Password,
		FullName:        in.FullName,
		IsBusinessOwner: in.IsBusinessOwner,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthPayload(pair, user))
}

func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		writeInvalidBody(w, r)
		return
	}

	pair, user, err := h.service.LoginUser(r.Context(), in.Identifier, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthPayload(pair, user))
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		writeInvalidBody(w, r)
		return
	}

	grant, _, err := h.service.RefreshToken(r.Context(), in.RefreshToken)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshPayload{
		AccessToken:     grant.AccessToken,
		TokenType:       tokenType,
		AccessExpiresAt: grant.AccessExpiresAt,
	})
}

// Me возвращает личность предъявителя access-токена.
// Сам разбор токена выполнен в middleware.RequireAuth.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.Principal(r.Context())
	if user == nil {
		apierrors.WriteError(w, r, apierrors.ErrMissingAuth)
		return
	}

	writeJSON(w, http.StatusOK, toUserPayload(user))
}
