package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/savemate/auth-service/internal/errors"
	"github.com/savemate/auth-service/internal/service"
)

// DeactivateUser отключает учётную запись (админ-операция).
// Уже выданные токены продолжают жить до exp, но authorization gate
// перестаёт их пропускать не позже, чем истечёт кэш личностей.
func (h *Handlers) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// ActivateUser возвращает учётную запись в строй (админ-операция).
func (h *Handlers) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handlers) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
		return
	}

	if active {
		err = h.service.ActivateUser(r.Context(), id)
	} else {
		err = h.service.DeactivateUser(r.Context(), id)
	}

	if err != nil {
		// ErrUnknownSubject здесь означает "нет такого пользователя";
		// для админ-операции это честный 404, а не 401.
		if errors.Is(err, service.ErrUnknownSubject) {
			apierrors.WriteError(w, r, apierrors.ErrUserNotFound)
			return
		}

		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
