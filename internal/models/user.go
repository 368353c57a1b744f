package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись пользователя SaveMate.
//
// Email и Username уникальны глобально (без учёта регистра).
// PasswordHash — bcrypt-хэш; наружу (в ответы/логи) никогда не отдаётся.
// Деактивация выполняется через IsActive=false, записи не удаляются,
// чтобы не рвать ссылки на принадлежащие пользователю сущности.
type User struct {
	ID              uuid.UUID
	Email           string
	Username        string
	PasswordHash    string
	FullName        string
	IsActive        bool
	IsAdmin         bool
	IsBusinessOwner bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
