package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/savemate/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь).
	ErrNotFound = errors.New("not found")
	// ErrEmailExists — нарушение уникальности email.
	ErrEmailExists = errors.New("email already exists")
	// ErrUsernameExists — нарушение уникальности username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrUnavailable — хранилище недоступно (таймаут/обрыв соединения).
	// Единственный вид ошибки, который вызывающей стороне имеет смысл ретраить;
	// от ErrNotFound отделён именно для этого.
	ErrUnavailable = errors.New("storage unavailable")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя одной атомарной вставкой.
	// Нарушение уникальности транслируется в ErrEmailExists/ErrUsernameExists
	// по имени констрейнта.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByIdentifier находит пользователя по email ИЛИ username
	// (без учёта регистра) одним запросом.
	UserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetAdmin выставляет флаг is_admin. Вызывается только доверенным
	// внепроцессным инструментом (cmd/make-admin); API-пути к нему нет.
	SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error
	// SetActive выставляет флаг is_active (деактивация вместо удаления).
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// ListAdmins возвращает всех пользователей с is_admin=true.
	ListAdmins(ctx context.Context) ([]models.User, error)
}

// Storage задает контракт работы с БД.
//
//go:generate mockgen -destination=../../mocks/mock_storage.go -package=mocks github.com/savemate/auth-service/internal/storage Storage
type Storage interface {
	UserStorage
	Close()
}
