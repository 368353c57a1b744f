package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savemate/auth-service/internal/models"
	"github.com/savemate/auth-service/internal/storage"
)

const userColumns = `id, email, username, password_hash, full_name,
		is_active, is_admin, is_business_owner, created_at, updated_at`

// SaveUser создает нового пользователя одной атомарной вставкой.
// Гонка двух регистраций на один email/username разрешается уникальным
// индексом БД: проигравшая сторона получает ErrEmailExists/ErrUsernameExists
// в зависимости от сработавшего констрейнта.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, email, username, password_hash, full_name,
			is_active, is_admin, is_business_owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.IsActive,
		user.IsAdmin,
		user.IsBusinessOwner,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return fmt.Errorf("%s: %w", op, storage.ErrUsernameExists)
			}

			return fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
		}

		return fmt.Errorf("%s: %w", op, mapUnavailable(err))
	}

	return nil
}

// UserByIdentifier находит пользователя по email ИЛИ username одним запросом.
// Сравнение регистронезависимое; одна выборка на оба поля, чтобы время
// ответа не выдавало, какое из полей совпало.
func (s *Storage) UserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	const op = "storage.postgres.UserByIdentifier"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1) OR lower(username) = lower($1)
	`

	user, err := s.scanUser(s.db.QueryRow(ctx, query, identifier))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	user, err := s.scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// SetAdmin выставляет флаг is_admin.
func (s *Storage) SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error {
	const op = "storage.postgres.SetAdmin"

	return s.setFlag(ctx, op, "is_admin", id, admin)
}

// SetActive выставляет флаг is_active.
func (s *Storage) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	const op = "storage.postgres.SetActive"

	return s.setFlag(ctx, op, "is_active", id, active)
}

// ListAdmins возвращает всех пользователей с is_admin=true.
func (s *Storage) ListAdmins(ctx context.Context) ([]models.User, error) {
	const op = "storage.postgres.ListAdmins"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE is_admin
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapUnavailable(err))
	}
	defer rows.Close()

	var admins []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.PasswordHash,
			&user.FullName,
			&user.IsActive,
			&user.IsAdmin,
			&user.IsBusinessOwner,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		admins = append(admins, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapUnavailable(err))
	}

	return admins, nil
}

func (s *Storage) setFlag(ctx context.Context, op, column string, id uuid.UUID, value bool) error {
	// column — только из фиксированного набора вызовов выше.
	query := `UPDATE users SET ` + column + ` = $1, updated_at = now() WHERE id = $2`

	tag, err := s.db.Exec(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapUnavailable(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func (s *Storage) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.IsActive,
		&user.IsAdmin,
		&user.IsBusinessOwner,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, mapUnavailable(err)
	}

	return &user, nil
}

// mapUnavailable переводит таймауты и сетевые сбои в storage.ErrUnavailable,
// чтобы вызывающая сторона могла отличить «БД лежит» (ретраибельно)
// от осознанного отказа. Отмена контекста клиентом пробрасывается как есть.
func mapUnavailable(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return storage.ErrUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ConnectionException,
			pgerrcode.ConnectionDoesNotExist,
			pgerrcode.ConnectionFailure,
			pgerrcode.CannotConnectNow,
			pgerrcode.TooManyConnections:
			return storage.ErrUnavailable
		}
	}

	return err
}
