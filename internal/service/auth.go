package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/savemate/auth-service/internal/cache"
	"github.com/savemate/auth-service/internal/models"
	"github.com/savemate/auth-service/internal/pkg/log"
	"github.com/savemate/auth-service/internal/pkg/redact"
	"github.com/savemate/auth-service/internal/storage"
)

const minUsernameLen = 3

// RegisterInput — входные данные регистрации.
type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	FullName        string
	IsBusinessOwner bool
}

// RegisterUser регистрирует нового пользователя и выдаёт пару токенов.
//
// Дубликаты email/username разрешаются атомарной вставкой: гонка двух
// регистраций заканчивается уникальным констрейнтом БД, а не потерянным
// обновлением; проигравшая сторона получает ErrEmailTaken/ErrUsernameTaken.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.RegisterUser"

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.validatePassword(in.Password); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:              uuid.New(),
		Email:           normEmail,
		Username:        username,
		PasswordHash:    hashedPassword,
		FullName:        strings.TrimSpace(in.FullName),
		IsActive:        true,
		IsBusinessOwner: in.IsBusinessOwner,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrEmailExists):
			return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		case errors.Is(err, storage.ErrUsernameExists):
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user, nil
}

// LoginUser выполняет вход по идентификатору (email или username) и паролю.
//
// Поиск идёт одним обращением к хранилищу сразу по обоим полям;
// «не найден» и «пароль не подошёл» дают одинаковый ErrInvalidCredentials.
// Деактивированная учётка с верным паролем — отдельный ErrAccountInactive.
func (s *Service) LoginUser(ctx context.Context, identifier, password string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.LoginUser"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || len(password) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Warn("login_failed",
				slog.String("identifier", redact.Identifier(identifier)),
			)
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		log.From(ctx).Warn("login_failed",
			slog.String("identifier", redact.Identifier(identifier)),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrAccountInactive)
	}

	pair, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user, nil
}

// RefreshToken выпускает один новый access-токен по валидному refresh-токену.
//
// Ротации нет: предъявленный refresh остаётся валидным до собственного
// истечения. Ошибки разбора (malformed/подпись/истечение/вид) пробрасываются
// как есть; исчезнувший или деактивированный subject — ErrUnknownSubject,
// чтобы не выпускать токены для удалённых учёток.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*models.AccessGrant, uuid.UUID, error) {
	const op = "service.auth.RefreshToken"

	uid, err := s.decodeToken(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrUnknownSubject)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsActive {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrUnknownSubject)
	}

	accessToken, expiresAt, err := s.issueToken(ctx, user.ID, TokenKindAccess, time.Now().UTC())
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AccessGrant{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt,
	}, user.ID, nil
}

// Authenticate разрешает личность по access-токену для authorization gate.
//
// Порядок проверок фиксирован: разбор токена (вид access), затем личность
// по subject. Исчезнувший и деактивированный subject дают один и тот же
// ErrUnknownSubject: предъявителю токена состояние чужой учётки не
// раскрывается, снаружи оба случая — единый 401. Отдельный
// ErrAccountInactive существует только на пути логина, где пароль уже
// доказан. При настроенном кэше личность берётся из него (без хэша пароля).
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "service.auth.Authenticate"

	uid, err := s.decodeToken(accessToken, TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.resolveIdentity(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnknownSubject)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownSubject)
	}

	return user, nil
}

// DeactivateUser деактивирует учётную запись (is_active=false).
// Запись не удаляется, чтобы сохранить ссылочную целостность
// принадлежащих пользователю сущностей.
func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	const op = "service.auth.DeactivateUser"

	return s.setActive(ctx, op, id, false)
}

// ActivateUser возвращает учётную запись в строй (is_active=true).
func (s *Service) ActivateUser(ctx context.Context, id uuid.UUID) error {
	const op = "service.auth.ActivateUser"

	return s.setActive(ctx, op, id, true)
}

func (s *Service) setActive(ctx context.Context, op string, id uuid.UUID, active bool) error {
	if err := s.storage.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUnknownSubject)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateIdentity(ctx, id)

	return nil
}

// issueTokenPair чеканит свежую пару access+refresh для одного subject.
// Пара независима от любых ранее выданных токенов: ограничения
// «одна сессия на пользователя» нет.
func (s *Service) issueTokenPair(ctx context.Context, userID uuid.UUID) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()

	accessToken, accessExpiresAt, err := s.issueToken(ctx, userID, TokenKindAccess, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, _, err := s.issueToken(ctx, userID, TokenKindRefresh, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExpiresAt,
	}, nil
}

// resolveIdentity загружает личность по ID, при настроенном кэше — через него.
func (s *Service) resolveIdentity(ctx context.Context, id uuid.UUID) (*models.User, error) {
	lg := log.From(ctx)

	if s.icache != nil {
		entry, ok, err := s.icache.Get(ctx, id)
		if err != nil {
			// Кэш — ускорение, не источник истины: сбой деградирует в поход в БД.
			lg.Warn("identity_cache_get_failed",
				slog.String("user_id", id.String()),
				slog.String("err", err.Error()),
			)
		} else if ok {
			return entry.User(id), nil
		}
	}

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.icache != nil {
		if err := s.icache.Set(ctx, id, cache.EntryFromUser(user), s.cfg.IdentityCacheTTL); err != nil {
			lg.Warn("identity_cache_set_failed",
				slog.String("user_id", id.String()),
				slog.String("err", err.Error()),
			)
		}
	}

	return user, nil
}

func (s *Service) invalidateIdentity(ctx context.Context, id uuid.UUID) {
	if s.icache == nil {
		return
	}

	if err := s.icache.Invalidate(ctx, id); err != nil {
		log.From(ctx).Warn("identity_cache_invalidate_failed",
			slog.String("user_id", id.String()),
			slog.String("err", err.Error()),
		)
	}
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем (bcrypt, константное время).
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validateUsername проверяет требования к username: длина и алфавит.
// Разрешены только латинские буквы, цифры и подчёркивание. Жёсткий алфавит —
// не косметика: '@' внутри username невозможен, поэтому пространства имён
// email и username не пересекаются и вход по единому идентификатору
// однозначен (нельзя зарегистрировать username, совпадающий с чужим email,
// и перехватить его логин).
func validateUsername(raw string) (string, error) {
	const op = "service.auth.validateUsername"

	username := strings.TrimSpace(raw)
	if len([]rune(username)) < minUsernameLen {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidUsername)
	}

	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return "", fmt.Errorf("%s: %w", op, ErrInvalidUsername)
		}
	}

	return username, nil
}

// validatePassword проверяет минимальную длину пароля перед хэшированием —
// единственное правило валидации, живущее в ядре: оно определяет, что
// вообще сможет попасть в сравнение учётных данных.
func (s *Service) validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < s.cfg.MinPasswordLen {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
