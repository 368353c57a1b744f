// service содержит бизнес-логику auth-сервиса SaveMate:
// проверку учётных данных, выпуск/разбор токенов двух видов (access/refresh)
// и разрешение личности для authorization gate; хранилище подключается
// через интерфейсы пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются сентинелами и далее маппятся HTTP-слоем
//     на статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/savemate/auth-service/internal/cache"
	"github.com/savemate/auth-service/internal/config"
	"github.com/savemate/auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара идентификатор/пароль неверна или пользователь
	// не найден. Намеренно один сентинел на оба случая, чтобы исключить
	// перебор существующих аккаунтов. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive — пароль верен, но учётная запись деактивирована.
	// Отличается от ErrInvalidCredentials осознанно и возвращается только
	// на пути логина; на токен-путях деактивация даёт ErrUnknownSubject,
	// чтобы не раскрывать состояние учётки предъявителю токена. HTTP 403.
	ErrAccountInactive = errors.New("account inactive")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrUsernameTaken — username уже занят другим пользователем. HTTP 409.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidUsername — username пустой или короче минимума. HTTP 400.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrWeakPassword — пароль короче настроенного минимума. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrMalformedToken — строка не разбирается как JWT ожидаемой структуры.
	// HTTP 401.
	ErrMalformedToken = errors.New("malformed token")

	// ErrBadSignature — подпись токена не сходится с текущим ключом. HTTP 401.
	ErrBadSignature = errors.New("bad token signature")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongTokenKind — предъявлен токен другого вида (access вместо
	// refresh или наоборот); вид берётся только из подписанного claim. HTTP 401.
	ErrWrongTokenKind = errors.New("wrong token kind")

	// ErrUnknownSubject — subject валидного токена больше не существует
	// или деактивирован; токен для него не выпускается. HTTP 401.
	ErrUnknownSubject = errors.New("unknown subject")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	icache  cache.IdentityCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}

// SetIdentityCache устанавливает кэш идентичностей (опционально).
func (s *Service) SetIdentityCache(c cache.IdentityCache) {
	s.icache = c
}
