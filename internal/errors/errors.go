// errors стандартизирует ответы об ошибках HTTP-слоя auth-сервиса.
// На вход он принимает ошибку бизнес-слоя (сентинелы пакетов service/storage),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Таксономия авторизации трёхчастная:
//   - 401 unauthorized — предъявитель не смог доказать личность
//     (битый токен, подпись, истечение, не тот вид, исчезнувший или
//     деактивированный subject, неверные учётные данные). Все эти случаи
//     намеренно неразличимы снаружи.
//   - 403 account_inactive (только логин: пароль доказан) / forbidden —
//     личность доказана, но доступ запрещён.
//   - 409 email_taken / username_taken — конфликты уникальности при регистрации.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/savemate/auth-service/internal/service"
	"github.com/savemate/auth-service/internal/storage"
)

var (
	// ErrInvalidBody — тело запроса не разобралось как JSON ожидаемой формы.
	// HTTP 400.
	ErrInvalidBody = errors.New("invalid request body")

	// ErrMissingAuth — в запросе нет Bearer-токена (нет заголовка Authorization,
	// не та схема или пустой токен). HTTP 401, снаружи неотличим от битого токена.
	ErrMissingAuth = errors.New("missing authorization")

	// ErrForbidden — предъявитель аутентифицирован, но прав не хватает.
	// Возвращается authorization gate (например, RequireAdmin). HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound — адресат админ-операции не существует. HTTP 404.
	// Не используется на аутентификационных путях: там исчезнувший
	// subject остаётся 401, чтобы не раскрывать существование учёток.
	ErrUserNotFound = errors.New("user not found")
)

// APIError — единый формат ошибки для клиентов.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку бизнес-слоя в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil - это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
//   - неизвестная ошибка - 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	httpStatus, code, msg := base(err)

	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — базовый маппинг сентинелов -> HTTP/код/сообщение.
//
// Все 401-е отдают одинаковое сообщение "unauthorized": клиенту не сообщается,
// чем именно плох токен или какая половина пары логин/пароль не подошла.
func base(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInvalidBody),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "email_taken", "email already taken"
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, "username_taken", "username already taken"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, ErrMissingAuth),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrMalformedToken),
		errors.Is(err, service.ErrBadSignature),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrWrongTokenKind),
		errors.Is(err, service.ErrUnknownSubject):
		return http.StatusUnauthorized, "unauthorized", "unauthorized"
	case errors.Is(err, service.ErrAccountInactive):
		return http.StatusForbidden, "account_inactive", "account inactive"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable", "service unavailable"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
