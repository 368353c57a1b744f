package models

import "time"

// TokenPair — пара токенов, выдаваемая при регистрации/логине.
//
// Описание:
//   - AccessToken — короткоживущий JWT (kind=access) для доступа к API;
//   - RefreshToken — долгоживущий JWT (kind=refresh), по которому клиент
//     запрашивает новые access-токены; вид токена зашит в подписанный
//     claim token_type и не выводится из контекста;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
//
// Оба токена чеканятся одним вызовом для одного subject, но живут
// независимо: refresh не ротируется при обновлении access.
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — JWT для выпуска новых access-токенов.
	RefreshToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
}

// AccessGrant — результат обновления по refresh-токену:
// ровно один новый access-токен, предъявленный refresh остаётся валидным
// до собственного истечения.
type AccessGrant struct {
	// AccessToken — новый JWT для авторизации запросов.
	AccessToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
}
