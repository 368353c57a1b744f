package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/savemate/auth-service/internal/models"
)

// IdentityEntry описывает снимок личности, который мы храним в Redis
// по ID пользователя. Хэш пароля в кэш не попадает никогда.
type IdentityEntry struct {
	Email         string
	Username      string
	FullName      string
	Active        bool
	Admin         bool
	BusinessOwner bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EntryFromUser строит снимок из полной записи пользователя.
func EntryFromUser(u *models.User) *IdentityEntry {
	return &IdentityEntry{
		Email:         u.Email,
		Username:      u.Username,
		FullName:      u.FullName,
		Active:        u.IsActive,
		Admin:         u.IsAdmin,
		BusinessOwner: u.IsBusinessOwner,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// User восстанавливает модель пользователя из снимка.
// PasswordHash пустой: снимок пригоден только для authorization gate.
func (e *IdentityEntry) User(id uuid.UUID) *models.User {
	return &models.User{
		ID:              id,
		Email:           e.Email,
		Username:        e.Username,
		FullName:        e.FullName,
		IsActive:        e.Active,
		IsAdmin:         e.Admin,
		IsBusinessOwner: e.BusinessOwner,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// IdentityCache — минимальный контракт кэша личностей.
// Устаревание ограничено TTL записи; смена is_active инвалидирует ключ сразу.
type IdentityCache interface {
	// Get возвращает снимок и признак его наличия в кэше.
	Get(ctx context.Context, id uuid.UUID) (*IdentityEntry, bool, error)
	// Set сохраняет снимок с TTL.
	Set(ctx context.Context, id uuid.UUID, e *IdentityEntry, ttl time.Duration) error
	// Invalidate удаляет снимок.
	Invalidate(ctx context.Context, id uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:id:".
func NewRedisCache(redisURL, prefix string) (IdentityCache, error) {
	if prefix == "" {
		prefix = "auth:id:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(id uuid.UUID) string { return c.prefix + id.String() }

// Храним как Redis Hash с полями: em, un, fn, act/adm/biz (0/1), cr/up (unix).
func (c *redisCache) Get(ctx context.Context, id uuid.UUID) (*IdentityEntry, bool, error) {
	m, err := c.rdb.HGetAll(ctx, c.key(id)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	crUnix, err := strconv.ParseInt(m["cr"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	upUnix, err := strconv.ParseInt(m["up"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	return &IdentityEntry{
		Email:         m["em"],
		Username:      m["un"],
		FullName:      m["fn"],
		Active:        m["act"] == "1",
		Admin:         m["adm"] == "1",
		BusinessOwner: m["biz"] == "1",
		CreatedAt:     time.Unix(crUnix, 0).UTC(),
		UpdatedAt:     time.Unix(upUnix, 0).UTC(),
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, id uuid.UUID, e *IdentityEntry, ttl time.Duration) error {
	kv := map[string]string{
		"em":  e.Email,
		"un":  e.Username,
		"fn":  e.FullName,
		"act": boolTo01(e.Active),
		"adm": boolTo01(e.Admin),
		"biz": boolTo01(e.BusinessOwner),
		"cr":  strconv.FormatInt(e.CreatedAt.Unix(), 10),
		"up":  strconv.FormatInt(e.UpdatedAt.Unix(), 10),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(id), kv)
	pipe.Expire(ctx, c.key(id), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(id)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }

func boolTo01(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
