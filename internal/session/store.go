// Package session — хранилище токенов сессий и кодов сброса пароля.
// Реализации: redis.Client (production), memory.Client (тесты и -dev без Redis).
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// TokenTTL — срок жизни токена сессии; ResetCodeTTL — срок жизни кода сброса.
const (
	TokenTTL     = 30 * 24 * time.Hour
	ResetCodeTTL = 15 * time.Minute
)

// Store — контракт хранилища сессий. Токен непрозрачный; у пользователя может
// быть несколько активных токенов (несколько устройств).
type Store interface {
	SaveToken(ctx context.Context, token string, userID int64) error
	// UserByToken возвращает владельца токена; ErrNotFound для
	// отозванных и несуществующих токенов.
	UserByToken(ctx context.Context, token string) (int64, error)
	DeleteToken(ctx context.Context, token string) error
	// DeleteUserTokens отзывает все токены пользователя (сброс пароля, удаление).
	DeleteUserTokens(ctx context.Context, userID int64) error

	SaveResetCode(ctx context.Context, code string, userID int64) error
	// UserByResetCode возвращает владельца действующего кода; ErrNotFound иначе.
	UserByResetCode(ctx context.Context, code string) (int64, error)
	DeleteResetCode(ctx context.Context, code string) error

	Close() error
}
