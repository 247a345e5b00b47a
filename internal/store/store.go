// Package store описывает транзакционное хранилище записей воркспейса.
// Ядро зависит только от этого контракта: CRUD по целым записям плюс
// атомарные обновления "прочитал-решил-записал" по одной записи.
// Реализации: postgres (production), memory (тесты и -dev без БД).
package store

import (
	"context"
	"errors"

	"github.com/workchat/internal/model"
)

var ErrNotFound = errors.New("not found")

// Store — контракт хранилища. Update* принимают замыкание, которое выполняется
// под эксклюзивной блокировкой записи; ошибка из замыкания откатывает обновление
// и возвращается вызывающему как есть.
type Store interface {
	// NextID выдаёт следующий id из общей последовательности. Одна
	// последовательность на все сущности даёт глобальную уникальность id
	// сообщений без отдельного учёта.
	NextID(ctx context.Context) (int64, error)

	CreateUser(ctx context.Context, u *model.User) error
	User(ctx context.Context, id int64) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByHandle(ctx context.Context, handle string) (*model.User, error)
	Users(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id int64, fn func(*model.User) error) error

	CreateConversation(ctx context.Context, c *model.Conversation) error
	Conversation(ctx context.Context, id int64) (*model.Conversation, error)
	Conversations(ctx context.Context) ([]model.Conversation, error)
	UpdateConversation(ctx context.Context, id int64, fn func(*model.Conversation) error) error
	DeleteConversation(ctx context.Context, id int64) error

	// ConversationByMessage находит беседу, в логе которой лежит сообщение.
	ConversationByMessage(ctx context.Context, messageID int64) (*model.Conversation, error)

	Workspace(ctx context.Context) (*model.Workspace, error)
	UpdateWorkspace(ctx context.Context, fn func(*model.Workspace) error) error

	Close() error
}
