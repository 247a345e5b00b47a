package core

import (
	"context"
	"time"

	"github.com/workchat/internal/session"
	"github.com/workchat/internal/store"
)

// Mailer отправляет письма пользователям. Ошибки отправки логируются в месте
// вызова и не прерывают операцию.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PhotoFetcher загружает аватар по внешнему URL и возвращает URL,
// по которому файл раздаётся нашим сервером.
type PhotoFetcher interface {
	Fetch(ctx context.Context, url string, userID int64) (string, error)
}

// Service — ядро мессенджера: регистрация, каналы, личные сообщения,
// уведомления, статистика. Хранение и сессии за интерфейсами, поэтому ядро
// одинаково работает поверх Postgres+Redis и поверх памяти.
type Service struct {
	store    store.Store
	sessions session.Store
	sched    *Scheduler
	mailer   Mailer
	photos   PhotoFetcher

	defaultPhotoURL string

	// подменяется в тестах
	now func() time.Time
}

func NewService(st store.Store, sess session.Store, mailer Mailer, photos PhotoFetcher, defaultPhotoURL string) *Service {
	return &Service{
		store:           st,
		sessions:        sess,
		sched:           NewScheduler(),
		mailer:          mailer,
		photos:          photos,
		defaultPhotoURL: defaultPhotoURL,
		now:             time.Now,
	}
}

// Close останавливает отложенные задачи. Несработавшие таймеры теряются,
// восстановление отложенных отправок после рестарта не поддерживается.
func (s *Service) Close() {
	s.sched.Stop()
}
