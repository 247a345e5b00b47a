package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/workchat/internal/logger"
	"github.com/workchat/internal/model"
	"github.com/workchat/internal/store"
)

// StartStandup открывает в канале окно стендапа на length секунд. Сообщения
// окна буферизуются и по его закрытии склеиваются в одно сообщение от имени
// стартера.
func (s *Service) StartStandup(ctx context.Context, userID, channelID int64, length int64) (int64, error) {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if !c.IsMember(userID) {
		return 0, forbidden("user is not a member of the channel")
	}
	if length < 0 {
		return 0, badRequest("standup length is negative")
	}
	finishAt := s.now().Unix() + length
	err = s.store.UpdateConversation(ctx, channelID, func(c *model.Conversation) error {
		if c.Standup != nil && c.Standup.Active {
			return badRequest("standup is already active in the channel")
		}
		c.Standup = &model.Standup{
			StarterID: userID,
			FinishAt:  finishAt,
			Active:    true,
		}
		return nil
	})
	if err != nil {
		return 0, wrapInternal("core.StartStandup", err)
	}
	s.sched.At(time.Unix(finishAt, 0), func() {
		if err := s.flushStandup(context.Background(), channelID); err != nil {
			logger.Errorf("core.StartStandup: flush channel %d: %v", channelID, err)
		}
	})
	return finishAt, nil
}

// StandupActive сообщает, идёт ли в канале стендап, и когда он закончится.
type StandupStatus struct {
	Active   bool  `json:"active"`
	FinishAt int64 `json:"finish_at"`
}

func (s *Service) StandupActive(ctx context.Context, userID, channelID int64) (StandupStatus, error) {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return StandupStatus{}, err
	}
	if !c.IsMember(userID) {
		return StandupStatus{}, forbidden("user is not a member of the channel")
	}
	if c.Standup == nil || !c.Standup.Active {
		return StandupStatus{}, nil
	}
	return StandupStatus{Active: true, FinishAt: c.Standup.FinishAt}, nil
}

// StandupSend добавляет строку в буфер активного стендапа. Строки не
// являются сообщениями: у них нет идентификаторов, их нельзя редактировать,
// теги в них уведомлений не рассылают.
func (s *Service) StandupSend(ctx context.Context, userID, channelID int64, text string) error {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return err
	}
	if !c.IsMember(userID) {
		return forbidden("user is not a member of the channel")
	}
	if l := len(text); l < minMessageLen || l > maxMessageLen {
		return badRequestf("message must be %d-%d characters", minMessageLen, maxMessageLen)
	}
	if c.Standup == nil || !c.Standup.Active {
		return badRequest("no active standup in the channel")
	}
	u, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.StandupSend: %w", err)
	}
	err = s.store.UpdateConversation(ctx, channelID, func(c *model.Conversation) error {
		if c.Standup == nil || !c.Standup.Active {
			return badRequest("no active standup in the channel")
		}
		c.Standup.Lines = append(c.Standup.Lines, model.StandupLine{
			Handle: u.Handle,
			Text:   text,
		})
		return nil
	})
	return wrapInternal("core.StandupSend", err)
}

// flushStandup закрывает окно стендапа. Непустой буфер склеивается в одно
// сообщение от стартера, пустой просто гасит стендап. Удалённый к этому
// моменту канал — не ошибка.
func (s *Service) flushStandup(ctx context.Context, channelID int64) error {
	var snap *model.Standup
	err := s.store.UpdateConversation(ctx, channelID, func(c *model.Conversation) error {
		if c.Standup == nil || !c.Standup.Active {
			return nil
		}
		snap = c.Standup
		c.Standup = nil
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if snap == nil || len(snap.Lines) == 0 {
		return nil
	}
	parts := make([]string, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		parts = append(parts, l.Handle+": "+l.Text)
	}
	id, err := s.store.NextID(ctx)
	if err != nil {
		return err
	}
	// склеенное сообщение не рассылает уведомлений о тегах
	return s.deliverPlain(ctx, channelID, id, snap.StarterID, strings.Join(parts, "\n"))
}

// deliverPlain — доставка без рассылки тегов, для склейки стендапа.
func (s *Service) deliverPlain(ctx context.Context, convID, msgID, authorID int64, text string) error {
	now := s.now().Unix()
	err := s.store.UpdateConversation(ctx, convID, func(c *model.Conversation) error {
		c.Messages = append(c.Messages, model.Message{
			ID:       msgID,
			AuthorID: authorID,
			Text:     text,
			SentAt:   now,
		})
		return nil
	})
	if err != nil {
		return err
	}
	err = s.store.UpdateUser(ctx, authorID, func(u *model.User) error {
		u.MessagesSent = bumpSeries(u.MessagesSent, 1, now)
		return nil
	})
	if err != nil {
		return err
	}
	return s.bumpWorkspace(ctx, func(w *model.Workspace) {
		w.MessagesExist = bumpSeries(w.MessagesExist, 1, now)
	})
}
