package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/workchat/internal/model"
	"github.com/workchat/internal/store"
)

// CreateDM создаёт личную беседу между создателем и приглашёнными. Имя
// беседы фиксируется при создании: ники всех участников в алфавитном
// порядке через запятую.
func (s *Service) CreateDM(ctx context.Context, userID int64, inviteeIDs []int64) (int64, error) {
	seen := map[int64]bool{userID: true}
	for _, id := range inviteeIDs {
		if seen[id] {
			return 0, badRequest("duplicate user in invite list")
		}
		seen[id] = true
	}

	memberIDs := append([]int64{userID}, inviteeIDs...)
	handles := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		u, err := s.store.User(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return 0, badRequest("user does not exist")
		}
		if err != nil {
			return 0, fmt.Errorf("core.CreateDM: %w", err)
		}
		if u.Removed {
			return 0, badRequest("user does not exist")
		}
		handles = append(handles, u.Handle)
	}
	sort.Strings(handles)

	id, err := s.store.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("core.CreateDM: %w", err)
	}
	now := s.now().Unix()
	c := &model.Conversation{
		ID:        id,
		Kind:      model.KindDM,
		Name:      strings.Join(handles, ", "),
		CreatorID: userID,
		CreatedAt: now,
		MemberIDs: memberIDs,
		OwnerIDs:  []int64{userID},
	}
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return 0, fmt.Errorf("core.CreateDM: %w", err)
	}

	for _, mid := range memberIDs {
		if err := s.bumpUserDMs(ctx, mid, 1); err != nil {
			return 0, fmt.Errorf("core.CreateDM: %w", err)
		}
	}
	if err := s.bumpWorkspace(ctx, func(w *model.Workspace) {
		w.DMsExist = bumpSeries(w.DMsExist, 1, now)
	}); err != nil {
		return 0, fmt.Errorf("core.CreateDM: %w", err)
	}

	creator, err := s.store.User(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("core.CreateDM: %w", err)
	}
	for _, invitee := range inviteeIDs {
		s.notify(ctx, invitee, model.Notification{
			ChannelID: model.NoConversation,
			DMID:      id,
			Message:   fmt.Sprintf("%s added you to %s", creator.Handle, c.Name),
		})
	}
	return id, nil
}

// DMs возвращает личные беседы, в которых состоит пользователь.
func (s *Service) DMs(ctx context.Context, userID int64) ([]ConversationSummary, error) {
	convs, err := s.store.Conversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("core.DMs: %w", err)
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		if c.Kind == model.KindDM && c.IsMember(userID) {
			out = append(out, ConversationSummary{ID: c.ID, Name: c.Name})
		}
	}
	return out, nil
}

// DMDetails — имя и состав личной беседы, только для участников.
func (s *Service) DMDetails(ctx context.Context, userID, dmID int64) (ConversationDetails, error) {
	c, err := s.dm(ctx, dmID)
	if err != nil {
		return ConversationDetails{}, err
	}
	if !c.IsMember(userID) {
		return ConversationDetails{}, forbidden("user is not a member of the dm")
	}
	return s.details(ctx, c)
}

// LeaveDM — выход из личной беседы. Имя беседы не пересчитывается,
// сообщения вышедшего остаются.
func (s *Service) LeaveDM(ctx context.Context, userID, dmID int64) error {
	if _, err := s.dm(ctx, dmID); err != nil {
		return err
	}
	err := s.store.UpdateConversation(ctx, dmID, func(c *model.Conversation) error {
		if !c.IsMember(userID) {
			return forbidden("user is not a member of the dm")
		}
		c.RemoveMember(userID)
		return nil
	})
	if err != nil {
		return wrapInternal("core.LeaveDM", err)
	}
	if err := s.bumpUserDMs(ctx, userID, -1); err != nil {
		return fmt.Errorf("core.LeaveDM: %w", err)
	}
	return nil
}

// RemoveDM удаляет беседу целиком. Доступно только создателю, и только пока
// он сам в ней состоит.
func (s *Service) RemoveDM(ctx context.Context, userID, dmID int64) error {
	c, err := s.dm(ctx, dmID)
	if err != nil {
		return err
	}
	if c.CreatorID != userID || !c.IsMember(userID) {
		return forbidden("user is not the creator of the dm")
	}

	now := s.now().Unix()
	for _, mid := range c.MemberIDs {
		if err := s.bumpUserDMs(ctx, mid, -1); err != nil {
			return fmt.Errorf("core.RemoveDM: %w", err)
		}
	}
	if err := s.store.DeleteConversation(ctx, dmID); err != nil {
		return fmt.Errorf("core.RemoveDM: %w", err)
	}
	err = s.bumpWorkspace(ctx, func(w *model.Workspace) {
		w.DMsExist = bumpSeries(w.DMsExist, -1, now)
		if n := len(c.Messages); n > 0 {
			w.MessagesExist = bumpSeries(w.MessagesExist, -n, now)
		}
	})
	if err != nil {
		return fmt.Errorf("core.RemoveDM: %w", err)
	}
	return nil
}

// dm загружает беседу и проверяет, что это личная беседа.
func (s *Service) dm(ctx context.Context, dmID int64) (*model.Conversation, error) {
	c, err := s.store.Conversation(ctx, dmID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, badRequest("dm does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("core.dm: %w", err)
	}
	if c.Kind != model.KindDM {
		return nil, badRequest("dm does not exist")
	}
	return c, nil
}

func (s *Service) bumpUserDMs(ctx context.Context, userID int64, delta int) error {
	now := s.now().Unix()
	return s.store.UpdateUser(ctx, userID, func(u *model.User) error {
		u.DMsJoined = bumpSeries(u.DMsJoined, delta, now)
		return nil
	})
}
