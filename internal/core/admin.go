package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/workchat/internal/model"
	"github.com/workchat/internal/store"
)

// ChangeUserTier меняет уровень прав пользователя в воркспейсе. Доступно
// только владельцам воркспейса. Последнего владельца понизить нельзя.
func (s *Service) ChangeUserTier(ctx context.Context, userID, targetID int64, tier model.Tier) error {
	target, err := s.store.User(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return badRequest("user does not exist")
	}
	if err != nil {
		return fmt.Errorf("core.ChangeUserTier: %w", err)
	}
	actor, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.ChangeUserTier: %w", err)
	}
	if actor.Tier != model.TierOwner {
		return forbidden("user is not a workspace owner")
	}
	if !tier.Valid() {
		return badRequest("invalid permission tier")
	}
	if target.Tier == tier {
		return badRequest("user already has the permission tier")
	}
	if target.Tier == model.TierOwner && tier == model.TierMember {
		owners, err := s.countOwners(ctx)
		if err != nil {
			return fmt.Errorf("core.ChangeUserTier: %w", err)
		}
		if owners == 1 {
			return badRequest("user is the only workspace owner")
		}
	}
	err = s.store.UpdateUser(ctx, targetID, func(u *model.User) error {
		u.Tier = tier
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.ChangeUserTier: %w", err)
	}
	return nil
}

// RemoveUser удаляет пользователя из воркспейса. Его сообщения во всех
// беседах заменяются заглушкой, членства и владения снимаются, профиль
// затирается, почта и ник освобождаются, все сессии закрываются.
// Реакции и закрепления не трогаются, счётчики воркспейса не пересчитываются.
// Пока у пользователя идёт запущенный им стендап, удаление отклоняется.
func (s *Service) RemoveUser(ctx context.Context, userID, targetID int64) error {
	target, err := s.store.User(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return badRequest("user does not exist")
	}
	if err != nil {
		return fmt.Errorf("core.RemoveUser: %w", err)
	}
	if target.Removed {
		return badRequest("user does not exist")
	}
	actor, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.RemoveUser: %w", err)
	}
	if actor.Tier != model.TierOwner {
		return forbidden("user is not a workspace owner")
	}
	if target.Tier == model.TierOwner {
		owners, err := s.countOwners(ctx)
		if err != nil {
			return fmt.Errorf("core.RemoveUser: %w", err)
		}
		if owners == 1 {
			return badRequest("user is the only workspace owner")
		}
	}

	convs, err := s.store.Conversations(ctx)
	if err != nil {
		return fmt.Errorf("core.RemoveUser: %w", err)
	}
	for _, c := range convs {
		if startedActiveStandup(&c, targetID) {
			return badRequest("user started an active standup in the channel")
		}
	}
	// Заглушкой заменяются сообщения и в беседах, которые пользователь
	// уже покинул.
	for _, c := range convs {
		if !c.IsMember(targetID) && !authoredAny(&c, targetID) {
			continue
		}
		err = s.store.UpdateConversation(ctx, c.ID, func(c *model.Conversation) error {
			if startedActiveStandup(c, targetID) {
				return badRequest("user started an active standup in the channel")
			}
			for i := range c.Messages {
				if c.Messages[i].AuthorID == targetID {
					c.Messages[i].Text = model.RemovedText
				}
			}
			c.RemoveMember(targetID)
			return nil
		})
		if err != nil {
			return wrapInternal("core.RemoveUser", err)
		}
	}

	err = s.store.UpdateUser(ctx, targetID, func(u *model.User) error {
		u.FirstName = model.RemovedFirstName
		u.LastName = model.RemovedLastName
		u.Email = ""
		u.Handle = ""
		u.Removed = true
		u.Tier = model.TierMember
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.RemoveUser: %w", err)
	}
	if err := s.sessions.DeleteUserTokens(ctx, targetID); err != nil {
		return fmt.Errorf("core.RemoveUser: %w", err)
	}
	return nil
}

func startedActiveStandup(c *model.Conversation, userID int64) bool {
	return c.Standup != nil && c.Standup.Active && c.Standup.StarterID == userID
}

func authoredAny(c *model.Conversation, userID int64) bool {
	for i := range c.Messages {
		if c.Messages[i].AuthorID == userID {
			return true
		}
	}
	return false
}

func (s *Service) countOwners(ctx context.Context) (int, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range users {
		if !u.Removed && u.Tier == model.TierOwner {
			n++
		}
	}
	return n, nil
}
