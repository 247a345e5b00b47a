package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/workchat/internal/model"
	"github.com/workchat/internal/store"
)

const (
	minChannelNameLen = 1
	maxChannelNameLen = 20
)

// ConversationSummary — элемент списков каналов и личных бесед.
type ConversationSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ConversationDetails — раскрытая информация о беседе для её участников.
type ConversationDetails struct {
	Name    string             `json:"name"`
	Public  bool               `json:"public"`
	Owners  []model.UserPublic `json:"owners"`
	Members []model.UserPublic `json:"members"`
}

// CreateChannel создаёт канал. Создатель становится единственным владельцем
// и первым участником.
func (s *Service) CreateChannel(ctx context.Context, userID int64, name string, public bool) (int64, error) {
	if l := len(name); l < minChannelNameLen || l > maxChannelNameLen {
		return 0, badRequestf("channel name must be %d-%d characters", minChannelNameLen, maxChannelNameLen)
	}
	id, err := s.store.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("core.CreateChannel: %w", err)
	}
	now := s.now().Unix()
	c := &model.Conversation{
		ID:        id,
		Kind:      model.KindChannel,
		Name:      name,
		Public:    public,
		CreatorID: userID,
		CreatedAt: now,
		MemberIDs: []int64{userID},
		OwnerIDs:  []int64{userID},
	}
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return 0, fmt.Errorf("core.CreateChannel: %w", err)
	}
	if err := s.bumpUserChannels(ctx, userID, 1); err != nil {
		return 0, fmt.Errorf("core.CreateChannel: %w", err)
	}
	if err := s.bumpWorkspace(ctx, func(w *model.Workspace) {
		w.ChannelsExist = bumpSeries(w.ChannelsExist, 1, now)
	}); err != nil {
		return 0, fmt.Errorf("core.CreateChannel: %w", err)
	}
	return id, nil
}

// Channels возвращает каналы, в которых состоит пользователь.
func (s *Service) Channels(ctx context.Context, userID int64) ([]ConversationSummary, error) {
	convs, err := s.store.Conversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("core.Channels: %w", err)
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		if c.Kind == model.KindChannel && c.IsMember(userID) {
			out = append(out, ConversationSummary{ID: c.ID, Name: c.Name})
		}
	}
	return out, nil
}

// AllChannels возвращает все каналы воркспейса, включая приватные.
func (s *Service) AllChannels(ctx context.Context) ([]ConversationSummary, error) {
	convs, err := s.store.Conversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("core.AllChannels: %w", err)
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		if c.Kind == model.KindChannel {
			out = append(out, ConversationSummary{ID: c.ID, Name: c.Name})
		}
	}
	return out, nil
}

// ChannelDetails — имя, видимость и составы владельцев и участников.
// Доступно только участникам канала.
func (s *Service) ChannelDetails(ctx context.Context, userID, channelID int64) (ConversationDetails, error) {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return ConversationDetails{}, err
	}
	if !c.IsMember(userID) {
		return ConversationDetails{}, forbidden("user is not a member of the channel")
	}
	return s.details(ctx, c)
}

func (s *Service) details(ctx context.Context, c *model.Conversation) (ConversationDetails, error) {
	d := ConversationDetails{
		Name:    c.Name,
		Public:  c.Public,
		Owners:  make([]model.UserPublic, 0, len(c.OwnerIDs)),
		Members: make([]model.UserPublic, 0, len(c.MemberIDs)),
	}
	for _, id := range c.OwnerIDs {
		u, err := s.store.User(ctx, id)
		if err != nil {
			return ConversationDetails{}, fmt.Errorf("core.details: %w", err)
		}
		d.Owners = append(d.Owners, u.ToPublic())
	}
	for _, id := range c.MemberIDs {
		u, err := s.store.User(ctx, id)
		if err != nil {
			return ConversationDetails{}, fmt.Errorf("core.details: %w", err)
		}
		d.Members = append(d.Members, u.ToPublic())
	}
	return d, nil
}

// JoinChannel — самостоятельный вход. В приватный канал так может войти
// только владелец воркспейса.
func (s *Service) JoinChannel(ctx context.Context, userID, channelID int64) error {
	if _, err := s.channel(ctx, channelID); err != nil {
		return err
	}
	u, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.JoinChannel: %w", err)
	}
	err = s.store.UpdateConversation(ctx, channelID, func(c *model.Conversation) error {
		if c.IsMember(userID) {
			return badRequest("user is already a member of the channel")
		}
		if !canJoin(c, u) {
			return forbidden("channel is private")
		}
		c.AddMember(userID)
		return nil
	})
	if err != nil {
		return wrapInternal("core.JoinChannel", err)
	}
	if err := s.bumpUserChannels(ctx, userID, 1); err != nil {
		return fmt.Errorf("core.JoinChannel: %w", err)
	}
	return nil
}

// InviteToChannel добавляет другого пользователя в канал. Любой участник
// может приглашать, в том числе в приватные каналы. Приглашённому приходит
// уведомление.
func (s *Service) InviteToChannel(ctx context.Context, userID, channelID, targetID int64) error {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return err
	}
	target, err := s.store.User(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return badRequest("user does not exist")
	}
	if err != nil {
		return fmt.Errorf("core.InviteToChannel: %w", err)
	}
	if target.Removed {
		return badRequest("user does not exist")
	}
	err = s.store.UpdateConversation(ctx, channelID, func(c *model.Conversation) error {
		if !c.IsMember(userID) {
			return forbidden("user is not a member of the channel")
		}
		if c.IsMember(targetID) {
			return badRequest("user is already a member of the channel")
		}
		c.AddMember(targetID)
		return nil
	})
	if err != nil {
		return wrapInternal("core.InviteToChannel", err)
	}
	if err := s.bumpUserChannels(ctx, targetID, 1); err != nil {
		return fmt.Errorf("core.InviteToChannel: %w", err)
	}
	actor, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.InviteToChannel: %w", err)
	}
	s.notify(ctx, targetID, model.Notification{
		ChannelID: channelID,
		DMID:      model.NoConversation,
		Message:   fmt.Sprintf("%s added you to %s", actor.Handle, c.Name),
	})
	return nil
}

// LeaveChannel — выход из канала. Сообщения покинувшего остаются. Стартер
// активного стендапа выйти не может, пока стендап не завершится.
func (s *Service) LeaveChannel(ctx context.Context, userID, channelID int64) error {
	if _, err := s.channel(ctx, channelID); err != nil {
		return err
	}
	err := s.store.UpdateConversation(ctx, channelID, func(c *model.Conversation) error {
		if !c.IsMember(userID) {
			return forbidden("user is not a member of the channel")
		}
		if startedActiveStandup(c, userID) {
			return badRequest("user started an active standup in the channel")
		}
		c.RemoveMember(userID)
		return nil
	})
	if err != nil {
		return wrapInternal("core.LeaveChannel", err)
	}
	if err := s.bumpUserChannels(ctx, userID, -1); err != nil {
		return fmt.Errorf("core.LeaveChannel: %w", err)
	}
	return nil
}

// AddOwner повышает участника канала до владельца.
func (s *Service) AddOwner(ctx context.Context, userID, channelID, targetID int64) error {
	if _, err := s.channel(ctx, channelID); err != nil {
		return err
	}
	target, err := s.store.User(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return badRequest("user does not exist")
	}
	if err != nil {
		return fmt.Errorf("core.AddOwner: %w", err)
	}
	actor, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.AddOwner: %w", err)
	}
	err = s.store.UpdateConversation(ctx, channelID, func(c *model.Conversation) error {
		if !canModifyOwners(c, actor) {
			return forbidden("user has no permission to modify channel owners")
		}
		if !c.IsMember(target.ID) {
			return badRequest("user is not a member of the channel")
		}
		if c.IsOwner(target.ID) {
			return badRequest("user is already an owner of the channel")
		}
		c.AddOwner(targetID)
		return nil
	})
	return wrapInternal("core.AddOwner", err)
}

// RemoveOwner снимает владельца канала. Последнего владельца снять нельзя
// независимо от прав снимающего.
func (s *Service) RemoveOwner(ctx context.Context, userID, channelID, targetID int64) error {
	if _, err := s.channel(ctx, channelID); err != nil {
		return err
	}
	target, err := s.store.User(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return badRequest("user does not exist")
	}
	if err != nil {
		return fmt.Errorf("core.RemoveOwner: %w", err)
	}
	actor, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.RemoveOwner: %w", err)
	}
	err = s.store.UpdateConversation(ctx, channelID, func(c *model.Conversation) error {
		if !canModifyOwners(c, actor) {
			return forbidden("user has no permission to modify channel owners")
		}
		if !c.IsOwner(target.ID) {
			return badRequest("user is not an owner of the channel")
		}
		if c.OwnerCount() == 1 {
			return badRequest("user is the only owner of the channel")
		}
		c.RemoveOwner(targetID)
		return nil
	})
	return wrapInternal("core.RemoveOwner", err)
}

// channel загружает беседу и проверяет, что это канал.
func (s *Service) channel(ctx context.Context, channelID int64) (*model.Conversation, error) {
	c, err := s.store.Conversation(ctx, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, badRequest("channel does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("core.channel: %w", err)
	}
	if c.Kind != model.KindChannel {
		return nil, badRequest("channel does not exist")
	}
	return c, nil
}

func (s *Service) bumpUserChannels(ctx context.Context, userID int64, delta int) error {
	now := s.now().Unix()
	return s.store.UpdateUser(ctx, userID, func(u *model.User) error {
		u.ChannelsJoined = bumpSeries(u.ChannelsJoined, delta, now)
		return nil
	})
}
