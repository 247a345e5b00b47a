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

const (
	minMessageLen = 1
	maxMessageLen = 1000
	pageSize      = 50
)

// MessageView — сообщение в ответе API. Реакции дополнены признаком
// "запрашивающий уже реагировал".
type MessageView struct {
	ID        int64          `json:"id"`
	AuthorID  int64          `json:"author_id"`
	Text      string         `json:"text"`
	SentAt    int64          `json:"sent_at"`
	Pinned    bool           `json:"pinned"`
	Reactions []ReactionView `json:"reactions"`
}

type ReactionView struct {
	Kind    int     `json:"kind"`
	UserIDs []int64 `json:"user_ids"`
	HasSelf bool    `json:"has_self"`
}

// MessagePage — страница истории, от новых к старым.
type MessagePage struct {
	Messages []MessageView `json:"messages"`
	Start    int           `json:"start"`
	End      int           `json:"end"`
}

// SendMessage отправляет сообщение в канал.
func (s *Service) SendMessage(ctx context.Context, userID, channelID int64, text string) (int64, error) {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return 0, err
	}
	return s.send(ctx, c, userID, text)
}

// SendDMMessage отправляет сообщение в личную беседу.
func (s *Service) SendDMMessage(ctx context.Context, userID, dmID int64, text string) (int64, error) {
	c, err := s.dm(ctx, dmID)
	if err != nil {
		return 0, err
	}
	return s.send(ctx, c, userID, text)
}

func (s *Service) send(ctx context.Context, c *model.Conversation, userID int64, text string) (int64, error) {
	if !c.IsMember(userID) {
		return 0, forbidden("user is not a member of the conversation")
	}
	if l := len(text); l < minMessageLen || l > maxMessageLen {
		return 0, badRequestf("message must be %d-%d characters", minMessageLen, maxMessageLen)
	}
	id, err := s.store.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("core.send: %w", err)
	}
	if err := s.deliver(ctx, c.ID, id, userID, text); err != nil {
		return 0, err
	}
	return id, nil
}

// deliver кладёт сообщение в беседу, обновляет статистику и рассылает
// уведомления о тегах. Общий финал немедленной и отложенной отправки.
func (s *Service) deliver(ctx context.Context, convID, msgID, authorID int64, text string) error {
	now := s.now().Unix()
	var conv *model.Conversation
	err := s.store.UpdateConversation(ctx, convID, func(c *model.Conversation) error {
		c.Messages = append(c.Messages, model.Message{
			ID:       msgID,
			AuthorID: authorID,
			Text:     text,
			SentAt:   now,
		})
		conv = c.Clone()
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.deliver: %w", err)
	}
	err = s.store.UpdateUser(ctx, authorID, func(u *model.User) error {
		u.MessagesSent = bumpSeries(u.MessagesSent, 1, now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.deliver: %w", err)
	}
	err = s.bumpWorkspace(ctx, func(w *model.Workspace) {
		w.MessagesExist = bumpSeries(w.MessagesExist, 1, now)
	})
	if err != nil {
		return fmt.Errorf("core.deliver: %w", err)
	}
	s.notifyTags(ctx, conv, authorID, text)
	return nil
}

// SendMessageLater планирует отправку в канал на будущий момент.
// Идентификатор выделяется сразу, но до срабатывания сообщение невидимо и
// недоступно для редактирования.
func (s *Service) SendMessageLater(ctx context.Context, userID, channelID int64, text string, sendAt int64) (int64, error) {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return 0, err
	}
	return s.sendLater(ctx, c, userID, text, sendAt)
}

// SendDMMessageLater планирует отправку в личную беседу.
func (s *Service) SendDMMessageLater(ctx context.Context, userID, dmID int64, text string, sendAt int64) (int64, error) {
	c, err := s.dm(ctx, dmID)
	if err != nil {
		return 0, err
	}
	return s.sendLater(ctx, c, userID, text, sendAt)
}

func (s *Service) sendLater(ctx context.Context, c *model.Conversation, userID int64, text string, sendAt int64) (int64, error) {
	if !c.IsMember(userID) {
		return 0, forbidden("user is not a member of the conversation")
	}
	if l := len(text); l < minMessageLen || l > maxMessageLen {
		return 0, badRequestf("message must be %d-%d characters", minMessageLen, maxMessageLen)
	}
	if sendAt < s.now().Unix() {
		return 0, badRequest("send time is in the past")
	}
	id, err := s.store.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("core.sendLater: %w", err)
	}
	convID := c.ID
	s.sched.At(time.Unix(sendAt, 0), func() {
		// к моменту срабатывания беседа могла исчезнуть: молча бросаем;
		// выход автора из беседы отправке не мешает
		err := s.deliver(context.Background(), convID, id, userID, text)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			logger.Errorf("core.sendLater: fire: %v", err)
		}
	})
	return id, nil
}

// ChannelMessages — страница истории канала, начиная с позиции start от
// самого нового сообщения.
func (s *Service) ChannelMessages(ctx context.Context, userID, channelID int64, start int) (MessagePage, error) {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return MessagePage{}, err
	}
	return s.page(c, userID, start)
}

// DMMessages — страница истории личной беседы.
func (s *Service) DMMessages(ctx context.Context, userID, dmID int64, start int) (MessagePage, error) {
	c, err := s.dm(ctx, dmID)
	if err != nil {
		return MessagePage{}, err
	}
	return s.page(c, userID, start)
}

func (s *Service) page(c *model.Conversation, userID int64, start int) (MessagePage, error) {
	if !c.IsMember(userID) {
		return MessagePage{}, forbidden("user is not a member of the conversation")
	}
	total := len(c.Messages)
	if start < 0 || start > total {
		return MessagePage{}, badRequest("start is greater than the number of messages")
	}
	end := start + pageSize
	if end >= total {
		end = -1
	}
	count := pageSize
	if end == -1 {
		count = total - start
	}
	page := MessagePage{Messages: make([]MessageView, 0, count), Start: start, End: end}
	// история хранится от старых к новым, страница отдаётся от новых к старым
	for i := 0; i < count; i++ {
		m := c.Messages[total-1-start-i]
		page.Messages = append(page.Messages, viewMessage(&m, userID))
	}
	return page, nil
}

func viewMessage(m *model.Message, viewerID int64) MessageView {
	v := MessageView{
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		Text:      m.Text,
		SentAt:    m.SentAt,
		Pinned:    m.Pinned,
		Reactions: make([]ReactionView, 0, len(m.Reactions)),
	}
	for _, r := range m.Reactions {
		v.Reactions = append(v.Reactions, ReactionView{
			Kind:    r.Kind,
			UserIDs: append([]int64(nil), r.UserIDs...),
			HasSelf: m.HasReacted(r.Kind, viewerID),
		})
	}
	return v
}

// locate находит беседу по идентификатору сообщения и проверяет членство
// запрашивающего. Несуществующее сообщение и сообщение в чужой беседе
// неразличимы для вызывающего.
func (s *Service) locate(ctx context.Context, userID, messageID int64) (*model.Conversation, *model.Message, error) {
	c, err := s.store.ConversationByMessage(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, badRequest("message does not exist")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("core.locate: %w", err)
	}
	if !c.IsMember(userID) {
		return nil, nil, badRequest("message does not exist")
	}
	m := c.Message(messageID)
	if m == nil {
		return nil, nil, badRequest("message does not exist")
	}
	return c, m, nil
}

// EditMessage заменяет текст сообщения. Пустой новый текст удаляет
// сообщение целиком. Новые теги в тексте рассылают уведомления заново.
func (s *Service) EditMessage(ctx context.Context, userID, messageID int64, text string) error {
	if len(text) > maxMessageLen {
		return badRequestf("message must be at most %d characters", maxMessageLen)
	}
	c, m, err := s.locate(ctx, userID, messageID)
	if err != nil {
		return err
	}
	u, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.EditMessage: %w", err)
	}
	if !canMutateMessage(c, u, m.AuthorID) {
		return forbidden("user has no permission to edit the message")
	}
	if text == "" {
		return s.removeLocated(ctx, c.ID, messageID)
	}
	var conv *model.Conversation
	err = s.store.UpdateConversation(ctx, c.ID, func(c *model.Conversation) error {
		m := c.Message(messageID)
		if m == nil {
			return badRequest("message does not exist")
		}
		m.Text = text
		conv = c.Clone()
		return nil
	})
	if err != nil {
		return wrapInternal("core.EditMessage", err)
	}
	s.notifyTags(ctx, conv, m.AuthorID, text)
	return nil
}

// RemoveMessage удаляет сообщение физически: оно исчезает из истории, а не
// заменяется заглушкой.
func (s *Service) RemoveMessage(ctx context.Context, userID, messageID int64) error {
	c, m, err := s.locate(ctx, userID, messageID)
	if err != nil {
		return err
	}
	u, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.RemoveMessage: %w", err)
	}
	if !canMutateMessage(c, u, m.AuthorID) {
		return forbidden("user has no permission to remove the message")
	}
	return s.removeLocated(ctx, c.ID, messageID)
}

func (s *Service) removeLocated(ctx context.Context, convID, messageID int64) error {
	err := s.store.UpdateConversation(ctx, convID, func(c *model.Conversation) error {
		if !c.DeleteMessage(messageID) {
			return badRequest("message does not exist")
		}
		return nil
	})
	if err != nil {
		return wrapInternal("core.removeLocated", err)
	}
	err = s.bumpWorkspace(ctx, func(w *model.Workspace) {
		w.MessagesExist = bumpSeries(w.MessagesExist, -1, s.now().Unix())
	})
	if err != nil {
		return fmt.Errorf("core.removeLocated: %w", err)
	}
	return nil
}

// PinMessage закрепляет сообщение. Повторное закрепление — ошибка.
func (s *Service) PinMessage(ctx context.Context, userID, messageID int64) error {
	return s.setPinned(ctx, userID, messageID, true)
}

// UnpinMessage снимает закрепление.
func (s *Service) UnpinMessage(ctx context.Context, userID, messageID int64) error {
	return s.setPinned(ctx, userID, messageID, false)
}

func (s *Service) setPinned(ctx context.Context, userID, messageID int64, pinned bool) error {
	c, _, err := s.locate(ctx, userID, messageID)
	if err != nil {
		return err
	}
	u, err := s.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("core.setPinned: %w", err)
	}
	err = s.store.UpdateConversation(ctx, c.ID, func(c *model.Conversation) error {
		m := c.Message(messageID)
		if m == nil {
			return badRequest("message does not exist")
		}
		if !canMutateMessage(c, u, m.AuthorID) {
			return forbidden("user has no permission to pin the message")
		}
		if m.Pinned == pinned {
			if pinned {
				return badRequest("message is already pinned")
			}
			return badRequest("message is not pinned")
		}
		m.Pinned = pinned
		return nil
	})
	return wrapInternal("core.setPinned", err)
}

// React ставит реакцию на сообщение. Автору сообщения приходит уведомление,
// если он всё ещё состоит в беседе.
func (s *Service) React(ctx context.Context, userID, messageID int64, kind int) error {
	if kind != model.ReactThumbsUp {
		return badRequest("invalid reaction kind")
	}
	c, m, err := s.locate(ctx, userID, messageID)
	if err != nil {
		return err
	}
	err = s.store.UpdateConversation(ctx, c.ID, func(c *model.Conversation) error {
		m := c.Message(messageID)
		if m == nil {
			return badRequest("message does not exist")
		}
		if m.HasReacted(kind, userID) {
			return badRequest("user already reacted to the message")
		}
		r := m.Reaction(kind)
		if r == nil {
			m.Reactions = append(m.Reactions, model.Reaction{Kind: kind})
			r = &m.Reactions[len(m.Reactions)-1]
		}
		r.UserIDs = append(r.UserIDs, userID)
		return nil
	})
	if err != nil {
		return wrapInternal("core.React", err)
	}
	if c.IsMember(m.AuthorID) && m.AuthorID != userID {
		actor, err := s.store.User(ctx, userID)
		if err != nil {
			return fmt.Errorf("core.React: %w", err)
		}
		n := model.Notification{
			ChannelID: model.NoConversation,
			DMID:      model.NoConversation,
			Message:   fmt.Sprintf("%s reacted to your message in %s", actor.Handle, c.Name),
		}
		if c.Kind == model.KindChannel {
			n.ChannelID = c.ID
		} else {
			n.DMID = c.ID
		}
		s.notify(ctx, m.AuthorID, n)
	}
	return nil
}

// Unreact снимает свою реакцию.
func (s *Service) Unreact(ctx context.Context, userID, messageID int64, kind int) error {
	if kind != model.ReactThumbsUp {
		return badRequest("invalid reaction kind")
	}
	c, _, err := s.locate(ctx, userID, messageID)
	if err != nil {
		return err
	}
	err = s.store.UpdateConversation(ctx, c.ID, func(c *model.Conversation) error {
		m := c.Message(messageID)
		if m == nil {
			return badRequest("message does not exist")
		}
		if !m.HasReacted(kind, userID) {
			return badRequest("user has not reacted to the message")
		}
		r := m.Reaction(kind)
		for i, id := range r.UserIDs {
			if id == userID {
				r.UserIDs = append(r.UserIDs[:i], r.UserIDs[i+1:]...)
				break
			}
		}
		return nil
	})
	return wrapInternal("core.Unreact", err)
}

// ShareMessage пересылает сообщение в другой канал или личную беседу:
// создаётся новое сообщение из исходного текста и необязательного
// комментария. Связь с оригиналом не сохраняется.
func (s *Service) ShareMessage(ctx context.Context, userID, ogMessageID int64, comment string, channelID, dmID int64) (int64, error) {
	if (channelID == model.NoConversation) == (dmID == model.NoConversation) {
		return 0, badRequest("exactly one of channel and dm must be given")
	}
	if len(comment) > maxMessageLen {
		return 0, badRequestf("comment must be at most %d characters", maxMessageLen)
	}

	var target *model.Conversation
	var err error
	if channelID != model.NoConversation {
		target, err = s.channel(ctx, channelID)
	} else {
		target, err = s.dm(ctx, dmID)
	}
	if err != nil {
		return 0, err
	}

	_, og, err := s.locate(ctx, userID, ogMessageID)
	if err != nil {
		return 0, err
	}
	if !target.IsMember(userID) {
		return 0, forbidden("user is not a member of the target conversation")
	}

	text := og.Text
	if comment != "" {
		text = text + "\n" + comment
	}
	id, err := s.store.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("core.ShareMessage: %w", err)
	}
	if err := s.deliver(ctx, target.ID, id, userID, text); err != nil {
		return 0, err
	}
	return id, nil
}

// SearchResult — найденное сообщение с указанием беседы.
type SearchResult struct {
	ConversationID int64       `json:"conversation_id"`
	Kind           string      `json:"kind"`
	Message        MessageView `json:"message"`
}

// Search ищет подстроку без учёта регистра по всем беседам пользователя.
func (s *Service) Search(ctx context.Context, userID int64, query string) ([]SearchResult, error) {
	if l := len(query); l < 1 || l > maxMessageLen {
		return nil, badRequestf("query must be %d-%d characters", 1, maxMessageLen)
	}
	convs, err := s.store.Conversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("core.Search: %w", err)
	}
	needle := strings.ToLower(query)
	var out []SearchResult
	for _, c := range convs {
		if !c.IsMember(userID) {
			continue
		}
		for i := range c.Messages {
			m := &c.Messages[i]
			if strings.Contains(strings.ToLower(m.Text), needle) {
				out = append(out, SearchResult{
					ConversationID: c.ID,
					Kind:           string(c.Kind),
					Message:        viewMessage(m, userID),
				})
			}
		}
	}
	return out, nil
}
