package core

import (
	"context"
	"fmt"
	"regexp"

	"github.com/workchat/internal/logger"
	"github.com/workchat/internal/model"
)

const notificationsPageSize = 20

// tagRx вырезает кандидатов в теги: "@" и буквенно-цифровой хвост.
// Кандидат считается тегом, только если хвост совпал с ником участника.
var tagRx = regexp.MustCompile(`@[a-zA-Z0-9]+`)

const tagPreviewLen = 20

// Notifications возвращает до 20 последних уведомлений, от новых к старым.
func (s *Service) Notifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	u, err := s.store.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("core.Notifications: %w", err)
	}
	ns := u.Notifications
	if len(ns) > notificationsPageSize {
		ns = ns[:notificationsPageSize]
	}
	out := make([]model.Notification, len(ns))
	copy(out, ns)
	return out, nil
}

// notify кладёт уведомление в начало ленты получателя. Сбой доставки
// уведомления не должен валить породившую его операцию, поэтому ошибка
// только логируется.
func (s *Service) notify(ctx context.Context, userID int64, n model.Notification) {
	err := s.store.UpdateUser(ctx, userID, func(u *model.User) error {
		u.Notifications = append([]model.Notification{n}, u.Notifications...)
		return nil
	})
	if err != nil {
		logger.Errorf("core.notify: user %d: %v", userID, err)
	}
}

// notifyTags рассылает уведомления о тегах в тексте сообщения. Тег — это
// "@" плюс точный ник текущего участника беседы; каждый участник получает
// не больше одного уведомления на сообщение, сколько бы раз его ни
// упомянули.
func (s *Service) notifyTags(ctx context.Context, c *model.Conversation, authorID int64, text string) {
	matches := tagRx.FindAllString(text, -1)
	if len(matches) == 0 {
		return
	}
	author, err := s.store.User(ctx, authorID)
	if err != nil {
		logger.Errorf("core.notifyTags: author %d: %v", authorID, err)
		return
	}
	preview := text
	if len(preview) > tagPreviewLen {
		preview = preview[:tagPreviewLen]
	}
	n := model.Notification{
		ChannelID: model.NoConversation,
		DMID:      model.NoConversation,
		Message:   fmt.Sprintf("%s tagged you in %s: %s", author.Handle, c.Name, preview),
	}
	if c.Kind == model.KindChannel {
		n.ChannelID = c.ID
	} else {
		n.DMID = c.ID
	}

	notified := make(map[int64]bool)
	for _, m := range matches {
		handle := m[1:]
		for _, mid := range c.MemberIDs {
			if notified[mid] {
				continue
			}
			member, err := s.store.User(ctx, mid)
			if err != nil {
				logger.Errorf("core.notifyTags: member %d: %v", mid, err)
				continue
			}
			if member.Handle == handle {
				notified[mid] = true
				s.notify(ctx, mid, n)
			}
		}
	}
}
