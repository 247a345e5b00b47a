package core

import "github.com/workchat/internal/model"

// Чистые функции проверки прав. Не ходят в хранилище, решение принимается по
// уже загруженным беседе и пользователю, поэтому легко покрываются табличными
// тестами.

// canMutateMessage — право редактировать, удалять и закреплять сообщение.
// В канале это автор, владелец канала или владелец воркспейса, состоящий в
// канале. В личной беседе владелец воркспейса привилегий не имеет: только
// автор и создатель беседы.
func canMutateMessage(c *model.Conversation, u *model.User, authorID int64) bool {
	if !c.IsMember(u.ID) {
		return false
	}
	if u.ID == authorID || c.IsOwner(u.ID) {
		return true
	}
	return c.Kind == model.KindChannel && u.Tier == model.TierOwner
}

// canModifyOwners — право назначать и снимать владельцев канала. Требуется
// членство и либо владение каналом, либо статус владельца воркспейса.
func canModifyOwners(c *model.Conversation, u *model.User) bool {
	if !c.IsMember(u.ID) {
		return false
	}
	return c.IsOwner(u.ID) || (c.Kind == model.KindChannel && u.Tier == model.TierOwner)
}

// canJoin — право самостоятельно войти в канал: канал публичный либо
// пользователь — владелец воркспейса.
func canJoin(c *model.Conversation, u *model.User) bool {
	return c.Public || u.Tier == model.TierOwner
}
