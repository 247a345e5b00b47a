package model

// Notification — запись в inbox пользователя. Ровно одна из ссылок указывает
// на беседу, вторая равна NoConversation.
type Notification struct {
	ChannelID int64  `json:"channel_id"`
	DMID      int64  `json:"dm_id"`
	Message   string `json:"message"`
}
