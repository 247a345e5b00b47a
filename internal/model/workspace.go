package model

// Workspace — singleton-запись с глобальными рядами статистики
// (сколько каналов/DM/сообщений существует на каждый момент).
type Workspace struct {
	ChannelsExist []StatPoint `json:"channels_exist"`
	DMsExist      []StatPoint `json:"dms_exist"`
	MessagesExist []StatPoint `json:"messages_exist"`
}

func (w *Workspace) Clone() *Workspace {
	c := *w
	c.ChannelsExist = append([]StatPoint(nil), w.ChannelsExist...)
	c.DMsExist = append([]StatPoint(nil), w.DMsExist...)
	c.MessagesExist = append([]StatPoint(nil), w.MessagesExist...)
	return &c
}
