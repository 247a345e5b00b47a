package model

// Tier — глобальный уровень пользователя в воркспейсе (не зависит от ролей в беседах).
type Tier int

const (
	TierOwner  Tier = 1
	TierMember Tier = 2
)

// Valid сообщает, является ли значение одним из двух допустимых уровней.
func (t Tier) Valid() bool {
	return t == TierOwner || t == TierMember
}

// Значения-заглушки для профиля удалённого пользователя. Запись не удаляется,
// чтобы авторство старых сообщений оставалось привязанным к id.
const (
	RemovedFirstName = "Removed"
	RemovedLastName  = "user"
	RemovedText      = "Removed user"
)

// StatPoint — точка временного ряда статистики (значение на момент времени, UNIX-секунды).
type StatPoint struct {
	Count int   `json:"count"`
	At    int64 `json:"at"`
}

type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Handle       string `json:"handle"`
	PasswordHash []byte `json:"password_hash"`
	Tier         Tier   `json:"tier"`
	PhotoURL     string `json:"photo_url"`
	Removed      bool   `json:"removed"`

	// Временные ряды активности: каждое изменение дописывает новую точку.
	ChannelsJoined []StatPoint `json:"channels_joined"`
	DMsJoined      []StatPoint `json:"dms_joined"`
	MessagesSent   []StatPoint `json:"messages_sent"`

	// Inbox уведомлений, новые в начале.
	Notifications []Notification `json:"notifications"`
}

// UserPublic — профиль для выдачи наружу (без хеша пароля и inbox).
type UserPublic struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Handle    string `json:"handle"`
	PhotoURL  string `json:"photo_url"`
}

func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Handle:    u.Handle,
		PhotoURL:  u.PhotoURL,
	}
}

// Clone возвращает глубокую копию (хранилище отдаёт копии, чтобы вызывающий код
// не менял записи мимо атомарного обновления).
func (u *User) Clone() *User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.ChannelsJoined = append([]StatPoint(nil), u.ChannelsJoined...)
	c.DMsJoined = append([]StatPoint(nil), u.DMsJoined...)
	c.MessagesSent = append([]StatPoint(nil), u.MessagesSent...)
	c.Notifications = append([]Notification(nil), u.Notifications...)
	return &c
}
