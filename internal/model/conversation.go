package model

// ConversationKind — вид беседы: канал или личная переписка (DM).
type ConversationKind string

const (
	KindChannel ConversationKind = "channel"
	KindDM      ConversationKind = "dm"
)

// NoConversation — значение-заглушка для "второй" ссылки в уведомлениях и share:
// если уведомление про канал, dm_id = NoConversation, и наоборот.
const NoConversation int64 = -1

type Conversation struct {
	ID        int64            `json:"id"`
	Kind      ConversationKind `json:"kind"`
	Name      string           `json:"name"`
	Public    bool             `json:"public"`
	CreatorID int64            `json:"creator_id"`
	CreatedAt int64            `json:"created_at"`

	// Инвариант: OwnerIDs ⊆ MemberIDs.
	MemberIDs []int64 `json:"member_ids"`
	OwnerIDs  []int64 `json:"owner_ids"`

	// Лог сообщений в порядке добавления (старые в начале).
	Messages []Message `json:"messages"`

	// Состояние стендапа; nil — окно не запускалось. Только для каналов.
	Standup *Standup `json:"standup,omitempty"`
}

// Standup — окно сбора стендапа: сообщения буферизуются и по истечении окна
// склеиваются в одно сообщение от имени запустившего.
type Standup struct {
	StarterID int64         `json:"starter_id"`
	FinishAt  int64         `json:"finish_at"`
	Active    bool          `json:"active"`
	Lines     []StandupLine `json:"lines"`
}

type StandupLine struct {
	Handle string `json:"handle"`
	Text   string `json:"text"`
}

func (c *Conversation) IsMember(userID int64) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) IsOwner(userID int64) bool {
	for _, id := range c.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) OwnerCount() int { return len(c.OwnerIDs) }

// AddMember дописывает участника; проверка "уже участник" — обязанность вызывающего.
func (c *Conversation) AddMember(userID int64) {
	c.MemberIDs = append(c.MemberIDs, userID)
}

// RemoveMember убирает пользователя из участников и, если есть, из владельцев.
// История сообщений не трогается.
func (c *Conversation) RemoveMember(userID int64) {
	c.MemberIDs = removeID(c.MemberIDs, userID)
	c.OwnerIDs = removeID(c.OwnerIDs, userID)
}

func (c *Conversation) AddOwner(userID int64) {
	c.OwnerIDs = append(c.OwnerIDs, userID)
}

func (c *Conversation) RemoveOwner(userID int64) {
	c.OwnerIDs = removeID(c.OwnerIDs, userID)
}

// Message возвращает указатель на сообщение в логе или nil.
func (c *Conversation) Message(messageID int64) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			return &c.Messages[i]
		}
	}
	return nil
}

// DeleteMessage физически убирает сообщение из лога. Возвращает false, если его нет.
func (c *Conversation) DeleteMessage(messageID int64) bool {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.MemberIDs = append([]int64(nil), c.MemberIDs...)
	cp.OwnerIDs = append([]int64(nil), c.OwnerIDs...)
	cp.Messages = make([]Message, len(c.Messages))
	for i := range c.Messages {
		cp.Messages[i] = *c.Messages[i].Clone()
	}
	if c.Standup != nil {
		st := *c.Standup
		st.Lines = append([]StandupLine(nil), c.Standup.Lines...)
		cp.Standup = &st
	}
	return &cp
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
