package model

// ReactThumbsUp — единственный поддерживаемый вид реакции.
const ReactThumbsUp = 1

type Message struct {
	ID       int64  `json:"id"`
	AuthorID int64  `json:"author_id"`
	Text     string `json:"text"`
	// SentAt — UNIX-секунды. Для отложенных сообщений это момент появления в логе.
	SentAt    int64      `json:"sent_at"`
	Pinned    bool       `json:"pinned"`
	Reactions []Reaction `json:"reactions,omitempty"`
}

// Reaction — одна группа реакций: вид + множество отреагировавших.
type Reaction struct {
	Kind    int     `json:"kind"`
	UserIDs []int64 `json:"user_ids"`
}

// Reaction возвращает группу реакции данного вида или nil.
func (m *Message) Reaction(kind int) *Reaction {
	for i := range m.Reactions {
		if m.Reactions[i].Kind == kind {
			return &m.Reactions[i]
		}
	}
	return nil
}

// HasReacted сообщает, реагировал ли пользователь реакцией данного вида.
func (m *Message) HasReacted(kind int, userID int64) bool {
	r := m.Reaction(kind)
	if r == nil {
		return false
	}
	for _, id := range r.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (m *Message) Clone() *Message {
	c := *m
	c.Reactions = make([]Reaction, len(m.Reactions))
	for i := range m.Reactions {
		c.Reactions[i] = Reaction{
			Kind:    m.Reactions[i].Kind,
			UserIDs: append([]int64(nil), m.Reactions[i].UserIDs...),
		}
	}
	return &c
}
