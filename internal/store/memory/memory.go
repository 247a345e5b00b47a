// Package memory — хранилище в памяти для тестов и режима -dev.
// Каждая запись держит собственный мьютекс: операции над разными
// пользователями/беседами не конкурируют между собой.
package memory

import (
	"context"
	"sync"

	"github.com/workchat/internal/model"
	"github.com/workchat/internal/store"
)

type userRecord struct {
	mu sync.Mutex
	u  *model.User
}

type convRecord struct {
	mu sync.Mutex
	c  *model.Conversation
}

type Store struct {
	mu     sync.RWMutex // защищает maps и индексы, не содержимое записей
	users  map[int64]*userRecord
	convs  map[int64]*convRecord
	msgIdx map[int64]int64 // message id -> conversation id

	wsMu sync.Mutex
	ws   *model.Workspace

	seqMu sync.Mutex
	seq   int64
}

func New() *Store {
	return &Store{
		users:  make(map[int64]*userRecord),
		convs:  make(map[int64]*convRecord),
		msgIdx: make(map[int64]int64),
		ws:     &model.Workspace{},
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) NextID(ctx context.Context) (int64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq++
	return s.seq, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &userRecord{u: u.Clone()}
	return nil
}

func (s *Store) User(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	rec, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.u.Clone(), nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.Email == email })
}

func (s *Store) UserByHandle(ctx context.Context, handle string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.Handle == handle })
}

func (s *Store) findUser(match func(*model.User) bool) (*model.User, error) {
	s.mu.RLock()
	recs := make([]*userRecord, 0, len(s.users))
	for _, rec := range s.users {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()
	for _, rec := range recs {
		rec.mu.Lock()
		if match(rec.u) {
			u := rec.u.Clone()
			rec.mu.Unlock()
			return u, nil
		}
		rec.mu.Unlock()
	}
	return nil, store.ErrNotFound
}

func (s *Store) Users(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	recs := make([]*userRecord, 0, len(s.users))
	for _, rec := range s.users {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()
	users := make([]model.User, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		users = append(users, *rec.u.Clone())
		rec.mu.Unlock()
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, fn func(*model.User) error) error {
	s.mu.RLock()
	rec, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return store.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	draft := rec.u.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	rec.u = draft
	return nil
}

func (s *Store) CreateConversation(ctx context.Context, c *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[c.ID] = &convRecord{c: c.Clone()}
	for i := range c.Messages {
		s.msgIdx[c.Messages[i].ID] = c.ID
	}
	return nil
}

func (s *Store) Conversation(ctx context.Context, id int64) (*model.Conversation, error) {
	s.mu.RLock()
	rec, ok := s.convs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.c == nil {
		return nil, store.ErrNotFound
	}
	return rec.c.Clone(), nil
}

func (s *Store) Conversations(ctx context.Context) ([]model.Conversation, error) {
	s.mu.RLock()
	recs := make([]*convRecord, 0, len(s.convs))
	for _, rec := range s.convs {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()
	convs := make([]model.Conversation, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		if rec.c != nil {
			convs = append(convs, *rec.c.Clone())
		}
		rec.mu.Unlock()
	}
	return convs, nil
}

func (s *Store) UpdateConversation(ctx context.Context, id int64, fn func(*model.Conversation) error) error {
	s.mu.RLock()
	rec, ok := s.convs[id]
	s.mu.RUnlock()
	if !ok {
		return store.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.c == nil {
		// Запись удалили, пока мы ждали блокировку.
		return store.ErrNotFound
	}
	before := make([]int64, 0, len(rec.c.Messages))
	for i := range rec.c.Messages {
		before = append(before, rec.c.Messages[i].ID)
	}
	draft := rec.c.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	rec.c = draft
	s.reindex(id, before, draft)
	return nil
}

// reindex обновляет индекс message id -> conversation id после изменения лога.
func (s *Store) reindex(convID int64, before []int64, c *model.Conversation) {
	after := make(map[int64]bool, len(c.Messages))
	for i := range c.Messages {
		after[c.Messages[i].ID] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range before {
		if !after[id] {
			delete(s.msgIdx, id)
		}
	}
	for id := range after {
		s.msgIdx[id] = convID
	}
}

func (s *Store) DeleteConversation(ctx context.Context, id int64) error {
	s.mu.RLock()
	rec, ok := s.convs[id]
	s.mu.RUnlock()
	if !ok {
		return store.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.c == nil {
		return store.ErrNotFound
	}
	s.mu.Lock()
	for i := range rec.c.Messages {
		delete(s.msgIdx, rec.c.Messages[i].ID)
	}
	delete(s.convs, id)
	s.mu.Unlock()
	rec.c = nil
	return nil
}

func (s *Store) ConversationByMessage(ctx context.Context, messageID int64) (*model.Conversation, error) {
	s.mu.RLock()
	convID, ok := s.msgIdx[messageID]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.Conversation(ctx, convID)
}

func (s *Store) Workspace(ctx context.Context) (*model.Workspace, error) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return s.ws.Clone(), nil
}

func (s *Store) UpdateWorkspace(ctx context.Context, fn func(*model.Workspace) error) error {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	draft := s.ws.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	s.ws = draft
	return nil
}
