// Package postgres — production-реализация store.Store поверх PostgreSQL.
// Записи хранятся целиком как JSONB (key-indexed record store); атомарность
// обновлений обеспечивается транзакцией с SELECT ... FOR UPDATE — эксклюзивная
// блокировка строки и есть критическая секция по одной записи.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workchat/internal/logger"
	"github.com/workchat/internal/model"
	"github.com/workchat/internal/store"
)

const (
	kindUser         = "user"
	kindConversation = "conversation"
	kindWorkspace    = "workspace"

	// workspaceID — фиксированный id singleton-записи воркспейса.
	workspaceID = 0
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) NextID(ctx context.Context) (int64, error) {
	defer logger.DeferLogDuration("store.NextID", time.Now())()
	var id int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval('record_ids')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("store.NextID: %w", err)
	}
	return id, nil
}

func (s *Store) insert(ctx context.Context, id int64, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store.insert marshal: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (id, kind, data) VALUES ($1, $2, $3)`, id, kind, data)
	if err != nil {
		return fmt.Errorf("store.insert %s: %w", kind, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, id int64, kind string, v any) error {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM records WHERE id = $1 AND kind = $2`, id, kind).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store.get %s: %w", kind, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store.get unmarshal %s: %w", kind, err)
	}
	return nil
}

// update выполняет цикл "прочитал-решил-записал" под блокировкой строки.
func (s *Store) update(ctx context.Context, id int64, kind string, v any, fn func() error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store.update begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var data []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM records WHERE id = $1 AND kind = $2 FOR UPDATE`, id, kind).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store.update select %s: %w", kind, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store.update unmarshal %s: %w", kind, err)
	}
	if err := fn(); err != nil {
		return err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store.update marshal %s: %w", kind, err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE records SET data = $1 WHERE id = $2 AND kind = $3`, out, id, kind); err != nil {
		return fmt.Errorf("store.update write %s: %w", kind, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store.update commit %s: %w", kind, err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	defer logger.DeferLogDuration("store.CreateUser", time.Now())()
	return s.insert(ctx, u.ID, kindUser, u)
}

func (s *Store) User(ctx context.Context, id int64) (*model.User, error) {
	defer logger.DeferLogDuration("store.User", time.Now())()
	u := &model.User{}
	if err := s.get(ctx, id, kindUser, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) findUser(ctx context.Context, query, value string) (*model.User, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, query, value).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.findUser: %w", err)
	}
	u := &model.User{}
	if err := json.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf("store.findUser unmarshal: %w", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer logger.DeferLogDuration("store.UserByEmail", time.Now())()
	return s.findUser(ctx,
		`SELECT data FROM records WHERE kind = 'user' AND data->>'email' = $1`, email)
}

func (s *Store) UserByHandle(ctx context.Context, handle string) (*model.User, error) {
	defer logger.DeferLogDuration("store.UserByHandle", time.Now())()
	return s.findUser(ctx,
		`SELECT data FROM records WHERE kind = 'user' AND data->>'handle' = $1`, handle)
}

func (s *Store) Users(ctx context.Context) ([]model.User, error) {
	defer logger.DeferLogDuration("store.Users", time.Now())()
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM records WHERE kind = 'user' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store.Users query: %w", err)
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store.Users scan: %w", err)
		}
		var u model.User
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("store.Users unmarshal: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.Users rows: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, fn func(*model.User) error) error {
	defer logger.DeferLogDuration("store.UpdateUser", time.Now())()
	u := &model.User{}
	return s.update(ctx, id, kindUser, u, func() error { return fn(u) })
}

func (s *Store) CreateConversation(ctx context.Context, c *model.Conversation) error {
	defer logger.DeferLogDuration("store.CreateConversation", time.Now())()
	return s.insert(ctx, c.ID, kindConversation, c)
}

func (s *Store) Conversation(ctx context.Context, id int64) (*model.Conversation, error) {
	defer logger.DeferLogDuration("store.Conversation", time.Now())()
	c := &model.Conversation{}
	if err := s.get(ctx, id, kindConversation, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) Conversations(ctx context.Context) ([]model.Conversation, error) {
	defer logger.DeferLogDuration("store.Conversations", time.Now())()
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM records WHERE kind = 'conversation' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store.Conversations query: %w", err)
	}
	defer rows.Close()
	var convs []model.Conversation
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store.Conversations scan: %w", err)
		}
		var c model.Conversation
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("store.Conversations unmarshal: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.Conversations rows: %w", err)
	}
	return convs, nil
}

func (s *Store) UpdateConversation(ctx context.Context, id int64, fn func(*model.Conversation) error) error {
	defer logger.DeferLogDuration("store.UpdateConversation", time.Now())()
	c := &model.Conversation{}
	return s.update(ctx, id, kindConversation, c, func() error { return fn(c) })
}

func (s *Store) DeleteConversation(ctx context.Context, id int64) error {
	defer logger.DeferLogDuration("store.DeleteConversation", time.Now())()
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE id = $1 AND kind = 'conversation'`, id)
	if err != nil {
		return fmt.Errorf("store.DeleteConversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ConversationByMessage(ctx context.Context, messageID int64) (*model.Conversation, error) {
	defer logger.DeferLogDuration("store.ConversationByMessage", time.Now())()
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM records
		 WHERE kind = 'conversation'
		   AND data->'messages' @> jsonb_build_array(jsonb_build_object('id', $1::bigint))`,
		messageID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.ConversationByMessage: %w", err)
	}
	c := &model.Conversation{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("store.ConversationByMessage unmarshal: %w", err)
	}
	return c, nil
}

func (s *Store) Workspace(ctx context.Context) (*model.Workspace, error) {
	defer logger.DeferLogDuration("store.Workspace", time.Now())()
	w := &model.Workspace{}
	err := s.get(ctx, workspaceID, kindWorkspace, w)
	if errors.Is(err, store.ErrNotFound) {
		return &model.Workspace{}, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) UpdateWorkspace(ctx context.Context, fn func(*model.Workspace) error) error {
	defer logger.DeferLogDuration("store.UpdateWorkspace", time.Now())()
	// Singleton создаётся лениво при первом обновлении.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (id, kind, data) VALUES ($1, 'workspace', '{}') ON CONFLICT DO NOTHING`,
		workspaceID)
	if err != nil {
		return fmt.Errorf("store.UpdateWorkspace seed: %w", err)
	}
	w := &model.Workspace{}
	return s.update(ctx, workspaceID, kindWorkspace, w, func() error { return fn(w) })
}
