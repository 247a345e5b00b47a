package memory

import (
	"context"
	"sync"
	"time"

	"github.com/workchat/internal/session"
)

type item struct {
	userID int64
	exp    time.Time
}

type Client struct {
	mu     sync.RWMutex
	tokens map[string]int64
	byUser map[int64]map[string]bool
	resets map[string]item
}

func New() *Client {
	return &Client{
		tokens: make(map[string]int64),
		byUser: make(map[int64]map[string]bool),
		resets: make(map[string]item),
	}
}

func (c *Client) Close() error { return nil }

func (c *Client) SaveToken(ctx context.Context, token string, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[token] = userID
	if c.byUser[userID] == nil {
		c.byUser[userID] = make(map[string]bool)
	}
	c.byUser[userID][token] = true
	return nil
}

func (c *Client) UserByToken(ctx context.Context, token string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.tokens[token]
	if !ok {
		return 0, session.ErrNotFound
	}
	return id, nil
}

func (c *Client) DeleteToken(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.tokens[token]
	if !ok {
		return session.ErrNotFound
	}
	delete(c.tokens, token)
	delete(c.byUser[id], token)
	return nil
}

func (c *Client) DeleteUserTokens(ctx context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for t := range c.byUser[userID] {
		delete(c.tokens, t)
	}
	delete(c.byUser, userID)
	return nil
}

func (c *Client) SaveResetCode(ctx context.Context, code string, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets[code] = item{userID: userID, exp: time.Now().Add(session.ResetCodeTTL)}
	return nil
}

func (c *Client) UserByResetCode(ctx context.Context, code string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.resets[code]
	if !ok || time.Now().After(v.exp) {
		return 0, session.ErrNotFound
	}
	return v.userID, nil
}

func (c *Client) DeleteResetCode(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resets, code)
	return nil
}
