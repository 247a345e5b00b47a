package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/workchat/internal/session"
)

type Client struct {
	cli *redis.Client
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func tokenKey(token string) string { return "token:" + token }

// userTokensKey — множество активных токенов пользователя, нужно для отзыва всех разом.
func userTokensKey(userID int64) string {
	return "user_tokens:" + strconv.FormatInt(userID, 10)
}

func (c *Client) SaveToken(ctx context.Context, token string, userID int64) error {
	if err := c.cli.Set(ctx, tokenKey(token), userID, session.TokenTTL).Err(); err != nil {
		return fmt.Errorf("redis SaveToken: %w", err)
	}
	if err := c.cli.SAdd(ctx, userTokensKey(userID), token).Err(); err != nil {
		return fmt.Errorf("redis SaveToken sadd: %w", err)
	}
	// TTL множества продлевается при каждом новом токене.
	c.cli.Expire(ctx, userTokensKey(userID), session.TokenTTL)
	return nil
}

func (c *Client) UserByToken(ctx context.Context, token string) (int64, error) {
	val, err := c.cli.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return 0, session.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis UserByToken: %w", err)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis UserByToken parse: %w", err)
	}
	return id, nil
}

func (c *Client) DeleteToken(ctx context.Context, token string) error {
	val, err := c.cli.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return session.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis DeleteToken: %w", err)
	}
	if id, perr := strconv.ParseInt(val, 10, 64); perr == nil {
		c.cli.SRem(ctx, userTokensKey(id), token)
	}
	if err := c.cli.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis DeleteToken del: %w", err)
	}
	return nil
}

func (c *Client) DeleteUserTokens(ctx context.Context, userID int64) error {
	tokens, err := c.cli.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis DeleteUserTokens smembers: %w", err)
	}
	for _, t := range tokens {
		if err := c.cli.Del(ctx, tokenKey(t)).Err(); err != nil {
			return fmt.Errorf("redis DeleteUserTokens del: %w", err)
		}
	}
	if err := c.cli.Del(ctx, userTokensKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis DeleteUserTokens: %w", err)
	}
	return nil
}

func resetKey(code string) string { return "reset:" + code }

// SaveResetCode хранит код как есть: сравнение при сбросе идёт по точному значению ключа.
func (c *Client) SaveResetCode(ctx context.Context, code string, userID int64) error {
	return c.cli.Set(ctx, resetKey(code), userID, session.ResetCodeTTL).Err()
}

func (c *Client) UserByResetCode(ctx context.Context, code string) (int64, error) {
	val, err := c.cli.Get(ctx, resetKey(code)).Result()
	if err == redis.Nil {
		return 0, session.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis UserByResetCode: %w", err)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis UserByResetCode parse: %w", err)
	}
	return id, nil
}

func (c *Client) DeleteResetCode(ctx context.Context, code string) error {
	return c.cli.Del(ctx, resetKey(code)).Err()
}
