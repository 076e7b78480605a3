// Package cache keeps the question set of active sessions close at hand so
// answer and submit calls skip the session row decode.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/quizforge/internal/quiz"
)

// SessionCache stores the questions of a session by session id.
type SessionCache interface {
	Put(ctx context.Context, sessionID string, qs []quiz.QuestionRecord, ttl time.Duration) error
	// Get returns ok=false on a miss.
	Get(ctx context.Context, sessionID string) (qs []quiz.QuestionRecord, ok bool, err error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// DefaultPrefix namespaces every key.
const DefaultPrefix = "quizforge:"

// Config selects the Redis instance. An empty Addr disables caching.
type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// New returns a Redis-backed cache, or a no-op cache when cfg.Addr is
// empty. The connection is checked with PING.
func New(ctx context.Context, cfg Config) (SessionCache, error) {
	if cfg.Addr == "" {
		return Noop{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return NewRedis(client, cfg.Prefix), nil
}

// Redis is a SessionCache over a go-redis client.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. Keys are prefixed with prefix, which
// defaults to DefaultPrefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(sessionID string) string {
	return r.prefix + "session:" + sessionID + ":questions"
}

func (r *Redis) Put(ctx context.Context, sessionID string, qs []quiz.QuestionRecord, ttl time.Duration) error {
	val, err := json.Marshal(qs)
	if err != nil {
		return fmt.Errorf("encode session questions: %w", err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), val, ttl).Err(); err != nil {
		return fmt.Errorf("cache session %s: %w", sessionID, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, sessionID string) ([]quiz.QuestionRecord, bool, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	var qs []quiz.QuestionRecord
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return qs, true, nil
}

func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }

// Noop is a SessionCache that never holds anything.
type Noop struct{}

func (Noop) Put(context.Context, string, []quiz.QuestionRecord, time.Duration) error { return nil }

func (Noop) Get(context.Context, string) ([]quiz.QuestionRecord, bool, error) {
	return nil, false, nil
}

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }
