package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Sessions live as JSON under "session:<token>" with TTL = expiresAt - now.
// A per-user set under "usersessions:<userId>" indexes tokens so DeleteByUser
// can revoke every session in one pass.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(token string) string {
	return r.prefix + token
}

func (r *RedisRepository) userKey(userID string) string {
	return "user" + r.prefix + userID
}

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	exp := time.Until(s.ExpiresAt)
	if exp <= 0 {
		// ensure a minimal TTL so Redis won't store expired sessions
		exp = time.Second
	}
	if err := r.client.Set(ctx, r.key(s.Token), b, exp).Err(); err != nil {
		return err
	}
	// index entry outlives the session slightly; stale members are pruned
	// on DeleteByUser
	if err := r.client.SAdd(ctx, r.userKey(s.UserID), s.Token).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, r.userKey(s.UserID), exp).Err()
}

func (r *RedisRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	// If the stored value says expired, treat as missing
	if time.Now().UTC().After(s.ExpiresAt) {
		_ = r.DeleteByToken(ctx, token)
		return nil, nil
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByToken(ctx context.Context, token string) error {
	s, err := r.GetByTokenRaw(ctx, token)
	if err == nil && s != nil {
		_ = r.client.SRem(ctx, r.userKey(s.UserID), token).Err()
	}
	return r.client.Del(ctx, r.key(token)).Err()
}

// GetByTokenRaw fetches the stored session without the expiry cleanup,
// for internal index maintenance.
func (r *RedisRepository) GetByTokenRaw(ctx context.Context, token string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByUser(ctx context.Context, userID string) error {
	tokens, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, tok := range tokens {
		if err := r.client.Del(ctx, r.key(tok)).Err(); err != nil {
			return err
		}
	}
	return r.client.Del(ctx, r.userKey(userID)).Err()
}
