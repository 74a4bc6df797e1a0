package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/sentinel"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "altguard:token:"
	scanBatch      = 200
)

// createScript writes the hash only when the key is absent and bounds its lifetime.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'subject_id', ARGV[1], 'group_id', ARGV[2], 'created_at', ARGV[3], 'consumed', '0')
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// consumeScript runs the not-found, expired, already-used checks and the flag flip as
// one atomic step. Times are Unix milliseconds.
var consumeScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'subject_id', 'group_id', 'created_at', 'consumed')
if not v[3] then
	return {'not_found'}
end
if tonumber(ARGV[1]) - tonumber(v[3]) >= tonumber(ARGV[2]) then
	return {'expired'}
end
if v[4] == '1' then
	return {'already_used'}
end
redis.call('HSET', KEYS[1], 'consumed', '1', 'consumed_at', ARGV[1])
return {'ok', v[1], v[2], v[3]}
`)

// RedisStore keeps verification tokens as Redis hashes so several service instances
// share one ledger.
type RedisStore struct {
	client    redis.UniversalClient
	retention time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRetention sets how long a token outlives its TTL before Redis evicts it.
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// NewRedis constructs a Redis-backed token store. ttl bounds key lifetime together
// with the retention window.
func NewRedis(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		retention: time.Hour,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.retention += ttl
	return s
}

func tokenKey(value string) string {
	return tokenKeyPrefix + value
}

func (s *RedisStore) Create(ctx context.Context, token *models.Token) error {
	created, err := createScript.Run(ctx, s.client, []string{tokenKey(token.Value)},
		token.SubjectID,
		token.GroupID,
		token.CreatedAt.UnixMilli(),
		s.retention.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("verification token exists: %w", sentinel.ErrConflict)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, value string) (*models.Token, error) {
	fields, err := s.client.HGetAll(ctx, tokenKey(value)).Result()
	if err != nil {
		return nil, fmt.Errorf("find verification token: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("verification token not found: %w", sentinel.ErrNotFound)
	}
	return decodeToken(value, fields)
}

func (s *RedisStore) Consume(ctx context.Context, value string, now time.Time, ttl time.Duration) (*models.Token, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{tokenKey(value)},
		now.UnixMilli(),
		ttl.Milliseconds(),
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("consume verification token: %w", err)
	}
	if len(res) == 0 {
		return nil, errors.New("consume verification token: empty script reply")
	}
	switch res[0] {
	case "not_found":
		return nil, fmt.Errorf("verification token not found: %w", sentinel.ErrNotFound)
	case "expired":
		return nil, fmt.Errorf("verification token expired: %w", sentinel.ErrExpired)
	case "already_used":
		return nil, fmt.Errorf("verification token already used: %w", sentinel.ErrAlreadyUsed)
	case "ok":
		if len(res) != 4 {
			return nil, fmt.Errorf("consume verification token: unexpected reply length %d", len(res))
		}
	default:
		return nil, fmt.Errorf("consume verification token: unexpected reply %q", res[0])
	}

	createdMs, err := strconv.ParseInt(res[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	consumedAt := time.UnixMilli(now.UnixMilli()).UTC()
	return &models.Token{
		Value:      value,
		SubjectID:  res[1],
		GroupID:    res[2],
		CreatedAt:  time.UnixMilli(createdMs).UTC(),
		Consumed:   true,
		ConsumedAt: &consumedAt,
	}, nil
}

// DeleteCreatedBefore scans the token keyspace and removes tokens created at or before
// cutoff. Keys also expire on their own; this keeps the keyspace bounded between
// evictions.
func (s *RedisStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	cutoffMs := cutoff.UnixMilli()
	deleted := 0
	iter := s.client.Scan(ctx, 0, tokenKeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.HGet(ctx, key, "created_at").Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("read token created_at: %w", err)
		}
		createdMs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || createdMs > cutoffMs {
			continue
		}
		n, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return deleted, fmt.Errorf("delete verification token: %w", err)
		}
		deleted += int(n)
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scan verification tokens: %w", err)
	}
	return deleted, nil
}

func decodeToken(value string, fields map[string]string) (*models.Token, error) {
	createdMs, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	token := &models.Token{
		Value:     value,
		SubjectID: fields["subject_id"],
		GroupID:   fields["group_id"],
		CreatedAt: time.UnixMilli(createdMs).UTC(),
		Consumed:  fields["consumed"] == "1",
	}
	if raw, ok := fields["consumed_at"]; ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			at := time.UnixMilli(ms).UTC()
			token.ConsumedAt = &at
		}
	}
	return token, nil
}
