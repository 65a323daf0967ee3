package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smart_cycle_market/internal/member/domain"
	"smart_cycle_market/pkg/database"

	"github.com/go-redis/redis/v8"
)

// SessionRepository refresh sessions in redis, key session:<member>:<session id>
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	Find(ctx context.Context, memberID, sessionID string) (*domain.Session, error)
	Rotate(ctx context.Context, memberID, oldSessionID, oldTokenHash string, next domain.Session) error
	Delete(ctx context.Context, memberID, sessionID string) error
	DeleteAll(ctx context.Context, memberID string) error
}

// rotateScript swaps KEYS[1] for KEYS[2] only when KEYS[1] still holds the presented token hash
var rotateScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return 0
end
local session = cjson.decode(current)
if session['token_hash'] ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

type sessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionRepository create a SessionRepository
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client, now: time.Now}
}

func sessionKey(memberID, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", memberID, sessionID)
}

func (r *sessionRepository) ttl(session domain.Session) time.Duration {
	return session.ExpiredAt.Sub(r.now())
}

func (r *sessionRepository) Create(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(session.MemberID, session.ID), data, r.ttl(session)).Err()
}

func (r *sessionRepository) Find(ctx context.Context, memberID, sessionID string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(memberID, sessionID)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Rotate replaces the old session with next atomically, ErrSessionNotFound when the old one is gone or holds another token
func (r *sessionRepository) Rotate(ctx context.Context, memberID, oldSessionID, oldTokenHash string, next domain.Session) error {
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	swapped, err := rotateScript.Run(ctx, r.client,
		[]string{sessionKey(memberID, oldSessionID), sessionKey(next.MemberID, next.ID)},
		oldTokenHash, data, r.ttl(next).Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if swapped == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, memberID, sessionID string) error {
	n, err := r.client.Del(ctx, sessionKey(memberID, sessionID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeleteAll signs the member out everywhere
func (r *sessionRepository) DeleteAll(ctx context.Context, memberID string) error {
	iter := r.client.Scan(ctx, 0, sessionKey(memberID, "*"), 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan sessions: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// OneTimeTokenRepository verification and reset tokens, key <purpose>:<member>
type OneTimeTokenRepository interface {
	Save(ctx context.Context, purpose domain.TokenPurpose, memberID string, token domain.OneTimeToken, ttl time.Duration) error
	Find(ctx context.Context, purpose domain.TokenPurpose, memberID string) (*domain.OneTimeToken, error)
	Delete(ctx context.Context, purpose domain.TokenPurpose, memberID string) error
}

type oneTimeTokenRepository struct {
	store database.RedisRepository[domain.OneTimeToken]
}

// NewOneTimeTokenRepository create a OneTimeTokenRepository on a typed redis repository
func NewOneTimeTokenRepository(store database.RedisRepository[domain.OneTimeToken]) OneTimeTokenRepository {
	return &oneTimeTokenRepository{store: store}
}

func tokenKey(purpose domain.TokenPurpose, memberID string) string {
	return string(purpose) + ":" + memberID
}

// Save overwrites any earlier token of the same purpose
func (r *oneTimeTokenRepository) Save(ctx context.Context, purpose domain.TokenPurpose, memberID string, token domain.OneTimeToken, ttl time.Duration) error {
	return r.store.Set(ctx, tokenKey(purpose, memberID), token, ttl)
}

func (r *oneTimeTokenRepository) Find(ctx context.Context, purpose domain.TokenPurpose, memberID string) (*domain.OneTimeToken, error) {
	token, err := r.store.Get(ctx, tokenKey(purpose, memberID))
	if err == database.ErrRedisNil {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *oneTimeTokenRepository) Delete(ctx context.Context, purpose domain.TokenPurpose, memberID string) error {
	return r.store.Del(ctx, tokenKey(purpose, memberID))
}
