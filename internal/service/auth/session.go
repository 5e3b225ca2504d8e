package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps live sessions and the login failure counters.
type SessionStore interface {
	Create(ctx context.Context, sessionID, userID uuid.UUID, ttl time.Duration) error
	// Get returns the session's user or ErrSessionNotFound.
	Get(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error)
	Extend(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) error
	Delete(ctx context.Context, sessionID uuid.UUID) (bool, error)

	// RecordFailure bumps the failure counter of a login name and returns
	// the new count. The counter expires window after the first failure.
	RecordFailure(ctx context.Context, login string, window time.Duration) (int, error)
	Failures(ctx context.Context, login string) (int, error)
	ResetFailures(ctx context.Context, login string) error
}

func redisKeySession(sessionID uuid.UUID) string { return "session:" + sessionID.String() }

func redisKeyFailures(login string) string { return "login:failures:" + strings.ToLower(login) }

// ---------------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------------

type redisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) SessionStore {
	return &redisSessions{rdb: rdb}
}

func (s *redisSessions) Create(ctx context.Context, sessionID, userID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, redisKeySession(sessionID), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *redisSessions) Get(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	v, err := s.rdb.Get(ctx, redisKeySession(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("redis get session: %w", err)
	}
	uid, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, ErrSessionNotFound
	}
	return uid, nil
}

func (s *redisSessions) Extend(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) error {
	return s.rdb.Expire(ctx, redisKeySession(sessionID), ttl).Err()
}

func (s *redisSessions) Delete(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	n, err := s.rdb.Del(ctx, redisKeySession(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}

func (s *redisSessions) RecordFailure(ctx context.Context, login string, window time.Duration) (int, error) {
	key := redisKeyFailures(login)
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record login failure: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *redisSessions) Failures(ctx context.Context, login string) (int, error) {
	n, err := s.rdb.Get(ctx, redisKeyFailures(login)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *redisSessions) ResetFailures(ctx context.Context, login string) error {
	return s.rdb.Del(ctx, redisKeyFailures(login)).Err()
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

type memoryEntry struct {
	value     string
	count     int
	expiresAt time.Time
}

func (e memoryEntry) live(now time.Time) bool { return now.Before(e.expiresAt) }

// memorySessions serves single-process runs without Redis.
type memorySessions struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemorySessions() SessionStore {
	return &memorySessions{data: map[string]memoryEntry{}, now: time.Now}
}

func (s *memorySessions) get(key string) (memoryEntry, bool) {
	e, ok := s.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.live(s.now()) {
		delete(s.data, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *memorySessions) Create(_ context.Context, sessionID, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[redisKeySession(sessionID)] = memoryEntry{value: userID.String(), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memorySessions) Get(_ context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.get(redisKeySession(sessionID))
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}
	return uuid.MustParse(e.value), nil
}

func (s *memorySessions) Extend(_ context.Context, sessionID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := redisKeySession(sessionID)
	if e, ok := s.get(key); ok {
		e.expiresAt = s.now().Add(ttl)
		s.data[key] = e
	}
	return nil
}

func (s *memorySessions) Delete(_ context.Context, sessionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := redisKeySession(sessionID)
	_, ok := s.get(key)
	delete(s.data, key)
	return ok, nil
}

func (s *memorySessions) RecordFailure(_ context.Context, login string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := redisKeyFailures(login)
	e, ok := s.get(key)
	if !ok {
		e = memoryEntry{expiresAt: s.now().Add(window)}
	}
	e.count++
	s.data[key] = e
	return e.count, nil
}

func (s *memorySessions) Failures(_ context.Context, login string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.get(redisKeyFailures(login))
	return e.count, nil
}

func (s *memorySessions) ResetFailures(_ context.Context, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, redisKeyFailures(login))
	return nil
}
