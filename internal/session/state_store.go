package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/officeflow/attendance-bot/internal/domain"
)

// StateStore keeps the dialog state of each user. Load returns the idle
// state for unknown or expired users.
type StateStore interface {
	Load(ctx context.Context, userID int64) (domain.SessionState, error)
	Save(ctx context.Context, userID int64, state domain.SessionState) error
	Clear(ctx context.Context, userID int64) error
}

// MemoryStateStore keeps states in process memory. A zero ttl disables expiry.
type MemoryStateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[int64]memoryEntry
	// lastSweep limits full scans for abandoned dialogs to one per ttl.
	lastSweep time.Time
}

type memoryEntry struct {
	state     domain.SessionState
	expiresAt time.Time
}

// NewMemoryStateStore builds an in-process store.
func NewMemoryStateStore(ttl time.Duration, now func() time.Time) *MemoryStateStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStateStore{ttl: ttl, now: now, states: make(map[int64]memoryEntry)}
}

func (s *MemoryStateStore) Load(_ context.Context, userID int64) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[userID]
	if !ok {
		return domain.IdleSession(), nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.states, userID)
		return domain.IdleSession(), nil
	}
	return entry.state, nil
}

func (s *MemoryStateStore) Save(_ context.Context, userID int64, state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{state: state}
	if s.ttl > 0 {
		now := s.now()
		entry.expiresAt = now.Add(s.ttl)
		if now.Sub(s.lastSweep) >= s.ttl {
			s.sweepLocked(now)
		}
	}
	s.states[userID] = entry
	return nil
}

func (s *MemoryStateStore) sweepLocked(now time.Time) {
	for id, entry := range s.states {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(s.states, id)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStateStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}

// Len reports the number of tracked users, expired entries included.
func (s *MemoryStateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

const redisKeyPrefix = "attendance:session:"

// RedisStateStore keeps states as JSON under attendance:session:<user_id>.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore builds a redis-backed store. A zero ttl keeps keys forever.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: ttl}
}

func redisKey(userID int64) string {
	return redisKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisStateStore) Load(ctx context.Context, userID int64) (domain.SessionState, error) {
	raw, err := s.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.IdleSession(), nil
	}
	if err != nil {
		return domain.IdleSession(), fmt.Errorf("load session %d: %w", userID, err)
	}
	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.IdleSession(), fmt.Errorf("decode session %d: %w", userID, err)
	}
	return state, nil
}

func (s *RedisStateStore) Save(ctx context.Context, userID int64, state domain.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", userID, err)
	}
	if err := s.client.Set(ctx, redisKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", userID, err)
	}
	return nil
}

func (s *RedisStateStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear session %d: %w", userID, err)
	}
	return nil
}
