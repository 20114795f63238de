package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"casting-admin/internal/models"

	"github.com/redis/go-redis/v9"
)

// Backend persists the single active session under the canonical keys.
type Backend interface {
	// Load returns nil without error when no session is stored.
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

// MemoryBackend keeps the session for the lifetime of the process.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
	stored time.Time
	expiry time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Load(ctx context.Context) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token := m.values[models.SessionKeyToken]
	if token == "" {
		return nil, nil
	}
	return &models.Session{
		Token:     token,
		AdminID:   m.values[models.SessionKeyAdminID],
		CreatedAt: m.stored,
		ExpiresAt: m.expiry,
	}, nil
}

func (m *MemoryBackend) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[models.SessionKeyToken] = s.Token
	m.values[models.SessionKeyAdminID] = s.AdminID
	m.stored = s.CreatedAt
	m.expiry = s.ExpiresAt
	return nil
}

func (m *MemoryBackend) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]string)
	m.stored = time.Time{}
	m.expiry = time.Time{}
	return nil
}

const fieldCreatedAt = "createdAt"

// RedisBackend stores the session in one hash so several console processes
// share a login.
type RedisBackend struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisBackend(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisBackend {
	return &RedisBackend{
		client: client,
		key:    keyPrefix,
		ttl:    ttl,
	}
}

func (r *RedisBackend) Load(ctx context.Context) (*models.Session, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	token := values[models.SessionKeyToken]
	if token == "" {
		return nil, nil
	}

	s := &models.Session{
		Token:   token,
		AdminID: values[models.SessionKeyAdminID],
	}
	if created, err := time.Parse(time.RFC3339, values[fieldCreatedAt]); err == nil {
		s.CreatedAt = created
		if r.ttl > 0 {
			s.ExpiresAt = created.Add(r.ttl)
		}
	}
	return s, nil
}

func (r *RedisBackend) Save(ctx context.Context, s *models.Session) error {
	err := r.client.HSet(ctx, r.key,
		models.SessionKeyToken, s.Token,
		models.SessionKeyAdminID, s.AdminID,
		fieldCreatedAt, s.CreatedAt.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if r.ttl > 0 {
		if err := r.client.Expire(ctx, r.key, r.ttl).Err(); err != nil {
			return fmt.Errorf("failed to set session expiry: %w", err)
		}
	}
	return nil
}

func (r *RedisBackend) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
