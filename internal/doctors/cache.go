package doctors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	availableKey    = "doctors:available"
	doctorKeyPrefix = "doctors:safe:"
)

// CachedDirectory keeps the public directory in Redis for a short TTL.
// A nil client turns it into a pass-through.
type CachedDirectory struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
}

// NewCachedDirectory wraps next with a Redis read-through cache.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl}
}

func (c *CachedDirectory) ListAvailable(ctx context.Context) ([]SafeDoctor, error) {
	var cached []SafeDoctor
	if c.load(ctx, availableKey, &cached) {
		return cached, nil
	}
	list, err := c.next.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, availableKey, list)
	return list, nil
}

func (c *CachedDirectory) GetSafe(ctx context.Context, id string) (*SafeDoctor, error) {
	var cached SafeDoctor
	if c.load(ctx, doctorKeyPrefix+id, &cached) {
		return &cached, nil
	}
	d, err := c.next.GetSafe(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, doctorKeyPrefix+id, d)
	return d, nil
}

// Invalidate drops the cached listing and any per-doctor entries given.
func (c *CachedDirectory) Invalidate(ctx context.Context, ids ...string) error {
	if c.client == nil {
		return nil
	}
	keys := []string{availableKey}
	for _, id := range ids {
		keys = append(keys, doctorKeyPrefix+id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("doctors: invalidate cache: %w", err)
	}
	return nil
}

// load treats any Redis failure as a miss.
func (c *CachedDirectory) load(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *CachedDirectory) store(ctx context.Context, key string, v any) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}

// StaticDirectory serves a fixed list. Used for local runs without a database and in tests.
type StaticDirectory struct {
	doctors []SafeDoctor
}

// NewStaticDirectory builds a directory over the given doctors.
func NewStaticDirectory(list []SafeDoctor) *StaticDirectory {
	return &StaticDirectory{doctors: list}
}

func (s *StaticDirectory) ListAvailable(ctx context.Context) ([]SafeDoctor, error) {
	var out []SafeDoctor
	for _, d := range s.doctors {
		if d.IsAvailable {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *StaticDirectory) GetSafe(ctx context.Context, id string) (*SafeDoctor, error) {
	for _, d := range s.doctors {
		if d.ID == id {
			cp := d
			return &cp, nil
		}
	}
	return nil, ErrDoctorNotFound
}
