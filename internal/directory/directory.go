// Package directory resolves user ids to identity records for display next
// to organizations and tickets. Lookups are read-through cached in Redis.
package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kidsact/admin-console/internal/domain"
)

// Source is the system of record for users.
type Source interface {
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

// Directory looks users up by id.
type Directory interface {
	Lookup(ctx context.Context, ids []string) (map[string]domain.User, error)
	Invalidate(ctx context.Context, id string)
}

// Cached is a read-through Redis cache in front of a Source. A nil client or
// zero TTL turns it into a plain pass-through.
type Cached struct {
	source Source
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached builds the directory. It is created once by the composition root
// and shared by every consumer.
func NewCached(source Source, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Cached {
	return &Cached{source: source, cache: cache, ttl: ttl, logger: logger}
}

type cachedUser struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

func cacheKey(id string) string {
	return "directory:user:" + id
}

// Lookup returns the users found for ids; unknown ids are absent from the map.
func (d *Cached) Lookup(ctx context.Context, ids []string) (map[string]domain.User, error) {
	ids = dedupe(ids)
	found := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	missing := ids
	if d.cacheEnabled() {
		missing = d.readCache(ctx, ids, found)
	}
	if len(missing) == 0 {
		return found, nil
	}

	users, err := d.source.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		found[u.ID] = u
	}
	if d.cacheEnabled() {
		d.writeCache(ctx, users)
	}
	return found, nil
}

// Invalidate drops a cached entry, e.g. after a role change.
func (d *Cached) Invalidate(ctx context.Context, id string) {
	if !d.cacheEnabled() {
		return
	}
	if err := d.cache.Del(ctx, cacheKey(id)).Err(); err != nil {
		d.logger.Warn("directory cache invalidate failed", zap.String("user_id", id), zap.Error(err))
	}
}

func (d *Cached) cacheEnabled() bool {
	return d.cache != nil && d.ttl > 0
}

func (d *Cached) readCache(ctx context.Context, ids []string, found map[string]domain.User) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	values, err := d.cache.MGet(ctx, keys...).Result()
	if err != nil {
		d.logger.Warn("directory cache read failed", zap.Error(err))
		return ids
	}

	var missing []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var cu cachedUser
		if err := json.Unmarshal([]byte(raw), &cu); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		found[cu.ID] = domain.User{ID: cu.ID, Email: cu.Email, Name: cu.Name, Role: cu.Role}
	}
	return missing
}

func (d *Cached) writeCache(ctx context.Context, users []domain.User) {
	if len(users) == 0 {
		return
	}
	pipe := d.cache.Pipeline()
	for _, u := range users {
		raw, err := json.Marshal(cachedUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
		if err != nil {
			continue
		}
		pipe.Set(ctx, cacheKey(u.ID), raw, d.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Warn("directory cache write failed", zap.Error(err))
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
