package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheVersionKey = "rbac:version"

// CachedStore wraps a RoleStore with a versioned Redis cache. Bumping the
// version through Invalidate orphans every cached role at once. Redis failures
// fall through to the wrapped store.
type CachedStore struct {
	next   RoleStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCachedStore instantiates the cache. A nil client disables caching.
func NewCachedStore(next RoleStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

// Version returns the current cache version, initialising when missing.
func (c *CachedStore) Version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX so concurrent initialisers cannot reset a bumped version.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// FindRoleForUser serves the role from Redis, loading it on a miss. Concurrent
// misses for the same key share one load.
func (c *CachedStore) FindRoleForUser(ctx context.Context, userID int64) (*Role, error) {
	if c.client == nil {
		return c.next.FindRoleForUser(ctx, userID)
	}
	ver, err := c.Version(ctx)
	if err != nil {
		c.logger.Warn("rbac cache version", slog.Any("error", err))
		return c.next.FindRoleForUser(ctx, userID)
	}
	key := fmt.Sprintf("rbac:user:%d:%d", userID, ver)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var role Role
		if err := json.Unmarshal(payload, &role); err == nil {
			return &role, nil
		}
		c.logger.Warn("rbac cache decode", slog.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("rbac cache get", slog.String("key", key), slog.Any("error", err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Followers share this load, so it must outlive the first caller.
		ctx := context.WithoutCancel(ctx)
		role, err := c.next.FindRoleForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(role)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("rbac cache set", slog.String("key", key), slog.Any("error", err))
		}
		return role, nil
	})
	if err != nil {
		return nil, err
	}
	role := *v.(*Role)
	return &role, nil
}

// Invalidate bumps the cache version so every cached role is reloaded.
func (c *CachedStore) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("rbac: bump cache version: %w", err)
	}
	c.logger.Debug("rbac cache invalidated", slog.String("version", strconv.FormatInt(ver, 10)))
	return nil
}
