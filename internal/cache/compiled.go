package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elcodo/burdy/internal/mapper"
)

const compiledTTL = 5 * time.Minute

func compiledKey(slugPath string) string {
	return "compiled:" + slugPath
}

// CompiledCache keeps fully compiled public posts keyed by slug path.
// Compiled reads tolerate slight staleness, so entries carry a short TTL and
// are dropped eagerly on mutation.
type CompiledCache struct {
	redis *Redis
}

func NewCompiledCache(redis *Redis) *CompiledCache {
	return &CompiledCache{redis: redis}
}

func (c *CompiledCache) Get(ctx context.Context, slugPath string) (*mapper.PublicPost, bool) {
	var post mapper.PublicPost
	err := c.redis.Get(ctx, compiledKey(slugPath), &post)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logrus.Errorf("compiled cache read failed for %s: %v", slugPath, err)
		}
		return nil, false
	}
	return &post, true
}

func (c *CompiledCache) Set(ctx context.Context, slugPath string, post *mapper.PublicPost) {
	if err := c.redis.Set(ctx, compiledKey(slugPath), post, compiledTTL); err != nil {
		logrus.Errorf("compiled cache write failed for %s: %v", slugPath, err)
	}
}

func (c *CompiledCache) Invalidate(ctx context.Context, slugPaths ...string) {
	keys := make([]string, 0, len(slugPaths))
	for _, slugPath := range slugPaths {
		keys = append(keys, compiledKey(slugPath))
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		logrus.Errorf("compiled cache invalidation failed: %v", err)
	}
}
