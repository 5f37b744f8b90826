// Package cache provides a read-through redis cache over the quiz content
// store, so hot quiz definitions do not hit the database on every attempt.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizCache caches quiz definitions as JSON blobs keyed by quiz id, falling
// back to the underlying repository on miss. Implements
// repository.QuizRepository so services stay oblivious.
type QuizCache struct {
	client *redis.Client
	source repository.QuizRepository
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuizCache(client *redis.Client, source repository.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{client: client, source: source, ttl: ttl}
}

func (c *QuizCache) GetDefinition(ctx context.Context, id int64) (*models.QuizDefinition, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_cache")
	key := c.key(id)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var def models.QuizDefinition
		if err := json.Unmarshal(data, &def); err == nil {
			return &def, nil
		}
		// Corrupt cache entry: fall through and reload.
		log.Warn("dropping unreadable cache entry: key=%s", key)
		_ = c.client.Del(ctx, key).Err()
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var def models.QuizDefinition
			if err := json.Unmarshal(data, &def); err == nil {
				return &def, nil
			}
		}

		def, err := c.source.GetDefinition(ctx, id)
		if err != nil || def == nil {
			return def, err
		}

		data, err := json.Marshal(def)
		if err != nil {
			return def, nil
		}
		if err := c.client.Set(ctx, key, data, c.ttlWithJitter()).Err(); err != nil {
			// Cache writes are best-effort.
			log.Warn("failed to cache quiz definition: %v", err)
		}
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*models.QuizDefinition), nil
}

func (c *QuizCache) key(id int64) string {
	return fmt.Sprintf("quiz:%d:definition", id)
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
