package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// UserCache caches user lookups in Redis (hash per user) and falls back to the repository on miss.
// Users are stored as: HSET user:{id} username {username} email {email} created {unix}
// The password hash is never written to Redis, so only GetByID is served from the cache.
type UserCache struct {
	app.UserRepository

	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewUserCache(client *redis.Client, repo app.UserRepository, ttl time.Duration) *UserCache {
	return &UserCache{
		UserRepository: repo,
		client:         client,
		ttl:            ttl,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *UserCache) GetByID(ctx context.Context, id string) (domain.User, error) {
	key := c.userKey(id)

	if fields, err := c.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
		return userFromHash(id, fields), nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if fields, err := c.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
			return userFromHash(id, fields), nil
		}

		user, err := c.UserRepository.GetByID(ctx, id)
		if err != nil {
			return domain.User{}, err
		}

		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"username", user.Username,
			"email", user.Email,
			"created", user.CreatedAt.Unix(),
		)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return user.Public(), nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return result.(domain.User), nil
}

func (c *UserCache) userKey(id string) string {
	return "user:" + id
}

func userFromHash(id string, fields map[string]string) domain.User {
	user := domain.User{
		ID:       id,
		Username: fields["username"],
		Email:    fields["email"],
	}
	if unix, err := strconv.ParseInt(fields["created"], 10, 64); err == nil {
		user.CreatedAt = time.Unix(unix, 0).UTC()
	}
	return user
}

func (c *UserCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
