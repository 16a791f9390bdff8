package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// UserCache caches user lookups by id with TTL so every authenticated request does not hit the
// backing store. Users are never updated, so a cached entry cannot go stale before it expires.
type UserCache struct {
	app.UserRepository

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedUser
}

type cachedUser struct {
	user      domain.User
	expiresAt time.Time
}

func NewUserCache(repo app.UserRepository, ttl time.Duration) *UserCache {
	return &UserCache{
		UserRepository: repo,
		ttl:            ttl,
		clock:          time.Now,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:          make(map[string]cachedUser),
	}
}

func (c *UserCache) GetByID(ctx context.Context, id string) (domain.User, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.user, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		user, err := c.UserRepository.GetByID(ctx, id)
		if err != nil {
			return domain.User{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedUser{
			user:      user,
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return user, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return result.(domain.User), nil
}

func (c *UserCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
