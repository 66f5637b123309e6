package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"gameday-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// LiveFetcher pulls a fresh game snapshot from the upstream feed.
type LiveFetcher interface {
	FetchLive(ctx context.Context, gamePk int64) (domain.LiveContext, error)
}

// LiveCache caches live-game context with a staleness window so concurrent
// question generation doesn't hammer the upstream feed. Refreshes for the
// same game are deduplicated through singleflight.
type LiveCache struct {
	fetcher LiveFetcher
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedContext
}

type cachedContext struct {
	lc        domain.LiveContext
	expiresAt time.Time
}

func NewLiveCache(fetcher LiveFetcher, ttl time.Duration) *LiveCache {
	return &LiveCache{
		fetcher: fetcher,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[int64]cachedContext),
	}
}

func (c *LiveCache) LiveContext(ctx context.Context, gamePk int64) (domain.LiveContext, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[gamePk]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.lc, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(keyFor(gamePk), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[gamePk]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.lc, nil
		}
		c.mu.RUnlock()

		lc, err := c.fetcher.FetchLive(ctx, gamePk)
		if err != nil {
			return domain.LiveContext{}, err
		}

		c.mu.Lock()
		c.cache[gamePk] = cachedContext{lc: lc, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return lc, nil
	})
	if err != nil {
		return domain.LiveContext{}, err
	}
	return result.(domain.LiveContext), nil
}

func keyFor(gamePk int64) string {
	return "live:" + strconv.FormatInt(gamePk, 10)
}

func (c *LiveCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread refreshes
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
