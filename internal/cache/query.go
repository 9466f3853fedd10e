package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	baseDelay       = 1 * time.Second
	sharedKeyPrefix = "horrorvault:query:"
	sweepInterval   = 1 * time.Minute
)

// Policy controls freshness and retry behaviour for one kind of query.
// Retries is the total number of attempts.
type Policy struct {
	StaleTime time.Duration
	GCTime    time.Duration
	Retries   int
	MaxDelay  time.Duration
}

var (
	GenresPolicy  = Policy{StaleTime: 24 * time.Hour, GCTime: 7 * 24 * time.Hour, Retries: 3, MaxDelay: 30 * time.Second}
	DetailPolicy  = Policy{StaleTime: 5 * time.Minute, GCTime: 10 * time.Minute, Retries: 3, MaxDelay: 30 * time.Second}
	RelatedPolicy = Policy{StaleTime: 10 * time.Minute, GCTime: 30 * time.Minute, Retries: 2, MaxDelay: 10 * time.Second}
	ListPolicy    = Policy{StaleTime: 5 * time.Minute, GCTime: 10 * time.Minute, Retries: 3, MaxDelay: 30 * time.Second}
)

// Backoff is the wait before retry number attempt+1: 1s doubled per attempt,
// capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	delay := baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Key builds a stable cache key from an operation name and its parameters.
func Key(op string, params any) string {
	if params == nil {
		return op
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", op, params)
	}
	return op + ":" + string(raw)
}

type entry struct {
	value     any
	fetchedAt time.Time
	gcTime    time.Duration
}

type sharedEnvelope struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

// QueryCache is an in-memory query cache with stale-while-revalidate reads,
// per-key request coalescing and an optional Redis tier.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	redis     *redis.Client
	logger    *logrus.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	retryable func(error) bool
}

type Option func(*QueryCache)

// WithRedis enables the shared tier.
func WithRedis(client *redis.Client) Option {
	return func(c *QueryCache) { c.redis = client }
}

func WithClock(now func() time.Time) Option {
	return func(c *QueryCache) { c.now = now }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *QueryCache) { c.sleep = sleep }
}

// WithRetryable sets the predicate deciding which fetch errors are retried.
// By default every error is.
func WithRetryable(fn func(error) bool) Option {
	return func(c *QueryCache) { c.retryable = fn }
}

func New(logger *logrus.Logger, opts ...Option) *QueryCache {
	if logger == nil {
		logger = logrus.New()
	}
	c := &QueryCache{
		entries:   make(map[string]*entry),
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
		retryable: func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for key, or loads it with fn.
//
// A fresh entry is returned as-is. A stale entry is returned and refreshed in
// the background. On a miss, concurrent callers for the same key share one
// call of fn. fn runs detached from the caller's cancellation, so a caller that
// gives up still leaves a populated entry behind.
func Fetch[T any](ctx context.Context, c *QueryCache, key string, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	load := func(ctx context.Context) (any, error) {
		return fn(ctx)
	}

	if value, fetchedAt, ok := c.lookup(key); ok {
		if v, ok := value.(T); ok {
			if c.now().Sub(fetchedAt) >= policy.StaleTime {
				c.refresh(ctx, key, policy, load)
			}
			return v, nil
		}
	}

	if v, fetchedAt, ok := loadShared[T](ctx, c, key); ok {
		age := c.now().Sub(fetchedAt)
		if age < policy.GCTime {
			c.put(key, v, fetchedAt, policy.GCTime)
			if age >= policy.StaleTime {
				c.refresh(ctx, key, policy, load)
			}
			return v, nil
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, policy, load)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("cache: key %q holds %T", key, res.Val)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Invalidate drops key from memory and from the shared tier.
func (c *QueryCache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.Del(ctx, sharedKeyPrefix+key).Err(); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Failed to delete shared cache entry")
		}
	}
}

// Len reports the number of entries held in memory.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep evicts entries older than their GC time.
func (c *QueryCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.entries {
		if now.Sub(e.fetchedAt) >= e.gcTime {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Run sweeps on a ticker until ctx is done.
func (c *QueryCache) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	c.logger.Info("Query cache janitor started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Query cache janitor stopped")
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.WithField("evicted", n).Debug("Swept expired cache entries")
			}
		}
	}
}

// lookup returns a live entry. Entries past their GC time are removed.
func (c *QueryCache) lookup(key string) (any, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	if c.now().Sub(e.fetchedAt) >= e.gcTime {
		delete(c.entries, key)
		return nil, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

func (c *QueryCache) put(key string, value any, fetchedAt time.Time, gcTime time.Duration) {
	c.mu.Lock()
	c.entries[key] = &entry{value: value, fetchedAt: fetchedAt, gcTime: gcTime}
	c.mu.Unlock()
}

func (c *QueryCache) refresh(ctx context.Context, key string, policy Policy, load func(context.Context) (any, error)) {
	c.logger.WithField("key", key).Debug("Serving stale entry, refreshing in background")

	// DoChan runs the fetch on its own goroutine; nobody waits for the result.
	c.group.DoChan(key, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, policy, load)
	})
}

func (c *QueryCache) load(ctx context.Context, key string, policy Policy, fn func(context.Context) (any, error)) (any, error) {
	attempts := max(policy.Retries, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := policy.Backoff(attempt - 1)
			c.logger.WithFields(logrus.Fields{
				"key":     key,
				"attempt": attempt + 1,
				"delay":   delay,
				"error":   err.Error(),
			}).Warn("Query failed, retrying...")

			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				return nil, sleepErr
			}
		}

		var value any
		value, err = fn(ctx)
		if err == nil {
			fetchedAt := c.now()
			c.put(key, value, fetchedAt, policy.GCTime)
			c.storeShared(ctx, key, value, fetchedAt, policy.GCTime)
			return value, nil
		}
		if !c.retryable(err) {
			break
		}
	}

	c.logger.WithError(err).WithField("key", key).Warn("Query failed")
	return nil, err
}

func loadShared[T any](ctx context.Context, c *QueryCache, key string) (T, time.Time, bool) {
	var zero T
	if c.redis == nil {
		return zero, time.Time{}, false
	}

	raw, err := c.redis.Get(ctx, sharedKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("Failed to read shared cache entry")
		}
		return zero, time.Time{}, false
	}

	var envelope sharedEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to unmarshal shared cache entry")
		return zero, time.Time{}, false
	}

	var v T
	if err := json.Unmarshal(envelope.Payload, &v); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to unmarshal shared cache payload")
		return zero, time.Time{}, false
	}

	c.logger.WithField("key", key).Debug("Retrieved query from shared cache")
	return v, envelope.FetchedAt, true
}

func (c *QueryCache) storeShared(ctx context.Context, key string, value any, fetchedAt time.Time, ttl time.Duration) {
	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to marshal query for shared cache")
		return
	}
	raw, err := json.Marshal(sharedEnvelope{FetchedAt: fetchedAt, Payload: payload})
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to marshal shared cache envelope")
		return
	}

	if err := c.redis.Set(ctx, sharedKeyPrefix+key, raw, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to write query to shared cache")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
