package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	apiContext "lenderhub/internal/api/context"
	"lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/auth"
	"lenderhub/internal/platform/config"
)

const (
	LimitAPIRead  = "api_read"
	LimitAPIWrite = "api_write"
)

// Limiter decides whether one more request under key fits in a per-minute budget.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (bool, error)
	Close() error
}

// NewLimiter builds the backend named by cfg.Backend.
func NewLimiter(cfg config.RateLimitConfig, redisCfg config.RedisConfig) (Limiter, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryLimiter(), nil
	case "redis":
		return NewRedisLimiter(redisCfg.URL)
	default:
		return nil, fmt.Errorf("unsupported rate limit backend %q", cfg.Backend)
	}
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

// MemoryLimiter is a token bucket per key, refilled at limit tokens per minute.
type MemoryLimiter struct {
	store *sync.Map // map[string]*bucket
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

func NewMemoryLimiter() *MemoryLimiter {
	l := &MemoryLimiter{
		store: &sync.Map{},
		now:   time.Now,
		done:  make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.evictIdle(10 * time.Minute)
		}
	}
}

func (l *MemoryLimiter) evictIdle(idle time.Duration) {
	now := l.now()
	l.store.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		if now.Sub(b.lastAccess) > idle {
			l.store.Delete(key)
		}
		b.mu.Unlock()
		return true
	})
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int) (bool, error) {
	now := l.now()

	val, _ := l.store.LoadOrStore(key, &bucket{
		tokens:     float64(limit),
		lastRefill: now,
		lastAccess: now,
	})

	b := val.(*bucket)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastAccess = now

	// Partial tokens carry over between calls.
	refillRate := float64(limit) / 60.0
	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*refillRate, float64(limit))
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

func (l *MemoryLimiter) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

// RedisLimiter counts requests in fixed one-minute windows shared by every
// server instance.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLimiter(redisURL string) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisLimiterWithClient(redis.NewClient(opts)), nil
}

func NewRedisLimiterWithClient(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	window := l.now().Unix() / 60
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, time.Minute)
		return nil
	})
	if err != nil {
		return true, err
	}
	return incr.Val() <= int64(limit), nil
}

func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

type RateLimiter struct {
	limiter Limiter
	limits  map[string]int
}

func NewRateLimiter(limiter Limiter, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		limits: map[string]int{
			LimitAPIRead:  cfg.APIReadPerMinute,
			LimitAPIWrite: cfg.APIWritePerMinute,
		},
	}
}

// Limit rejects requests over the per-minute budget of limitType with 429.
// Authenticated requests share a budget per organisation, anonymous ones per
// client address. A limiter backend failure lets the request through.
func (rl *RateLimiter) Limit(limitType string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			limit, ok := rl.limits[limitType]
			if !ok || limit <= 0 {
				limit = 100
			}

			key := fmt.Sprintf("%s:%s", clientKey(r), limitType)
			allowed, err := rl.limiter.Allow(r.Context(), key, limit)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
			}

			if !allowed {
				w.Header().Set("Retry-After", "60")
				errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
				return
			}

			next(w, r)
		}
	}
}

func clientKey(r *http.Request) string {
	if claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims); ok && claims != nil {
		return "org:" + claims.OrgID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
