package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"suitcraft.com/web/internal/observability"
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether key may perform one more action.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// TokenBucket is an in-process token bucket per key. Buckets refill
// continuously at rate tokens per second up to capacity.
type TokenBucket struct {
	capacity float64
	rate     float64
	now      func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket returns a limiter allowing bursts of capacity and a sustained
// rate of refill tokens per second.
func NewTokenBucket(capacity int, refill float64) *TokenBucket {
	return &TokenBucket{
		capacity: float64(capacity),
		rate:     refill,
		now:      time.Now,
		buckets:  map[string]*bucket{},
	}
}

// Allow implements Limiter.
func (b *TokenBucket) Allow(_ context.Context, key string) (Decision, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.sweep(now)
	bk, ok := b.buckets[key]
	if !ok {
		bk = &bucket{tokens: b.capacity, last: now}
		b.buckets[key] = bk
	}
	elapsed := now.Sub(bk.last).Seconds()
	if elapsed > 0 {
		bk.tokens = math.Min(b.capacity, bk.tokens+elapsed*b.rate)
	}
	bk.last = now
	return take(&bk.tokens, b.rate), nil
}

// sweep drops buckets that have refilled completely; they are equivalent to
// absent ones.
func (b *TokenBucket) sweep(now time.Time) {
	if now.Sub(b.lastSweep) < time.Minute {
		return
	}
	full := time.Duration(b.capacity / b.rate * float64(time.Second))
	for k, bk := range b.buckets {
		if now.Sub(bk.last) >= full {
			delete(b.buckets, k)
		}
	}
	b.lastSweep = now
}

func take(tokens *float64, rate float64) Decision {
	if *tokens >= 1 {
		*tokens--
		return Decision{Allowed: true, Remaining: int(*tokens)}
	}
	wait := (1 - *tokens) / rate
	return Decision{Allowed: false, RetryAfter: time.Duration(wait * float64(time.Second))}
}

// tokenBucketScript refills and takes one token atomically. Token counts are
// returned as strings because Redis truncates Lua numbers to integers.
var tokenBucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local data = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end
local elapsed = math.max(0, now - ts) / 1000
tokens = math.min(capacity, tokens + elapsed * rate)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end
redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(now))
redis.call('PEXPIRE', KEYS[1], math.ceil(capacity / rate * 1000))
return {allowed, tostring(tokens)}
`)

// RedisTokenBucket shares buckets across instances through Redis.
type RedisTokenBucket struct {
	client   redis.UniversalClient
	capacity int
	rate     float64
	prefix   string
	now      func() time.Time
}

// NewRedisTokenBucket mirrors NewTokenBucket with state kept in Redis.
func NewRedisTokenBucket(client redis.UniversalClient, capacity int, refill float64) *RedisTokenBucket {
	return &RedisTokenBucket{client: client, capacity: capacity, rate: refill, prefix: "suitcraft:ratelimit:", now: time.Now}
}

// Allow implements Limiter.
func (b *RedisTokenBucket) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := tokenBucketScript.Run(ctx, b.client, []string{b.prefix + key},
		b.capacity, b.rate, b.now().UnixMilli()).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected reply %v", res)
	}
	allowed, _ := res[0].(int64)
	raw, _ := res[1].(string)
	tokens, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: parse tokens %q: %w", raw, err)
	}
	if allowed == 1 {
		return Decision{Allowed: true, Remaining: int(tokens)}, nil
	}
	wait := (1 - tokens) / b.rate
	return Decision{RetryAfter: time.Duration(wait * float64(time.Second))}, nil
}

// RateLimit throttles requests per client IP. When the limiter itself fails the
// request is let through and the failure logged. onLimited renders the
// refusal; Retry-After is already set when it runs.
func RateLimit(l Limiter, onLimited func(http.ResponseWriter, *http.Request, Decision)) func(http.Handler) http.Handler {
	if onLimited == nil {
		onLimited = func(w http.ResponseWriter, r *http.Request, _ Decision) {
			WriteError(w, r, http.StatusTooManyRequests, "too many requests")
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				observability.FromContext(r.Context()).Warn("rate limit check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				onLimited(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
