package core

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"airaware/internal/types"
)

const (
	// DefaultRateLimit is the per-client request budget per window.
	DefaultRateLimit = 120

	// DefaultRateLimitWindow is the fixed window length.
	DefaultRateLimitWindow = time.Minute
)

// RateLimitStore abstracts the backing store for rate limiting. Deployments
// with Redis share counters across replicas; otherwise MemoryRateLimitStore.
type RateLimitStore interface {
	// IncrementAndCheck atomically increments the counter for key in the
	// current window and reports whether limit is still respected.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (RateLimitResult, error)
}

// RateLimitResult contains the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimit protects the upstream quotas (Nominatim allows one request per
// second per application) with a fixed-window budget per client IP.
//
// Store errors fail open. Every response carries X-RateLimit-* headers;
// rejected requests also get Retry-After and a 429 envelope.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	limit, window := s.rateLimit()
	hops := 0
	if s.Config != nil {
		hops = s.Config.Server.TrustedProxyHops
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.RateLimitStore == nil || limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip := extractClientIP(r, hops)
		result, err := s.RateLimitStore.IncrementAndCheck(r.Context(), "ratelimit:"+ip, limit, window)
		if err != nil {
			s.Logger.Error("rate limit store error",
				slog.String("client_ip", ip),
				slog.String("error", err.Error()),
			)
			next.ServeHTTP(w, r)
			return
		}

		setRateLimitHeaders(w, limit, result)

		if !result.Allowed {
			s.Logger.Warn("rate limit exceeded",
				slog.String("client_ip", ip),
				slog.String("path", r.URL.Path),
			)
			if s.Metrics != nil {
				s.Metrics.RateLimited.Inc()
			}

			retryAfter := int(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			Error(w, r, types.NewAppError(types.ErrCodeRateLimited,
				"Rate limit exceeded. Please retry after the reset time.", nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit() (int, time.Duration) {
	if s.Config == nil || s.Config.Server.RateLimitWindow <= 0 {
		return DefaultRateLimit, DefaultRateLimitWindow
	}
	return s.Config.Server.RateLimitPerWindow, s.Config.Server.RateLimitWindow
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, result RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// extractClientIP keys a request by RemoteAddr without its port. Behind hops
// trusted proxies it takes the X-Forwarded-For entry the outermost proxy
// appended, hops places from the right; entries left of it are client
// controlled and never used.
func extractClientIP(r *http.Request, hops int) string {
	if xff := r.Header.Get("X-Forwarded-For"); hops > 0 && xff != "" {
		parts := strings.Split(xff, ",")
		i := len(parts) - hops
		if i < 0 {
			i = 0
		}
		if ip := strings.TrimSpace(parts[i]); ip != "" {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// MemoryRateLimitStore keeps fixed-window counters in process.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	clock   types.Clock
	windows map[string]memoryWindow
}

type memoryWindow struct {
	count   int
	resetAt time.Time
}

// NewMemoryRateLimitStore returns an empty store. A nil clock uses the wall
// clock.
func NewMemoryRateLimitStore(clock types.Clock) *MemoryRateLimitStore {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &MemoryRateLimitStore{clock: clock, windows: make(map[string]memoryWindow)}
}

func (m *MemoryRateLimitStore) IncrementAndCheck(_ context.Context, key string, limit int, window time.Duration) (RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	win, ok := m.windows[key]
	if !ok || !now.Before(win.resetAt) {
		if len(m.windows) > 10000 {
			m.purgeLocked(now)
		}
		win = memoryWindow{resetAt: now.Add(window)}
	}
	win.count++
	m.windows[key] = win

	return RateLimitResult{
		Allowed:   win.count <= limit,
		Remaining: max(0, limit-win.count),
		ResetAt:   win.resetAt,
	}, nil
}

func (m *MemoryRateLimitStore) purgeLocked(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}

// RedisRateLimitStore keeps fixed-window counters in Redis so replicas share
// one budget per client.
type RedisRateLimitStore struct {
	client redis.UniversalClient
}

// NewRedisRateLimitStore wraps client.
func NewRedisRateLimitStore(client redis.UniversalClient) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

func (s *RedisRateLimitStore) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (RateLimitResult, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.ExpireNX(ctx, key, window)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return RateLimitResult{}, err
	}

	count := int(incr.Val())
	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = window
	}
	return RateLimitResult{
		Allowed:   count <= limit,
		Remaining: max(0, limit-count),
		ResetAt:   time.Now().Add(remaining),
	}, nil
}
