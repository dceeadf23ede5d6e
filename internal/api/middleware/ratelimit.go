package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/leviettung200/ByteDefence/internal/api/problem"
	"github.com/leviettung200/ByteDefence/internal/config"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	// TierLogin guards credential endpoints: a small burst refilled one
	// token every loginRefill.
	TierLogin RateLimitTier = "login"
)

const (
	loginRefill = 3 * time.Minute
	limiterTTL  = 15 * time.Minute
)

// RateLimiter keeps one token bucket per tier and client IP.
type RateLimiter struct {
	cfg      config.RateLimitConfig
	env      string
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	stop     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter starts a cleanup loop that forgets idle clients; call Stop
// to end it.
func NewRateLimiter(cfg config.RateLimitConfig, env string) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg,
		env:      env,
		limiters: make(map[string]*limiterEntry),
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Tier limits the wrapped handler under tier. Rejections are 429 problems
// with a Retry-After header.
func (rl *RateLimiter) Tier(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := rl.limiter(tier, clientKey(r, rl.cfg.TrustedProxyCIDRs))
			if limiter == nil || limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := "60"
			if tier == TierLogin {
				retryAfter = "180"
			}
			w.Header().Set("Retry-After", retryAfter)
			problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too Many Requests",
				errors.New("rate limit exceeded"), rl.env)
		})
	}
}

func (rl *RateLimiter) limiter(tier RateLimitTier, key string) *rate.Limiter {
	var limiter func() *rate.Limiter
	switch tier {
	case TierLogin:
		if rl.cfg.LoginBurst <= 0 {
			return nil
		}
		limiter = func() *rate.Limiter { return rate.NewLimiter(rate.Every(loginRefill), rl.cfg.LoginBurst) }
	default:
		if rl.cfg.PublicPerMinute <= 0 {
			return nil
		}
		perMinute := rl.cfg.PublicPerMinute
		limiter = func() *rate.Limiter {
			return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		}
	}

	lookup := string(tier) + ":" + key
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if entry, ok := rl.limiters[lookup]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}
	entry := &limiterEntry{limiter: limiter(), lastSeen: time.Now()}
	rl.limiters[lookup] = entry
	return entry.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// clientKey trusts X-Forwarded-For and X-Real-IP only from trusted proxies.
func clientKey(r *http.Request, trustedProxyCIDRs []string) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trustedProxyCIDRs) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}
	return remoteIP
}

func isTrustedProxy(ip string, trustedCIDRs []string) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}
	for _, cidrStr := range trustedCIDRs {
		_, cidr, err := net.ParseCIDR(strings.TrimSpace(cidrStr))
		if err != nil {
			continue
		}
		if cidr.Contains(parsedIP) {
			return true
		}
	}
	return false
}
