package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Policy configures a fixed-window rate limit.
type Policy struct {
	Window      time.Duration
	MaxRequests int
}

// Preconfigured policies. Auth endpoints get the tightest budget since
// they are the main brute-force target.
func StrictPolicy() Policy   { return Policy{Window: time.Minute, MaxRequests: 10} }
func StandardPolicy() Policy { return Policy{Window: time.Minute, MaxRequests: 60} }
func AuthPolicy() Policy     { return Policy{Window: 15 * time.Minute, MaxRequests: 5} }

type windowEntry struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a fixed-window request counter keyed by client
// fingerprint (IP + User-Agent). State is process-local and does not
// coordinate across instances, so this is an abuse-slowing guard, not a
// security boundary. Construct one per route group and pass it in
// explicitly; there is no package-level instance.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowEntry
	policy  Policy
}

func NewRateLimiter(policy Policy) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*windowEntry),
		policy:  policy,
	}

	// Sweep expired windows every 5 minutes so the map doesn't grow
	// unbounded under churning fingerprints.
	go rl.sweep()

	return rl
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, entry := range rl.clients {
			if now.After(entry.resetTime) {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// check records one request for the fingerprint and reports whether it
// is allowed, along with the remaining budget and the window reset time.
func (rl *RateLimiter) check(fingerprint string) (allowed bool, remaining int, resetTime time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.clients[fingerprint]

	if !exists || now.After(entry.resetTime) {
		// First request in a fresh window.
		entry = &windowEntry{count: 1, resetTime: now.Add(rl.policy.Window)}
		rl.clients[fingerprint] = entry
		return true, rl.policy.MaxRequests - 1, entry.resetTime
	}

	if entry.count >= rl.policy.MaxRequests {
		return false, 0, entry.resetTime
	}

	entry.count++
	return true, rl.policy.MaxRequests - entry.count, entry.resetTime
}

// Reset clears the counter for a fingerprint. Used by tests and by
// admin tooling.
func (rl *RateLimiter) Reset(fingerprint string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, fingerprint)
}

// Fingerprint derives the rate-limit key from the forwarded client IP
// and the User-Agent header. Best-effort and trivially spoofable.
func Fingerprint(c *gin.Context) string {
	return c.ClientIP() + "|" + c.Request.UserAgent()
}

// Middleware returns a gin middleware enforcing the limiter's policy.
// Blocked requests receive 429 with rate-limit headers.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, resetTime := rl.check(Fingerprint(c))

		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			c.Abort()
			return
		}
		c.Next()
	}
}
