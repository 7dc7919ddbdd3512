package httpadapter

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit allows Requests per Window for each client address.
// A zero Requests disables limiting.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

const slowDownMessage = "you're going a bit fast, take a breath and try again in a few minutes 😊"

type clientLimiter struct {
	cfg RateLimit

	mu      sync.Mutex
	clients map[string]*clientEntry
	swept   time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(cfg RateLimit) *clientLimiter {
	return &clientLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientEntry),
	}
}

func (l *clientLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	e, ok := l.clients[key]
	if !ok {
		every := l.cfg.Window / time.Duration(l.cfg.Requests)
		e = &clientEntry{limiter: rate.NewLimiter(rate.Every(every), l.cfg.Requests)}
		l.clients[key] = e
	}
	e.lastSeen = now

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, l.cfg.Window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweepLocked forgets clients idle for a whole window; their bucket is full again anyway.
func (l *clientLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.swept) < l.cfg.Window {
		return
	}
	for k, e := range l.clients {
		if now.Sub(e.lastSeen) >= l.cfg.Window {
			delete(l.clients, k)
		}
	}
	l.swept = now
}

func (l *clientLimiter) middleware() gin.HandlerFunc {
	if l.cfg.Requests <= 0 || l.cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ok, wait := l.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{
				Error:   "slow_down",
				Message: slowDownMessage,
			})
			return
		}
		c.Next()
	}
}
