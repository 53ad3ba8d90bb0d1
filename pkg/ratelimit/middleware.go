package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"postrelay/pkg/metrics"
)

type Config struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		RequestsPerSecond: 50,
		Burst:             100,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Middleware applies a per-client-IP token bucket to management endpoints.
// Idle clients are evicted by a background sweep.
type Middleware struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	cfg      Config
	stopOnce sync.Once
	stop     chan struct{}
}

func NewMiddleware(cfg Config) *Middleware {
	m := &Middleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		stop:    make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.cfg.Enabled {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if !m.allow(ip) {
			metrics.HTTPRateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		metrics.HTTPRateLimitRequestsTotal.WithLabelValues("allowed").Inc()
		c.Next()
	}
}

func (m *Middleware) allow(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cl, ok := m.clients[ip]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(m.cfg.RequestsPerSecond), m.cfg.Burst),
		}
		m.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

func (m *Middleware) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Middleware) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-3 * time.Minute)
	for ip, cl := range m.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

func (m *Middleware) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
