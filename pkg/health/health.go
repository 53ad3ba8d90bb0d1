package health

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

type CheckResult struct {
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Registry aggregates named checkers and serves readiness and liveness
// endpoints.
type Registry struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

func NewRegistry() *Registry {
	return &Registry{timeout: 5 * time.Second}
}

func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, c)
}

func (r *Registry) Run(ctx context.Context) (map[string]CheckResult, bool) {
	r.mu.RLock()
	checkers := make([]Checker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	var mu sync.Mutex
	results := make(map[string]CheckResult, len(checkers))
	healthy := true

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range checkers {
		c := c
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()

			start := time.Now()
			err := c.Check(cctx)

			result := CheckResult{Status: StatusUp, Latency: time.Since(start).String()}
			if err != nil {
				result.Status = StatusDown
				result.Error = err.Error()
			}

			mu.Lock()
			results[c.Name()] = result
			if err != nil {
				healthy = false
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return results, healthy
}

// LivenessHandler reports process liveness only; it never touches
// dependencies.
func (r *Registry) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	}
}

// ReadinessHandler runs every registered checker and reports 503 when any
// dependency is down.
func (r *Registry) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, healthy := r.Run(c.Request.Context())
		status := http.StatusOK
		overall := StatusUp
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = StatusDown
		}
		c.JSON(status, gin.H{"status": overall, "checks": results})
	}
}

type postgresChecker struct {
	db *sql.DB
}

func NewPostgresChecker(db *sql.DB) Checker {
	return &postgresChecker{db: db}
}

func (p *postgresChecker) Name() string { return "postgres" }

func (p *postgresChecker) Check(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

type redisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) Checker {
	return &redisChecker{client: client}
}

func (r *redisChecker) Name() string { return "redis" }

func (r *redisChecker) Check(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type mongoChecker struct {
	client *mongo.Client
}

func NewMongoChecker(client *mongo.Client) Checker {
	return &mongoChecker{client: client}
}

func (m *mongoChecker) Name() string { return "mongodb" }

func (m *mongoChecker) Check(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}
