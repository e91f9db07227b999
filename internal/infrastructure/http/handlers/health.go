package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const probeTimeout = 3 * time.Second

var errNotConfigured = errors.New("not configured")

// HealthHandler serves GET /health. It answers 200 as long as the process runs.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Probe checks one dependency. A failing Critical probe makes the service
// unready; a failing non-critical probe only marks it degraded.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// MongoProbe pings the database the repositories use.
func MongoProbe(db *mongo.Database) Probe {
	return Probe{
		Name:     "mongodb",
		Critical: true,
		Check: func(ctx context.Context) error {
			if db == nil {
				return errNotConfigured
			}
			return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		},
	}
}

// RedisProbe pings Redis. It is critical when login attempts are counted there.
func RedisProbe(rdb *redis.Client, critical bool) Probe {
	return Probe{
		Name:     "redis",
		Critical: critical,
		Check: func(ctx context.Context) error {
			if rdb == nil {
				return errNotConfigured
			}
			return rdb.Ping(ctx).Err()
		},
	}
}

// ReadinessHandler serves GET /health/ready.
type ReadinessHandler struct {
	probes []Probe
}

func NewReadinessHandler(probes ...Probe) *ReadinessHandler {
	return &ReadinessHandler{probes: probes}
}

type dependencyStatus struct {
	Status   string `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness answers 200 with status "ok" or "degraded", or 503 with
// "unavailable" when a critical dependency is down.
func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ok", Dependencies: make(map[string]dependencyStatus, len(h.probes))}
	code := http.StatusOK

	for _, p := range h.probes {
		st := dependencyStatus{Status: "ok", Critical: p.Critical}
		if err := p.Check(ctx); err != nil {
			st.Status = "unhealthy"
			st.Error = err.Error()
			if p.Critical {
				resp.Status = "unavailable"
				code = http.StatusServiceUnavailable
			} else if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		}
		resp.Dependencies[p.Name] = st
	}

	return c.JSON(code, resp)
}
