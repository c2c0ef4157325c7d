package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"opatam/pkg/contracts"
	httputil "opatam/pkg/http"
	"opatam/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type HealthHandler struct {
	pingers []contracts.Pinger
	log     *logger.Logger
}

func NewHealthHandler(log *logger.Logger, pingers ...contracts.Pinger) *HealthHandler {
	return &HealthHandler{
		pingers: pingers,
		log:     log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

// Ready pings every backend and answers 503 when any of them fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ready", Dependencies: make(map[string]string, len(h.pingers))}
	status := http.StatusOK
	for _, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			h.log.Error("Readiness check failed", "dependency", p.Name(), "error", err)
			resp.Dependencies[p.Name()] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[p.Name()] = "ok"
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

type mongoPinger struct{ client *mongo.Client }

func (p mongoPinger) Name() string { return "mongodb" }
func (p mongoPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx, nil) }

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Name() string { return "redis" }
func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }
