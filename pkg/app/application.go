package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opatam/pkg/config"
	"opatam/pkg/contracts"
	"opatam/pkg/middleware"
)

const idempotencyKeyPrefix = "opatam:idempotency:"

// Worker is a background loop that runs next to the HTTP server until ctx is
// cancelled on shutdown.
type Worker func(ctx context.Context) error

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      *middleware.RateLimiter
	healthHandler    http.Handler
	appHTTPHandler   http.Handler
	workers          map[string]Worker
	onShutdown       []func()
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{
		cfg:     cfg,
		workers: make(map[string]Worker),
	}
}

// SetApp wires the health, metrics and application routes. Mongo and Redis
// clients present on cfg.Client are added to the readiness probe.
func (a *Application) SetApp(appHandlers ...contracts.Handler) {
	a.setHealthHandler()
	a.setAppHandler(appHandlers)
	a.setAppServer()
}

// AddWorker registers a background loop started by Run.
func (a *Application) AddWorker(name string, w Worker) {
	a.workers[name] = w
}

// OnShutdown registers fn to run after the server and workers stopped, before
// the backend clients are closed.
func (a *Application) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

func (a *Application) pingers() []contracts.Pinger {
	var pingers []contracts.Pinger
	if a.cfg.Client == nil {
		return nil
	}
	if a.cfg.Client.Mongo != nil {
		pingers = append(pingers, mongoPinger{a.cfg.Client.Mongo})
	}
	if a.cfg.Client.Redis != nil {
		pingers = append(pingers, redisPinger{a.cfg.Client.Redis})
	}
	return pingers
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	NewHealthHandler(a.cfg.Log, a.pingers()...).RegisterRoutes(healthRouter)

	var h http.Handler = healthRouter
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.healthHandler = h
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range appHandlers {
		h.RegisterRoutes(appRouter)
	}

	if a.cfg.Client != nil && a.cfg.Client.Redis != nil {
		a.idempotencyStore = middleware.NewRedisIdempotencyStore(a.cfg.Client.Redis, idempotencyKeyPrefix, a.cfg.IdempotencyTTL)
	} else {
		a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	}
	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.ClientIP,
		a.cfg.Log,
	)

	var h http.Handler = appRouter
	h = middleware.Idempotency(a.idempotencyStore, middleware.DefaultIdempotencyHeader, a.cfg.Log)(h)
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	h = middleware.RateLimit(a.rateLimiter)(h)
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.appHTTPHandler = h
	a.cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle(a.cfg.MetricsPath, promhttp.Handler())
	mux.Handle("/", a.appHTTPHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port, "metrics_path", a.cfg.MetricsPath)
}

// Run serves until SIGINT or SIGTERM, then shuts everything down in order:
// HTTP server, workers, shutdown hooks, backend clients.
func (a *Application) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for name, w := range a.workers {
		wg.Add(1)
		go func(name string, w Worker) {
			defer wg.Done()
			a.cfg.Log.Info("Starting background worker", "worker", name)
			if err := w(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.cfg.Log.Error("Background worker stopped with error", "worker", name, "error", err)
			}
		}(name, w)
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		cancelWorkers()
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case <-ctx.Done():
		a.cfg.Log.Info("Shutdown signal received")
	}

	a.gracefulShutdown(cancelWorkers, &wg)
}

func (a *Application) gracefulShutdown(cancelWorkers context.CancelFunc, wg *sync.WaitGroup) {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	cancelWorkers()
	wg.Wait()
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, fn := range a.onShutdown {
		fn()
	}
	a.cfg.Log.Info("Background workers stopped")

	if a.cfg.Client != nil {
		a.cfg.Client.GracefulShutdown(a.cfg.Log, a.cfg.ShutdownTimeout)
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
