package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/canvas-orders/internal/auth"
	"github.com/ariefcatur/canvas-orders/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // serves /metrics when set
	Verifier *auth.Verifier
	Orders   *OrdersHandler
	// Ready backs /healthz; nil means always healthy.
	Ready func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(requestLogger(logger), observe(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))
	}
	if cfg.Orders != nil {
		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.Verifier))
			cfg.Orders.Register(r)
		})
	}
	return r
}
