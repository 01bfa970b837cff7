package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newOpsRouter serves liveness and Prometheus metrics.
func newOpsRouter(gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func newOpsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      newOpsRouter(gatherer),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
