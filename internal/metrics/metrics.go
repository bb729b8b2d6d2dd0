// Registers:
//
//	#marketsnapshot_runs_total{status}
//	#marketsnapshot_symbols_total{outcome}
//	#marketsnapshot_fetch_errors_total{endpoint}
//	#marketsnapshot_run_duration_seconds
//	#marketsnapshot_iv_coverage_ratio
//	#go_* and process_* system metrics
//
// Exposes them on <addr>/metrics using Prometheus HTTP handler
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once        sync.Once
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	symbols     *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	runDuration prometheus.Histogram
	ivCoverage  prometheus.Gauge
)

// Init creates and registers the collectors. Safe to call repeatedly.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		runs = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsnapshot_runs_total",
				Help: "Number of snapshot builds by final status",
			},
			[]string{"status"},
		)
		symbols = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsnapshot_symbols_total",
				Help: "Per-symbol outcomes of snapshot builds",
			},
			[]string{"outcome"},
		)
		fetchErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsnapshot_fetch_errors_total",
				Help: "Failed market data requests by endpoint",
			},
			[]string{"endpoint"},
		)
		runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketsnapshot_run_duration_seconds",
			Help:    "Wall time of snapshot builds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		})
		ivCoverage = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketsnapshot_iv_coverage_ratio",
			Help: "Share of rows in the last snapshot with an IV30 value",
		})

		registry.MustRegister(runs, symbols, fetchErrors, runDuration, ivCoverage)
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ObserveRun records one finished build.
func ObserveRun(status string, d time.Duration) {
	if runs == nil {
		return
	}
	runs.WithLabelValues(status).Inc()
	runDuration.Observe(d.Seconds())
}

// IncrementSymbol counts a per-symbol outcome such as "ok", "skipped" or "iv".
func IncrementSymbol(outcome string) {
	if symbols != nil {
		symbols.WithLabelValues(outcome).Inc()
	}
}

// IncrementFetchError counts a failed request against endpoint.
func IncrementFetchError(endpoint string) {
	if fetchErrors != nil {
		fetchErrors.WithLabelValues(endpoint).Inc()
	}
}

// SetIVCoverage records the share of rows carrying IV30.
func SetIVCoverage(ratio float64) {
	if ivCoverage != nil {
		ivCoverage.Set(ratio)
	}
}
