/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics.go
Description: Prometheus metrics for the punk fuzzer. PrometheusReporter plugs into the engine as
a reporter and counts requests, findings and module runs per vulnerability class. Process and
Go runtime resource usage is exported from the same private registry.
*/

package monitoring

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kleascm/punk-fuzzer/pkg/core"
	"github.com/kleascm/punk-fuzzer/pkg/execution"
	"github.com/kleascm/punk-fuzzer/pkg/payloads"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var _ core.Reporter = (*PrometheusReporter)(nil)

// PrometheusReporter exports fuzz telemetry as Prometheus metrics
type PrometheusReporter struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	findingsTotal   *prometheus.CounterVec
	modulesTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	moduleDuration  *prometheus.HistogramVec
}

// NewPrometheusReporter creates a reporter with its own registry
func NewPrometheusReporter() (*PrometheusReporter, error) {
	r := &PrometheusReporter{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "punkfuzz_requests_total",
			Help: "Fuzz requests issued, by module and outcome",
		}, []string{"module", "outcome"}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "punkfuzz_findings_total",
			Help: "Confirmed findings, by module",
		}, []string{"module"}),
		modulesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "punkfuzz_modules_total",
			Help: "Completed module runs, by module and result",
		}, []string{"module", "result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "punkfuzz_request_duration_seconds",
			Help:    "Fuzz request latency",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"module"}),
		moduleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "punkfuzz_module_duration_seconds",
			Help:    "Wall time of a module run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"module"}),
	}

	for _, c := range []prometheus.Collector{
		r.requestsTotal,
		r.findingsTotal,
		r.modulesTotal,
		r.requestDuration,
		r.moduleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := r.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Registry exposes the underlying registry
func (r *PrometheusReporter) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *PrometheusReporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (r *PrometheusReporter) OnRequest(class payloads.Class, result *execution.Result) {
	r.requestsTotal.WithLabelValues(string(class), result.Outcome.String()).Inc()
	r.requestDuration.WithLabelValues(string(class)).Observe(result.Duration.Seconds())
}

func (r *PrometheusReporter) OnModuleFinished(class payloads.Class, found bool, elapsed time.Duration) {
	res := "clean"
	if found {
		res = "found"
	}
	r.modulesTotal.WithLabelValues(string(class), res).Inc()
	r.moduleDuration.WithLabelValues(string(class)).Observe(elapsed.Seconds())
}

func (r *PrometheusReporter) OnFinding(f *core.Finding) {
	r.findingsTotal.WithLabelValues(f.VulnType).Inc()
}

// Serve exposes /metrics on addr until ctx is done
func (r *PrometheusReporter) Serve(ctx context.Context, addr string, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Metrics server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
