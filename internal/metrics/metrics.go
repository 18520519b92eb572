package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const prometheusNamespace = "eventscope"

// Registry holds every eventscope collector plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var DecodedLogsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: prometheusNamespace,
	Name:      "decoded_logs_total",
	Help:      "Logs decoded into event records",
}, []string{"event"})

var DroppedLogsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: prometheusNamespace,
	Name:      "dropped_logs_total",
	Help:      "Logs left out of a result",
}, []string{"event", "reason"})

var RPCErrorsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: prometheusNamespace,
	Name:      "rpc_errors_total",
	Help:      "Failed JSON-RPC calls, counted per attempt",
}, []string{"method"})

var LastProcessedBlockGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: prometheusNamespace,
	Name:      "last_processed_block",
	Help:      "Last block range end written to storage",
}, []string{"event"})

func init() {
	Registry.MustRegister(
		DecodedLogsCounter,
		DroppedLogsCounter,
		RPCErrorsCounter,
		LastProcessedBlockGauge,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server start", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
