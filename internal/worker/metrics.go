package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/thebtf/skinshelf/internal/worker"

// Metrics holds the worker's HTTP and shelf metrics.
type Metrics struct {
	meter            metric.Meter
	requestsTotal    metric.Int64Counter
	requestDur       metric.Float64Histogram
	productMutations metric.Int64Counter
}

// NewMetrics creates worker metrics on the global meter provider.
func NewMetrics() *Metrics {
	m := &Metrics{meter: otel.Meter(instrumentationName)}

	var err error
	m.requestsTotal, err = m.meter.Int64Counter(
		"skinshelf.http.requests_total",
		metric.WithDescription("HTTP requests by method, route and status."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create requests counter")
	}

	m.requestDur, err = m.meter.Float64Histogram(
		"skinshelf.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create duration histogram")
	}

	m.productMutations, err = m.meter.Int64Counter(
		"skinshelf.product_mutations_total",
		metric.WithDescription("Product add and delete attempts by outcome."),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create product mutations counter")
	}
	return m
}

// Middleware records request count and latency keyed by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.Int("status", status),
		)
		if m.requestsTotal != nil {
			m.requestsTotal.Add(r.Context(), 1, attrs)
		}
		if m.requestDur != nil {
			m.requestDur.Record(r.Context(), time.Since(start).Seconds(), attrs)
		}
	})
}

// mutation counts a product add or delete.
func (m *Metrics) mutation(ctx context.Context, op string, err error) {
	if m == nil || m.productMutations == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.productMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}
