package lookup

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/thebtf/skinshelf/internal/lookup"

type metrics struct {
	lookups        metric.Int64Counter
	appendFailures metric.Int64Counter
}

func defaultMetrics() *metrics {
	meter := otel.Meter(instrumentationName)
	m := &metrics{}

	var err error
	m.lookups, err = meter.Int64Counter(
		"skinshelf.lookups_total",
		metric.WithDescription("Detail lookups by outcome (recorded, failed)."),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create lookups counter")
	}

	m.appendFailures, err = meter.Int64Counter(
		"skinshelf.history_append_failures_total",
		metric.WithDescription("View history entries that could not be stored after a successful lookup."),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create history append counter")
	}
	return m
}

func (m *metrics) lookup(ctx context.Context, outcome string) {
	if m.lookups != nil {
		m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (m *metrics) appendFailed(ctx context.Context) {
	if m.appendFailures != nil {
		m.appendFailures.Add(ctx, 1)
	}
}
