package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type searchMetrics struct {
	nodes    metric.Int64Counter
	cutoffs  metric.Int64Counter
	searches metric.Int64Counter
	duration metric.Float64Histogram
}

func newSearchMetrics(m metric.Meter) *searchMetrics {
	nodes, errNodes := m.Int64Counter("engine.search.nodes",
		metric.WithDescription("Positions visited by the search"))
	cutoffs, errCutoffs := m.Int64Counter("engine.search.cutoffs",
		metric.WithDescription("Alpha-beta cutoffs taken"))
	searches, errSearches := m.Int64Counter("engine.search.count",
		metric.WithDescription("Completed searches"))
	duration, errDuration := m.Float64Histogram("engine.search.duration",
		metric.WithDescription("Wall time of one search"),
		metric.WithUnit("ms"))

	if err := errors.Join(errNodes, errCutoffs, errSearches, errDuration); err != nil {
		slog.Warn("Failed to create engine metrics, falling back to no-op", "error", err)
		return newSearchMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}

	return &searchMetrics{
		nodes:    nodes,
		cutoffs:  cutoffs,
		searches: searches,
		duration: duration,
	}
}

func (m *searchMetrics) record(ctx context.Context, size int, stats Stats, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.Int("board.size", size),
		attribute.Int("engine.depth_limit", stats.DepthLimit),
	)
	m.nodes.Add(ctx, stats.Nodes, attrs)
	m.cutoffs.Add(ctx, stats.Cutoffs, attrs)
	m.searches.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
