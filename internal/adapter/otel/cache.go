package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// CacheSizer reports how many entries a cache holds.
type CacheSizer interface {
	Len() int
}

// RegisterCacheMetrics exposes the size of the user directory cache as an
// observable gauge, read on every collection.
func RegisterCacheMetrics(c CacheSizer) error {
	_, err := otel.Meter(instrumentationName).Int64ObservableGauge("dancepair.directory.cache.entries",
		metric.WithDescription("Profiles held in the user directory cache, keyed by id and by email."),
		metric.WithUnit("{entry}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(c.Len()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("creating directory cache gauge: %w", err)
	}
	return nil
}
