package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// TracingEmitter wraps a domain.NotificationEmitter with a span per publish
// and a counter of published notifications by kind and outcome.
type TracingEmitter struct {
	next      domain.NotificationEmitter
	tracer    trace.Tracer
	published metric.Int64Counter
}

// Compile-time check: TracingEmitter implements domain.NotificationEmitter.
var _ domain.NotificationEmitter = (*TracingEmitter)(nil)

// NewTracingEmitter creates a tracing decorator around the given emitter.
func NewTracingEmitter(next domain.NotificationEmitter) (*TracingEmitter, error) {
	published, err := otel.Meter(instrumentationName).Int64Counter("dancepair.notifications.published",
		metric.WithDescription("Notifications handed to the delivery queue."),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notifications counter: %w", err)
	}

	return &TracingEmitter{
		next:      next,
		tracer:    otel.Tracer(instrumentationName),
		published: published,
	}, nil
}

func (e *TracingEmitter) Publish(ctx context.Context, n domain.Notification) error {
	ctx, span := e.tracer.Start(ctx, "NotificationEmitter.Publish",
		trace.WithAttributes(
			attribute.String("notification.kind", string(n.Kind)),
			attribute.String("workshop.id", n.Workshop.ID),
			attribute.String("recipient.id", n.Recipient.ID),
		),
	)
	defer span.End()

	err := e.next.Publish(ctx, n)
	record(span, err)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(n.Kind)),
		attribute.String("outcome", outcome),
	))
	return err
}
