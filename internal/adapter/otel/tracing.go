package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/dancepair/internal/domain"
)

const instrumentationName = "github.com/neomorfeo/dancepair/internal/adapter/otel"

// record marks span as failed when err is set.
func record(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TracingWorkshopRepository wraps a domain.WorkshopRepository with
// OpenTelemetry tracing.
type TracingWorkshopRepository struct {
	next   domain.WorkshopRepository
	tracer trace.Tracer
}

// Compile-time check: TracingWorkshopRepository implements domain.WorkshopRepository.
var _ domain.WorkshopRepository = (*TracingWorkshopRepository)(nil)

// NewTracingWorkshopRepository creates a tracing decorator around the given repository.
func NewTracingWorkshopRepository(next domain.WorkshopRepository) *TracingWorkshopRepository {
	return &TracingWorkshopRepository{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (r *TracingWorkshopRepository) Create(ctx context.Context, w domain.Workshop) error {
	ctx, span := r.tracer.Start(ctx, "WorkshopRepository.Create",
		trace.WithAttributes(
			attribute.String("workshop.id", w.ID),
			attribute.String("workshop.date", w.Date.Format(domain.DateLayout)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, w)
	record(span, err)
	return err
}

func (r *TracingWorkshopRepository) GetByID(ctx context.Context, id string) (domain.Workshop, error) {
	ctx, span := r.tracer.Start(ctx, "WorkshopRepository.GetByID",
		trace.WithAttributes(attribute.String("workshop.id", id)),
	)
	defer span.End()

	w, err := r.next.GetByID(ctx, id)
	record(span, err)
	return w, err
}

func (r *TracingWorkshopRepository) List(ctx context.Context, filter domain.WorkshopFilter) ([]domain.Workshop, error) {
	ctx, span := r.tracer.Start(ctx, "WorkshopRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	workshops, err := r.next.List(ctx, filter)
	record(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(workshops)))
	}
	return workshops, err
}

func (r *TracingWorkshopRepository) Update(ctx context.Context, w domain.Workshop) error {
	ctx, span := r.tracer.Start(ctx, "WorkshopRepository.Update",
		trace.WithAttributes(attribute.String("workshop.id", w.ID)),
	)
	defer span.End()

	err := r.next.Update(ctx, w)
	record(span, err)
	return err
}

// TracingEnrollmentStore wraps a domain.EnrollmentStore with OpenTelemetry
// tracing. Operations inside a transaction become children of the
// WithinWorkshop span.
type TracingEnrollmentStore struct {
	next   domain.EnrollmentStore
	tracer trace.Tracer
}

// Compile-time check: TracingEnrollmentStore implements domain.EnrollmentStore.
var _ domain.EnrollmentStore = (*TracingEnrollmentStore)(nil)

// NewTracingEnrollmentStore creates a tracing decorator around the given store.
func NewTracingEnrollmentStore(next domain.EnrollmentStore) *TracingEnrollmentStore {
	return &TracingEnrollmentStore{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (s *TracingEnrollmentStore) WithinWorkshop(ctx context.Context, workshopID string, fn func(tx domain.EnrollmentTx) error) error {
	ctx, span := s.tracer.Start(ctx, "EnrollmentStore.WithinWorkshop",
		trace.WithAttributes(attribute.String("workshop.id", workshopID)),
	)
	defer span.End()

	err := s.next.WithinWorkshop(ctx, workshopID, func(tx domain.EnrollmentTx) error {
		return fn(&tracingTx{next: tx, tracer: s.tracer, span: span})
	})
	record(span, err)
	return err
}

func (s *TracingEnrollmentStore) GetByWorkshopAndUser(ctx context.Context, workshopID, userID string) (domain.Enrollment, error) {
	ctx, span := s.tracer.Start(ctx, "EnrollmentStore.GetByWorkshopAndUser",
		trace.WithAttributes(
			attribute.String("workshop.id", workshopID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	e, err := s.next.GetByWorkshopAndUser(ctx, workshopID, userID)
	record(span, err)
	return e, err
}

func (s *TracingEnrollmentStore) ListByWorkshop(ctx context.Context, workshopID string) ([]domain.Enrollment, error) {
	ctx, span := s.tracer.Start(ctx, "EnrollmentStore.ListByWorkshop",
		trace.WithAttributes(attribute.String("workshop.id", workshopID)),
	)
	defer span.End()

	records, err := s.next.ListByWorkshop(ctx, workshopID)
	record(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(records)))
	}
	return records, err
}

func (s *TracingEnrollmentStore) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	ctx, span := s.tracer.Start(ctx, "EnrollmentStore.ListByUser",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	records, err := s.next.ListByUser(ctx, userID)
	record(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(records)))
	}
	return records, err
}

// tracingTx traces the writes made inside a workshop transaction as
// children of its span, whatever context the caller passes. Reads are left
// untraced; otelsql already records the statements.
type tracingTx struct {
	next   domain.EnrollmentTx
	tracer trace.Tracer
	span   trace.Span
}

func (t *tracingTx) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(trace.ContextWithSpan(ctx, t.span), name, trace.WithAttributes(attrs...))
}

func (t *tracingTx) Create(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	ctx, span := t.start(ctx, "EnrollmentTx.Create",
		attribute.String("enrollment.id", e.ID),
		attribute.String("user.id", e.UserID),
		attribute.String("enrollment.role", string(e.Role)),
	)
	defer span.End()

	created, err := t.next.Create(ctx, e)
	record(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("enrollment.seq", created.Seq))
	}
	return created, err
}

func (t *tracingTx) Save(ctx context.Context, e domain.Enrollment) error {
	ctx, span := t.start(ctx, "EnrollmentTx.Save",
		attribute.String("enrollment.id", e.ID),
		attribute.String("enrollment.status", string(e.Status)),
		attribute.String("enrollment.partner_id", e.PartnerID),
	)
	defer span.End()

	err := t.next.Save(ctx, e)
	record(span, err)
	return err
}

func (t *tracingTx) Delete(ctx context.Context, id string) error {
	ctx, span := t.start(ctx, "EnrollmentTx.Delete", attribute.String("enrollment.id", id))
	defer span.End()

	err := t.next.Delete(ctx, id)
	record(span, err)
	return err
}

func (t *tracingTx) DeleteWorkshop(ctx context.Context, workshopID string) error {
	ctx, span := t.start(ctx, "EnrollmentTx.DeleteWorkshop", attribute.String("workshop.id", workshopID))
	defer span.End()

	err := t.next.DeleteWorkshop(ctx, workshopID)
	record(span, err)
	return err
}

func (t *tracingTx) GetByID(ctx context.Context, id string) (domain.Enrollment, error) {
	return t.next.GetByID(ctx, id)
}

func (t *tracingTx) GetByWorkshopAndUser(ctx context.Context, workshopID, userID string) (domain.Enrollment, error) {
	return t.next.GetByWorkshopAndUser(ctx, workshopID, userID)
}

func (t *tracingTx) ListByWorkshop(ctx context.Context, workshopID string) ([]domain.Enrollment, error) {
	return t.next.ListByWorkshop(ctx, workshopID)
}
