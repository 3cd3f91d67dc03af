package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// WorkshopService schedules workshops and tells enrolled users when one
// changes or is cancelled.
type WorkshopService struct {
	repo     domain.WorkshopRepository
	store    domain.EnrollmentStore
	notifier *notifier
	now      func() time.Time
}

// NewWorkshopService creates a service with the given adapters.
func NewWorkshopService(
	repo domain.WorkshopRepository,
	store domain.EnrollmentStore,
	users domain.UserDirectory,
	emitter domain.NotificationEmitter,
	logger *slog.Logger,
) *WorkshopService {
	return &WorkshopService{
		repo:     repo,
		store:    store,
		notifier: newNotifier(users, emitter, logger),
		now:      time.Now,
	}
}

// Create persists a new workshop.
func (s *WorkshopService) Create(ctx context.Context, in domain.WorkshopInput) (domain.Workshop, error) {
	w := domain.NewWorkshop(newID(), in)
	if err := s.repo.Create(ctx, w); err != nil {
		return domain.Workshop{}, fmt.Errorf("creating workshop: %w", err)
	}
	return w, nil
}

// GetByID returns a workshop by its identifier.
func (s *WorkshopService) GetByID(ctx context.Context, id string) (domain.Workshop, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns workshops ordered by date.
func (s *WorkshopService) List(ctx context.Context, filter domain.WorkshopFilter) ([]domain.Workshop, error) {
	return s.repo.List(ctx, filter)
}

// Update applies patch and notifies enrolled users of what changed.
// A patch that changes nothing is not persisted and notifies nobody.
func (s *WorkshopService) Update(ctx context.Context, id string, patch domain.WorkshopPatch) (domain.Workshop, []domain.WorkshopChange, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Workshop{}, nil, err
	}

	changes := w.Apply(patch)
	if len(changes) == 0 {
		return w, nil, nil
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return domain.Workshop{}, nil, fmt.Errorf("updating workshop: %w", err)
	}

	s.OnWorkshopChanged(ctx, w.ID, changes)
	return w, changes, nil
}

// Delete removes the workshop together with its enrollments. Users enrolled
// in a workshop that has not happened yet receive a cancellation notice.
func (s *WorkshopService) Delete(ctx context.Context, id string) error {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// The enrollment snapshot and the delete share one transaction, so
	// nobody can enroll in between and miss the notice.
	var enrolled []domain.Enrollment
	err = s.store.WithinWorkshop(ctx, id, func(tx domain.EnrollmentTx) error {
		records, err := tx.ListByWorkshop(ctx, id)
		if err != nil {
			return fmt.Errorf("listing enrollments: %w", err)
		}
		if err := tx.DeleteWorkshop(ctx, id); err != nil {
			return err
		}
		enrolled = records
		return nil
	})
	if err != nil {
		return err
	}

	if w.Upcoming(s.now()) {
		s.notifyEnrolled(ctx, w, enrolled, []domain.WorkshopChange{domain.CancellationChange(w)})
	}
	return nil
}

// OnWorkshopChanged sends a workshop_changed notification to every user
// enrolled in the workshop. It is fire-and-forget: failures are logged and
// do not stop the remaining users from being notified.
func (s *WorkshopService) OnWorkshopChanged(ctx context.Context, workshopID string, changes []domain.WorkshopChange) {
	w, err := s.repo.GetByID(ctx, workshopID)
	if err != nil {
		s.notifier.logger.WarnContext(ctx, "loading changed workshop", "workshop_id", workshopID, "error", err)
		return
	}
	enrolled, err := s.store.ListByWorkshop(ctx, workshopID)
	if err != nil {
		s.notifier.logger.WarnContext(ctx, "listing enrollments of changed workshop", "workshop_id", workshopID, "error", err)
		return
	}
	s.notifyEnrolled(ctx, w, enrolled, changes)
}

func (s *WorkshopService) notifyEnrolled(ctx context.Context, w domain.Workshop, enrolled []domain.Enrollment, changes []domain.WorkshopChange) {
	if len(enrolled) == 0 || len(changes) == 0 {
		return
	}

	notes := make([]pending, 0, len(enrolled))
	for _, e := range enrolled {
		notes = append(notes, pending{
			kind:      domain.NotificationWorkshopChanged,
			recipient: e.UserID,
			changes:   changes,
		})
	}

	sent := s.notifier.dispatch(ctx, w, notes)
	s.notifier.logger.InfoContext(ctx, "workshop change propagated",
		"workshop_id", w.ID,
		"enrolled", len(enrolled),
		"notified", sent,
	)
}
