package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// PairingService enrolls users into workshops and keeps every confirmed
// attendee paired with exactly one partner of the complementary role.
type PairingService struct {
	users     domain.UserDirectory
	workshops domain.WorkshopRepository
	store     domain.EnrollmentStore
	validator domain.TransitionValidator
	notifier  *notifier
}

// NewPairingService creates a service with the given adapters.
// A nil logger falls back to slog.Default().
func NewPairingService(
	users domain.UserDirectory,
	workshops domain.WorkshopRepository,
	store domain.EnrollmentStore,
	emitter domain.NotificationEmitter,
	validator domain.TransitionValidator,
	logger *slog.Logger,
) *PairingService {
	return &PairingService{
		users:     users,
		workshops: workshops,
		store:     store,
		validator: validator,
		notifier:  newNotifier(users, emitter, logger),
	}
}

// Enroll registers the user in the workshop with the role from their
// profile and pairs them with the earliest waiting dancer of the other role,
// if there is one. The returned enrollment reflects the outcome.
func (s *PairingService) Enroll(ctx context.Context, userID, workshopID string) (domain.Enrollment, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	workshop, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return domain.Enrollment{}, err
	}

	var (
		enrollment domain.Enrollment
		notes      []pending
	)
	err = s.store.WithinWorkshop(ctx, workshopID, func(tx domain.EnrollmentTx) error {
		notes = nil

		if err := ensureNotEnrolled(ctx, tx, workshopID, user.ID, false); err != nil {
			return err
		}

		created, err := tx.Create(ctx, domain.NewEnrollment(newID(), workshopID, user.ID, user.Role))
		if err != nil {
			return fmt.Errorf("creating enrollment: %w", err)
		}
		enrollment = created

		candidate, matched, err := s.matchWaiting(ctx, tx, &enrollment)
		if err != nil {
			return err
		}
		if matched {
			// The dancer who was already waiting learns who they got.
			notes = append(notes, pending{
				kind:      domain.NotificationNewPartnerAssigned,
				recipient: candidate.UserID,
				partner:   enrollment.UserID,
			})
		}
		return nil
	})
	if err != nil {
		return domain.Enrollment{}, err
	}

	s.notifier.dispatch(ctx, workshop, notes)
	return enrollment, nil
}

// DirectPair enrolls the requester and the user registered under
// partnerEmail as a confirmed couple, bypassing the waitlist.
func (s *PairingService) DirectPair(ctx context.Context, userID, partnerEmail, workshopID string) (domain.Enrollment, domain.Enrollment, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.Enrollment{}, domain.Enrollment{}, err
	}
	partner, err := s.users.GetByEmail(ctx, partnerEmail)
	if err != nil {
		return domain.Enrollment{}, domain.Enrollment{}, err
	}
	workshop, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return domain.Enrollment{}, domain.Enrollment{}, err
	}

	var own, theirs domain.Enrollment
	err = s.store.WithinWorkshop(ctx, workshopID, func(tx domain.EnrollmentTx) error {
		if err := ensureNotEnrolled(ctx, tx, workshopID, user.ID, false); err != nil {
			return err
		}
		if err := ensureNotEnrolled(ctx, tx, workshopID, partner.ID, true); err != nil {
			return err
		}
		if !domain.Complementary(user.Role, partner.Role) {
			return &domain.RoleMismatchError{Requester: user.Role, Partner: partner.Role}
		}

		a, err := tx.Create(ctx, domain.NewEnrollment(newID(), workshopID, user.ID, user.Role))
		if err != nil {
			return fmt.Errorf("creating enrollment: %w", err)
		}
		b, err := tx.Create(ctx, domain.NewEnrollment(newID(), workshopID, partner.ID, partner.Role))
		if err != nil {
			return fmt.Errorf("creating partner enrollment: %w", err)
		}
		if err := s.confirm(ctx, tx, &a, &b); err != nil {
			return err
		}
		own, theirs = a, b
		return nil
	})
	if err != nil {
		return domain.Enrollment{}, domain.Enrollment{}, err
	}

	s.notifier.dispatch(ctx, workshop, []pending{{
		kind:      domain.NotificationNewPartnerAssigned,
		recipient: partner.ID,
		partner:   user.ID,
	}})
	return own, theirs, nil
}

// AddPartner pairs a user who is already waiting in the workshop with the
// user registered under partnerEmail, who gets enrolled as confirmed.
func (s *PairingService) AddPartner(ctx context.Context, userID, partnerEmail, workshopID string) (domain.Enrollment, domain.Enrollment, error) {
	partner, err := s.users.GetByEmail(ctx, partnerEmail)
	if err != nil {
		return domain.Enrollment{}, domain.Enrollment{}, err
	}
	workshop, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return domain.Enrollment{}, domain.Enrollment{}, err
	}

	var own, theirs domain.Enrollment
	err = s.store.WithinWorkshop(ctx, workshopID, func(tx domain.EnrollmentTx) error {
		a, err := tx.GetByWorkshopAndUser(ctx, workshopID, userID)
		if err != nil {
			return err
		}
		if !s.validator.Can(a.Status, domain.EventMatch) || a.HasPartner() {
			return domain.ErrAlreadyPaired
		}
		if err := ensureNotEnrolled(ctx, tx, workshopID, partner.ID, true); err != nil {
			return err
		}
		if !domain.Complementary(a.Role, partner.Role) {
			return &domain.RoleMismatchError{Requester: a.Role, Partner: partner.Role}
		}

		b, err := tx.Create(ctx, domain.NewEnrollment(newID(), workshopID, partner.ID, partner.Role))
		if err != nil {
			return fmt.Errorf("creating partner enrollment: %w", err)
		}
		if err := s.confirm(ctx, tx, &a, &b); err != nil {
			return err
		}
		own, theirs = a, b
		return nil
	})
	if err != nil {
		return domain.Enrollment{}, domain.Enrollment{}, err
	}

	s.notifier.dispatch(ctx, workshop, []pending{{
		kind:      domain.NotificationNewPartnerAssigned,
		recipient: partner.ID,
		partner:   userID,
	}})
	return own, theirs, nil
}

// matchWaiting pairs e with the earliest complementary waiting enrollment
// of its workshop. It must run inside the workshop transaction so the
// candidate cannot be taken between the scan and the save.
func (s *PairingService) matchWaiting(ctx context.Context, tx domain.EnrollmentTx, e *domain.Enrollment) (domain.Enrollment, bool, error) {
	records, err := tx.ListByWorkshop(ctx, e.WorkshopID)
	if err != nil {
		return domain.Enrollment{}, false, fmt.Errorf("listing waitlist: %w", err)
	}

	candidate, ok := domain.NextCandidate(records, *e)
	if !ok {
		return domain.Enrollment{}, false, nil
	}
	if err := s.confirm(ctx, tx, e, &candidate); err != nil {
		return domain.Enrollment{}, false, err
	}
	return candidate, true, nil
}

// confirm moves both waiting enrollments to confirmed and links them.
func (s *PairingService) confirm(ctx context.Context, tx domain.EnrollmentTx, a, b *domain.Enrollment) error {
	now := time.Now().UTC()
	for _, e := range []*domain.Enrollment{a, b} {
		status, err := s.validator.Apply(ctx, e.Status, domain.EventMatch)
		if err != nil {
			return err
		}
		e.Status = status
		e.UpdatedAt = now
	}
	a.PartnerID = b.ID
	b.PartnerID = a.ID

	if err := tx.Save(ctx, *a); err != nil {
		return fmt.Errorf("saving enrollment: %w", err)
	}
	if err := tx.Save(ctx, *b); err != nil {
		return fmt.Errorf("saving partner enrollment: %w", err)
	}
	return nil
}

func ensureNotEnrolled(ctx context.Context, tx domain.EnrollmentTx, workshopID, userID string, partner bool) error {
	_, err := tx.GetByWorkshopAndUser(ctx, workshopID, userID)
	switch {
	case err == nil:
		return &domain.AlreadyEnrolledError{UserID: userID, WorkshopID: workshopID, Partner: partner}
	case errors.Is(err, domain.ErrEnrollmentNotFound):
		return nil
	default:
		return fmt.Errorf("checking enrollment: %w", err)
	}
}
