package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// SignOutResult describes what a sign-out changed.
type SignOutResult struct {
	// Removed is the deleted enrollment as it was before deletion.
	Removed domain.Enrollment
	// Orphan is the former partner's enrollment after the cascade, if the
	// removed enrollment had a partner.
	Orphan *domain.Enrollment
	// NewPartner is the enrollment the orphan was rematched with, if any.
	NewPartner *domain.Enrollment
}

// SignOut withdraws the user from the workshop. A partner left behind goes
// back to the waitlist and is immediately matched again when a dancer of
// the other role is waiting; the whole cascade commits or fails as one.
func (s *PairingService) SignOut(ctx context.Context, userID, workshopID string) (SignOutResult, error) {
	var (
		result SignOutResult
		notes  []pending
	)
	err := s.store.WithinWorkshop(ctx, workshopID, func(tx domain.EnrollmentTx) error {
		result = SignOutResult{}
		notes = nil

		removed, err := tx.GetByWorkshopAndUser(ctx, workshopID, userID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, removed.ID); err != nil {
			return fmt.Errorf("deleting enrollment: %w", err)
		}
		result.Removed = removed

		if !removed.HasPartner() {
			return nil
		}

		orphan, err := tx.GetByID(ctx, removed.PartnerID)
		if errors.Is(err, domain.ErrEnrollmentNotFound) {
			return &domain.PartnerRecordNotFoundError{EnrollmentID: removed.ID, PartnerID: removed.PartnerID}
		}
		if err != nil {
			return fmt.Errorf("loading partner enrollment: %w", err)
		}

		status, err := s.validator.Apply(ctx, orphan.Status, domain.EventPartnerWithdrew)
		if err != nil {
			return err
		}
		orphan.Status = status
		orphan.PartnerID = ""
		orphan.UpdatedAt = time.Now().UTC()
		if err := tx.Save(ctx, orphan); err != nil {
			return fmt.Errorf("releasing partner enrollment: %w", err)
		}

		candidate, matched, err := s.matchWaiting(ctx, tx, &orphan)
		if err != nil {
			return err
		}
		result.Orphan = &orphan

		if !matched {
			notes = append(notes, pending{
				kind:      domain.NotificationPartnerWithdrew,
				recipient: orphan.UserID,
				former:    removed.UserID,
			})
			return nil
		}

		result.NewPartner = &candidate
		notes = append(notes,
			pending{
				kind:      domain.NotificationPartnerReassigned,
				recipient: orphan.UserID,
				partner:   candidate.UserID,
				former:    removed.UserID,
			},
			pending{
				kind:      domain.NotificationNewPartnerAssigned,
				recipient: candidate.UserID,
				partner:   orphan.UserID,
			},
		)
		return nil
	})
	if err != nil {
		return SignOutResult{}, err
	}

	if len(notes) > 0 {
		workshop, err := s.workshops.GetByID(ctx, workshopID)
		if err != nil {
			s.notifier.logger.WarnContext(ctx, "loading workshop for notifications",
				"workshop_id", workshopID,
				"error", err,
			)
			return result, nil
		}
		s.notifier.dispatch(ctx, workshop, notes)
	}
	return result, nil
}
