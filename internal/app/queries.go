package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// RosterEntry is one line of a workshop's attendee list.
type RosterEntry struct {
	Enrollment  domain.Enrollment
	User        domain.UserProfile
	PartnerName string
}

// IsSignedUp reports whether the user holds an enrollment for the workshop.
func (s *PairingService) IsSignedUp(ctx context.Context, userID, workshopID string) (bool, error) {
	_, err := s.store.GetByWorkshopAndUser(ctx, workshopID, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrEnrollmentNotFound):
		return false, nil
	default:
		return false, err
	}
}

// HasPartner reports whether the user is enrolled and confirmed.
func (s *PairingService) HasPartner(ctx context.Context, userID, workshopID string) (bool, error) {
	e, err := s.store.GetByWorkshopAndUser(ctx, workshopID, userID)
	switch {
	case err == nil:
		return e.Status == domain.StatusConfirmed, nil
	case errors.Is(err, domain.ErrEnrollmentNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Enrollment returns the user's enrollment for the workshop.
func (s *PairingService) Enrollment(ctx context.Context, userID, workshopID string) (domain.Enrollment, error) {
	return s.store.GetByWorkshopAndUser(ctx, workshopID, userID)
}

// Roster lists a workshop's enrollments in waitlist order with each
// attendee's profile and partner name.
func (s *PairingService) Roster(ctx context.Context, workshopID string) ([]RosterEntry, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}

	records, err := s.store.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]domain.UserProfile, len(records))
	byID := make(map[string]domain.Enrollment, len(records))
	for _, r := range records {
		byID[r.ID] = r
		u, err := s.users.GetByID(ctx, r.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolving attendee %s: %w", r.UserID, err)
		}
		profiles[r.UserID] = u
	}

	out := make([]RosterEntry, 0, len(records))
	for _, r := range records {
		entry := RosterEntry{Enrollment: r, User: profiles[r.UserID]}
		if p, ok := byID[r.PartnerID]; ok && r.HasPartner() {
			entry.PartnerName = profiles[p.UserID].FullName()
		}
		out = append(out, entry)
	}
	return out, nil
}

// UserEnrollments lists every workshop enrollment held by the user.
func (s *PairingService) UserEnrollments(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, userID)
}

// Audit checks the stored enrollments of a workshop against the pairing
// invariants. A healthy workshop yields no violations.
func (s *PairingService) Audit(ctx context.Context, workshopID string) ([]domain.Violation, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	records, err := s.store.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	return domain.CheckInvariants(records), nil
}
