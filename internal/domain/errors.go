package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrWorkshopNotFound   = errors.New("workshop not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyPaired      = errors.New("enrollment already has a partner")
)

// AlreadyEnrolledError is returned when a user already holds an enrollment
// for the workshop. Partner is set when the conflicting user is the
// requested partner rather than the requester.
type AlreadyEnrolledError struct {
	UserID     string
	WorkshopID string
	Partner    bool
}

func (e *AlreadyEnrolledError) Error() string {
	if e.Partner {
		return fmt.Sprintf("partner %q is already enrolled in workshop %q", e.UserID, e.WorkshopID)
	}
	return fmt.Sprintf("user %q is already enrolled in workshop %q", e.UserID, e.WorkshopID)
}

// RoleMismatchError is returned when an explicit pairing is not one leader
// and one follower.
type RoleMismatchError struct {
	Requester Role
	Partner   Role
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("a pair needs one leader and one follower, got %q and %q", e.Requester, e.Partner)
}

// PartnerRecordNotFoundError signals a dangling partner reference found
// during a sign-out cascade. It is a data-integrity fault.
type PartnerRecordNotFoundError struct {
	EnrollmentID string
	PartnerID    string
}

func (e *PartnerRecordNotFoundError) Error() string {
	return fmt.Sprintf("enrollment %q references missing partner enrollment %q", e.EnrollmentID, e.PartnerID)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// EmailConflictError is returned when a profile's email is already
// registered to another user.
type EmailConflictError struct {
	Email string
}

func (e *EmailConflictError) Error() string {
	return fmt.Sprintf("email %q is already registered", e.Email)
}
