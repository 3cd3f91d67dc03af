package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the pairing state of an enrollment.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusConfirmed Status = "confirmed"
)

// Event represents an action that triggers a pairing state transition.
type Event string

const (
	EventMatch           Event = "match"
	EventPartnerWithdrew Event = "partner_withdrew"
)

// Transition defines a valid state change: an event moves an enrollment from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes of an enrollment.
// Deletion (sign-out) is terminal and is not a state.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventMatch, Src: StatusWaiting, Dst: StatusConfirmed},
	{Event: EventPartnerWithdrew, Src: StatusConfirmed, Dst: StatusWaiting},
}

// Enrollment is a user's registration for one workshop, carrying the
// pairing state. PartnerID references the partner's enrollment, not the
// partner's user, and is empty while waiting.
type Enrollment struct {
	ID         string
	WorkshopID string
	UserID     string
	Role       Role
	Status     Status
	PartnerID  string
	// Seq orders the waitlist. It is assigned by the store on insert and
	// only ever grows.
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEnrollment creates an enrollment in the initial waiting state.
func NewEnrollment(id, workshopID, userID string, role Role) Enrollment {
	now := time.Now().UTC()
	return Enrollment{
		ID:         id,
		WorkshopID: workshopID,
		UserID:     userID,
		Role:       role,
		Status:     StatusWaiting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// HasPartner reports whether the enrollment references a partner enrollment.
func (e Enrollment) HasPartner() bool {
	return e.PartnerID != ""
}

// Waiting reports whether the enrollment sits on the waitlist.
func (e Enrollment) Waiting() bool {
	return e.Status == StatusWaiting
}

// State renders the composite state, e.g. WAITING(LEADER).
func (e Enrollment) State() string {
	return fmt.Sprintf("%s(%s)", strings.ToUpper(string(e.Status)), strings.ToUpper(string(e.Role)))
}

// NextCandidate returns the earliest waiting enrollment in records that can
// be paired with e. Records belonging to other workshops, e itself and
// records of the same role are skipped. Order is by Seq, never by slice order.
func NextCandidate(records []Enrollment, e Enrollment) (Enrollment, bool) {
	var best Enrollment
	found := false
	want := e.Role.Complement()
	for _, r := range records {
		if r.ID == e.ID || r.WorkshopID != e.WorkshopID {
			continue
		}
		if !r.Waiting() || r.HasPartner() || r.Role != want {
			continue
		}
		if !found || r.Seq < best.Seq {
			best = r
			found = true
		}
	}
	return best, found
}
