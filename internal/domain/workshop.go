package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for workshop dates.
const DateLayout = "2006-01-02"

// Workshop is a scheduled dance session.
type Workshop struct {
	ID          string
	Name        string
	Modality    string
	Instructors []string
	Date        time.Time
	StartTime   string
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkshopInput holds the fields needed to schedule a new workshop.
type WorkshopInput struct {
	Name        string
	Modality    string
	Instructors []string
	Date        time.Time
	StartTime   string
	Location    string
}

// NewWorkshop creates a workshop from input.
func NewWorkshop(id string, in WorkshopInput) Workshop {
	now := time.Now().UTC()
	return Workshop{
		ID:          id,
		Name:        in.Name,
		Modality:    in.Modality,
		Instructors: slices.Clone(in.Instructors),
		Date:        truncateDay(in.Date),
		StartTime:   in.StartTime,
		Location:    in.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Upcoming reports whether the workshop takes place today or later,
// relative to now. A workshop on the current day counts as upcoming, not
// only strictly later ones, so cancelling it on the day still notifies its
// attendees.
func (w Workshop) Upcoming(now time.Time) bool {
	return !truncateDay(w.Date).Before(truncateDay(now))
}

// WorkshopPatch carries optional replacement values for a workshop.
// Nil (or empty, for Instructors) means "leave unchanged".
type WorkshopPatch struct {
	Name        *string
	Modality    *string
	Instructors []string
	Date        *time.Time
	StartTime   *string
	Location    *string
}

// Apply updates w with every patch value that is present, non-blank and
// different from the current one, returning a change per updated field.
func (w *Workshop) Apply(p WorkshopPatch) []WorkshopChange {
	var changes []WorkshopChange

	setString := func(field ChangeField, cur *string, next *string) {
		if next == nil || strings.TrimSpace(*next) == "" || *next == *cur {
			return
		}
		*cur = *next
		changes = append(changes, WorkshopChange{Field: field, Value: *next})
	}

	setString(FieldName, &w.Name, p.Name)
	setString(FieldModality, &w.Modality, p.Modality)

	if len(p.Instructors) > 0 && !slices.Equal(p.Instructors, w.Instructors) {
		w.Instructors = slices.Clone(p.Instructors)
		changes = append(changes, WorkshopChange{Field: FieldInstructors, Value: strings.Join(w.Instructors, ", ")})
	}

	setString(FieldLocation, &w.Location, p.Location)

	if p.Date != nil && !p.Date.IsZero() {
		d := truncateDay(*p.Date)
		if !d.Equal(truncateDay(w.Date)) {
			w.Date = d
			changes = append(changes, WorkshopChange{Field: FieldDate, Value: d.Format(DateLayout)})
		}
	}

	setString(FieldTime, &w.StartTime, p.StartTime)

	if len(changes) > 0 {
		w.UpdatedAt = time.Now().UTC()
	}
	return changes
}

// ChangeField names the workshop attribute a change refers to.
type ChangeField string

const (
	FieldName        ChangeField = "name"
	FieldModality    ChangeField = "modality"
	FieldInstructors ChangeField = "instructors"
	FieldLocation    ChangeField = "location"
	FieldDate        ChangeField = "date"
	FieldTime        ChangeField = "time"
	FieldCancelled   ChangeField = "cancelled"
)

// WorkshopChange is a single human-readable delta sent to enrolled users.
type WorkshopChange struct {
	Field ChangeField
	Value string
}

// CancellationChange builds the distinguished delta for a cancelled workshop.
func CancellationChange(w Workshop) WorkshopChange {
	return WorkshopChange{
		Field: FieldCancelled,
		Value: fmt.Sprintf("%s on %s at %s", w.Name, w.Date.Format(DateLayout), w.Location),
	}
}

// IsCancellation reports whether the change announces a cancellation.
func (c WorkshopChange) IsCancellation() bool {
	return c.Field == FieldCancelled
}

func (c WorkshopChange) String() string {
	if c.IsCancellation() {
		return "workshop cancelled: " + c.Value
	}
	return fmt.Sprintf("%s changed to %s", c.Field, c.Value)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
