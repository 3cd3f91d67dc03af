package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events converts domain.Transitions into looplab/fsm EventDesc format.
// Transitions sharing an event and destination are merged into one EventDesc
// with several source states.
var events = buildEvents()

// statuses is every pairing status that appears in domain.Transitions.
var statuses = knownStatuses()

func knownStatuses() map[domain.Status]bool {
	out := make(map[domain.Status]bool)
	for _, t := range domain.Transitions {
		out[t.Src] = true
		out[t.Dst] = true
	}
	return out
}

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range domain.Transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// A short-lived FSM is built per Apply call from the enrollment's current
// status, since looplab/fsm machines hold their own state and enrollments
// are validated concurrently.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply returns the status an enrollment in current moves to on event, or a
// *domain.TransitionError if the pairing table has no such transition.
// A status outside the table, such as one read from a corrupt row, is
// rejected before the machine is built.
func (v *Validator) Apply(ctx context.Context, current domain.Status, event domain.Event) (domain.Status, error) {
	if !statuses[current] {
		return "", &domain.TransitionError{Event: event, Current: current}
	}
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Event:   event,
				Current: current,
			}
		}
		return "", err
	}

	return domain.Status(machine.Current()), nil
}

// Can reports whether an enrollment in current may take event. A waiting
// enrollment can be matched; a confirmed one can only lose its partner.
func (v *Validator) Can(current domain.Status, event domain.Event) bool {
	if !statuses[current] {
		return false
	}
	return loopfsm.NewFSM(string(current), events, nil).Can(string(event))
}
