package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"pgregory.net/rapid"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// TestPairing_InvariantsHold drives random operation sequences against one
// workshop and checks the pairing invariants after every step.
func TestPairing_InvariantsHold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()

		numUsers := rapid.IntRange(2, 12).Draw(rt, "numUsers")
		users := make([]domain.UserProfile, numUsers)
		for i := range users {
			id := fmt.Sprintf("u%d", i)
			if rapid.Bool().Draw(rt, "leader") {
				users[i] = leader(id)
			} else {
				users[i] = follower(id)
			}
		}
		f := newFixture(users...)

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for range steps {
			u := users[rapid.IntRange(0, numUsers-1).Draw(rt, "user")]
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0, 1:
				_, _ = f.pairing.Enroll(ctx, u.ID, "w1")
			case 2:
				_, _ = f.pairing.SignOut(ctx, u.ID, "w1")
			case 3:
				p := users[rapid.IntRange(0, numUsers-1).Draw(rt, "partner")]
				_, _, _ = f.pairing.DirectPair(ctx, u.ID, p.Email, "w1")
			}

			if v := f.audit("w1"); len(v) != 0 {
				rt.Fatalf("violations after step: %v", v)
			}
		}
	})
}

// TestSignOut_UnknownNeverMutates checks that signing out a user without an
// enrollment fails the same way regardless of the workshop's state.
func TestSignOut_UnknownNeverMutates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		f := newFixture(leader("a"), follower("b"), leader("c"), follower("ghost"))

		for _, id := range rapid.SliceOfDistinct(rapid.SampledFrom([]string{"a", "b", "c"}), rapid.ID[string]).Draw(rt, "enrolled") {
			_, _ = f.pairing.Enroll(ctx, id, "w1")
		}
		before := f.store.mutations()

		_, err := f.pairing.SignOut(ctx, "ghost", "w1")
		if !errors.Is(err, domain.ErrEnrollmentNotFound) {
			rt.Fatalf("err = %v, want %v", err, domain.ErrEnrollmentNotFound)
		}
		if after := f.store.mutations(); after != before {
			rt.Fatalf("mutations = %d, want %d", after, before)
		}
	})
}

func TestEnroll_ConcurrentWaitlist(t *testing.T) {
	ctx := context.Background()
	const pairs = 25

	var users []domain.UserProfile
	for i := range pairs {
		users = append(users, leader(fmt.Sprintf("l%d", i)), follower(fmt.Sprintf("f%d", i)))
	}
	f := newFixture(users...)

	var wg sync.WaitGroup
	errs := make(chan error, len(users))
	for _, u := range users {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.pairing.Enroll(ctx, id, "w1"); err != nil {
				errs <- err
			}
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("enroll: %v", err)
	}

	records, _ := f.store.ListByWorkshop(ctx, "w1")
	if len(records) != len(users) {
		t.Fatalf("records = %d, want %d", len(records), len(users))
	}
	for _, r := range records {
		if r.Status != domain.StatusConfirmed {
			t.Errorf("%s is %s, want confirmed", r.UserID, r.State())
		}
	}
	if v := f.audit("w1"); len(v) != 0 {
		t.Errorf("violations = %v, want none", v)
	}
	if n := len(f.emitter.notifications()); n != pairs {
		t.Errorf("notifications = %d, want %d", n, pairs)
	}
}
