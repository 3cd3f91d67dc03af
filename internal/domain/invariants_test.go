package domain_test

import (
	"testing"

	"github.com/neomorfeo/dancepair/internal/domain"
)

func TestParseRole(t *testing.T) {
	cases := map[string]domain.Role{
		"leader":    domain.RoleLeader,
		"Lider":     domain.RoleLeader,
		" FOLLOWER": domain.RoleFollower,
	}
	for in, want := range cases {
		got, err := domain.ParseRole(in)
		if err != nil {
			t.Errorf("ParseRole(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := domain.ParseRole("dj"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestCheckInvariants_ConsistentPair(t *testing.T) {
	records := []domain.Enrollment{
		{ID: "a", WorkshopID: "w", UserID: "ua", Role: domain.RoleLeader, Status: domain.StatusConfirmed, PartnerID: "b"},
		{ID: "b", WorkshopID: "w", UserID: "ub", Role: domain.RoleFollower, Status: domain.StatusConfirmed, PartnerID: "a"},
		{ID: "c", WorkshopID: "w", UserID: "uc", Role: domain.RoleLeader, Status: domain.StatusWaiting},
	}

	if v := domain.CheckInvariants(records); len(v) != 0 {
		t.Errorf("unexpected violations: %v", v)
	}
}

func TestCheckInvariants_Violations(t *testing.T) {
	cases := []struct {
		name    string
		records []domain.Enrollment
		rule    string
	}{
		{
			name: "asymmetric",
			records: []domain.Enrollment{
				{ID: "a", WorkshopID: "w", UserID: "ua", Role: domain.RoleLeader, Status: domain.StatusConfirmed, PartnerID: "b"},
				{ID: "b", WorkshopID: "w", UserID: "ub", Role: domain.RoleFollower, Status: domain.StatusConfirmed, PartnerID: "c"},
				{ID: "c", WorkshopID: "w", UserID: "uc", Role: domain.RoleLeader, Status: domain.StatusConfirmed, PartnerID: "b"},
			},
			rule: domain.RuleSymmetry,
		},
		{
			name: "confirmed without partner",
			records: []domain.Enrollment{
				{ID: "a", WorkshopID: "w", UserID: "ua", Role: domain.RoleLeader, Status: domain.StatusConfirmed},
			},
			rule: domain.RuleConsistency,
		},
		{
			name: "same roles",
			records: []domain.Enrollment{
				{ID: "a", WorkshopID: "w", UserID: "ua", Role: domain.RoleLeader, Status: domain.StatusConfirmed, PartnerID: "b"},
				{ID: "b", WorkshopID: "w", UserID: "ub", Role: domain.RoleLeader, Status: domain.StatusConfirmed, PartnerID: "a"},
			},
			rule: domain.RuleRoles,
		},
		{
			name: "missed match",
			records: []domain.Enrollment{
				{ID: "a", WorkshopID: "w", UserID: "ua", Role: domain.RoleLeader, Status: domain.StatusWaiting},
				{ID: "b", WorkshopID: "w", UserID: "ub", Role: domain.RoleFollower, Status: domain.StatusWaiting},
			},
			rule: domain.RuleMissedMatch,
		},
		{
			name: "duplicate enrollment",
			records: []domain.Enrollment{
				{ID: "a", WorkshopID: "w", UserID: "ua", Role: domain.RoleLeader, Status: domain.StatusWaiting},
				{ID: "b", WorkshopID: "w", UserID: "ua", Role: domain.RoleLeader, Status: domain.StatusWaiting},
			},
			rule: domain.RuleUnique,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			violations := domain.CheckInvariants(tc.records)
			for _, v := range violations {
				if v.Rule == tc.rule {
					return
				}
			}
			t.Errorf("expected a %q violation, got %v", tc.rule, violations)
		})
	}
}
