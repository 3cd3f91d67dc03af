package domain

import "fmt"

// Violation describes one broken pairing invariant.
type Violation struct {
	EnrollmentID string
	Rule         string
	Detail       string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.EnrollmentID, v.Rule, v.Detail)
}

// Invariant rule names reported in Violation.Rule.
const (
	RuleSymmetry    = "partner_symmetry"
	RuleConsistency = "state_partner_consistency"
	RuleRoles       = "complementary_roles"
	RuleSameSession = "same_workshop"
	RuleMissedMatch = "missed_match"
	RuleUnique      = "unique_enrollment"
)

// CheckInvariants reports every pairing invariant broken by records.
// An empty result means the set is consistent.
func CheckInvariants(records []Enrollment) []Violation {
	var out []Violation

	byID := make(map[string]Enrollment, len(records))
	seen := make(map[[2]string]string, len(records))
	for _, r := range records {
		byID[r.ID] = r
		key := [2]string{r.WorkshopID, r.UserID}
		if other, dup := seen[key]; dup {
			out = append(out, Violation{EnrollmentID: r.ID, Rule: RuleUnique, Detail: "duplicates " + other})
		}
		seen[key] = r.ID
	}

	// Workshops with a waiting leader and a waiting follower at the same time.
	waiting := make(map[string]map[Role]string)

	for _, r := range records {
		switch {
		case r.Status == StatusConfirmed && !r.HasPartner():
			out = append(out, Violation{EnrollmentID: r.ID, Rule: RuleConsistency, Detail: "confirmed without partner"})
		case r.Status == StatusWaiting && r.HasPartner():
			out = append(out, Violation{EnrollmentID: r.ID, Rule: RuleConsistency, Detail: "waiting with partner " + r.PartnerID})
		}

		if r.Status == StatusWaiting && !r.HasPartner() {
			if waiting[r.WorkshopID] == nil {
				waiting[r.WorkshopID] = make(map[Role]string)
			}
			if _, ok := waiting[r.WorkshopID][r.Role]; !ok {
				waiting[r.WorkshopID][r.Role] = r.ID
			}
		}

		if !r.HasPartner() {
			continue
		}
		p, ok := byID[r.PartnerID]
		if !ok {
			out = append(out, Violation{EnrollmentID: r.ID, Rule: RuleSymmetry, Detail: "partner " + r.PartnerID + " missing"})
			continue
		}
		if p.PartnerID != r.ID {
			out = append(out, Violation{EnrollmentID: r.ID, Rule: RuleSymmetry, Detail: "partner " + p.ID + " points to " + p.PartnerID})
		}
		if p.WorkshopID != r.WorkshopID {
			out = append(out, Violation{EnrollmentID: r.ID, Rule: RuleSameSession, Detail: "partner in workshop " + p.WorkshopID})
		}
		if !Complementary(r.Role, p.Role) {
			out = append(out, Violation{EnrollmentID: r.ID, Rule: RuleRoles, Detail: fmt.Sprintf("%s paired with %s", r.Role, p.Role)})
		}
	}

	for _, roles := range waiting {
		leader, hasLeader := roles[RoleLeader]
		follower, hasFollower := roles[RoleFollower]
		if hasLeader && hasFollower {
			out = append(out, Violation{EnrollmentID: leader, Rule: RuleMissedMatch, Detail: "follower " + follower + " is also waiting"})
		}
	}

	return out
}
