package domain

import (
	"fmt"
	"strings"
)

// Role is the dance role a user declares on their profile.
type Role string

const (
	RoleLeader   Role = "leader"
	RoleFollower Role = "follower"
)

// ParseRole normalizes a role name. Spanish "lider" is accepted because
// profiles imported from the legacy system still carry it.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "leader", "lider", "líder":
		return RoleLeader, nil
	case "follower":
		return RoleFollower, nil
	default:
		return "", fmt.Errorf("unknown dance role %q", s)
	}
}

// Complement returns the role a user of this role can be paired with.
func (r Role) Complement() Role {
	if r == RoleLeader {
		return RoleFollower
	}
	return RoleLeader
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleLeader || r == RoleFollower
}

// Complementary reports whether a and b form a leader/follower couple.
func Complementary(a, b Role) bool {
	return a.Valid() && b.Valid() && a != b
}

// UserProfile is the read-only view of a user held by the directory.
type UserProfile struct {
	ID      string
	Name    string
	Surname string
	Email   string
	Phone   string
	Role    Role
}

// FullName joins name and surname.
func (u UserProfile) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}
