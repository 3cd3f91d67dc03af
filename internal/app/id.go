package app

import "github.com/google/uuid"

// newID returns an identifier for a new workshop or enrollment.
func newID() string {
	return uuid.NewString()
}
