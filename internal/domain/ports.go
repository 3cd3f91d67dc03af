package domain

import "context"

// UserDirectory resolves user profiles. It is read-only to the core.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (UserProfile, error)
	GetByEmail(ctx context.Context, email string) (UserProfile, error)
}

// WorkshopRepository defines the persistence contract for workshops.
// Deletion goes through EnrollmentTx so it serializes with pairing.
type WorkshopRepository interface {
	Create(ctx context.Context, workshop Workshop) error
	GetByID(ctx context.Context, id string) (Workshop, error)
	List(ctx context.Context, filter WorkshopFilter) ([]Workshop, error)
	Update(ctx context.Context, workshop Workshop) error
}

// WorkshopFilter holds optional criteria for listing workshops.
type WorkshopFilter struct {
	Limit  int
	Offset int
}

// EnrollmentStore defines the persistence contract for enrollments.
// Every pairing mutation goes through WithinWorkshop.
type EnrollmentStore interface {
	// WithinWorkshop runs fn in a single transaction that no other pairing
	// operation on the same workshop can interleave with. If fn returns an
	// error nothing it wrote is kept.
	WithinWorkshop(ctx context.Context, workshopID string, fn func(tx EnrollmentTx) error) error

	GetByWorkshopAndUser(ctx context.Context, workshopID, userID string) (Enrollment, error)
	ListByWorkshop(ctx context.Context, workshopID string) ([]Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]Enrollment, error)
}

// EnrollmentTx is the view of the store available inside WithinWorkshop.
type EnrollmentTx interface {
	// Create inserts e and returns it with Seq assigned.
	Create(ctx context.Context, e Enrollment) (Enrollment, error)
	Save(ctx context.Context, e Enrollment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Enrollment, error)
	GetByWorkshopAndUser(ctx context.Context, workshopID, userID string) (Enrollment, error)
	// ListByWorkshop returns the workshop's enrollments ordered by Seq.
	ListByWorkshop(ctx context.Context, workshopID string) ([]Enrollment, error)
	// DeleteWorkshop removes the workshop and, with it, all its enrollments.
	DeleteWorkshop(ctx context.Context, workshopID string) error
}

// NotificationEmitter defines the contract for emitting domain notifications.
type NotificationEmitter interface {
	Publish(ctx context.Context, n Notification) error
}

// TransitionValidator checks pairing state changes against Transitions.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
	Can(current Status, event Event) bool
}
