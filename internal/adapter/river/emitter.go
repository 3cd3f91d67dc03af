package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// Compile-time check: Emitter implements domain.NotificationEmitter.
var _ domain.NotificationEmitter = (*Emitter)(nil)

// maxDeliveryAttempts bounds how often River retries a failed delivery.
const maxDeliveryAttempts = 8

// PersonArgs is the snapshot of a user profile carried by a job.
type PersonArgs struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Role    string `json:"role"`
}

// WorkshopArgs is the snapshot of a workshop carried by a job.
type WorkshopArgs struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Modality    string   `json:"modality,omitempty"`
	Instructors []string `json:"instructors,omitempty"`
	Date        string   `json:"date"`
	StartTime   string   `json:"start_time"`
	Location    string   `json:"location"`
}

// ChangeArgs is one workshop delta carried by a job.
type ChangeArgs struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// NotificationJobArgs carries everything needed to deliver a notification.
// River serializes this as JSON into its job queue table. It is a snapshot
// taken when the pairing change committed, so the worker never reads pairing
// tables and a retry delivers exactly what was decided.
type NotificationJobArgs struct {
	Event         string       `json:"kind"`
	Recipient     PersonArgs   `json:"recipient"`
	Partner       *PersonArgs  `json:"partner,omitempty"`
	FormerPartner *PersonArgs  `json:"former_partner,omitempty"`
	Workshop      WorkshopArgs `json:"workshop"`
	Changes       []ChangeArgs `json:"changes,omitempty"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationJobArgs) Kind() string { return "notification.deliver" }

// InsertOpts routes delivery jobs to NotificationQueue with a bounded retry
// budget.
func (NotificationJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: NotificationQueue, MaxAttempts: maxDeliveryAttempts}
}

// NewNotificationJobArgs snapshots n into job arguments.
func NewNotificationJobArgs(n domain.Notification) NotificationJobArgs {
	args := NotificationJobArgs{
		Event:         string(n.Kind),
		Recipient:     personArgs(n.Recipient),
		Partner:       optionalPersonArgs(n.Partner),
		FormerPartner: optionalPersonArgs(n.FormerPartner),
		Workshop: WorkshopArgs{
			ID:          n.Workshop.ID,
			Name:        n.Workshop.Name,
			Modality:    n.Workshop.Modality,
			Instructors: n.Workshop.Instructors,
			Date:        n.Workshop.Date.Format(domain.DateLayout),
			StartTime:   n.Workshop.StartTime,
			Location:    n.Workshop.Location,
		},
		OccurredAt: n.OccurredAt,
	}
	for _, c := range n.Changes {
		args.Changes = append(args.Changes, ChangeArgs{Field: string(c.Field), Value: c.Value})
	}
	return args
}

// Notification rebuilds the domain notification from the snapshot.
func (a NotificationJobArgs) Notification() (domain.Notification, error) {
	date, err := time.Parse(domain.DateLayout, a.Workshop.Date)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("parsing workshop date %q: %w", a.Workshop.Date, err)
	}

	n := domain.Notification{
		Kind:          domain.NotificationKind(a.Event),
		Recipient:     a.Recipient.profile(),
		Partner:       a.Partner.optionalProfile(),
		FormerPartner: a.FormerPartner.optionalProfile(),
		Workshop: domain.Workshop{
			ID:          a.Workshop.ID,
			Name:        a.Workshop.Name,
			Modality:    a.Workshop.Modality,
			Instructors: a.Workshop.Instructors,
			Date:        date,
			StartTime:   a.Workshop.StartTime,
			Location:    a.Workshop.Location,
		},
		OccurredAt: a.OccurredAt,
	}
	for _, c := range a.Changes {
		n.Changes = append(n.Changes, domain.WorkshopChange{Field: domain.ChangeField(c.Field), Value: c.Value})
	}
	return n, nil
}

func personArgs(u domain.UserProfile) PersonArgs {
	return PersonArgs{ID: u.ID, Name: u.Name, Surname: u.Surname, Email: u.Email, Phone: u.Phone, Role: string(u.Role)}
}

func optionalPersonArgs(u *domain.UserProfile) *PersonArgs {
	if u == nil {
		return nil
	}
	p := personArgs(*u)
	return &p
}

func (p PersonArgs) profile() domain.UserProfile {
	return domain.UserProfile{ID: p.ID, Name: p.Name, Surname: p.Surname, Email: p.Email, Phone: p.Phone, Role: domain.Role(p.Role)}
}

func (p *PersonArgs) optionalProfile() *domain.UserProfile {
	if p == nil {
		return nil
	}
	u := p.profile()
	return &u
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Emitter implements domain.NotificationEmitter by enqueuing River jobs.
type Emitter struct {
	client *Client
}

// NewEmitter creates an emitter backed by the given River client.
func NewEmitter(client *Client) *Emitter {
	return &Emitter{client: client}
}

// Publish enqueues a notification as an async delivery job in River.
func (e *Emitter) Publish(ctx context.Context, n domain.Notification) error {
	_, err := e.client.Insert(ctx, NewNotificationJobArgs(n), nil)
	if err != nil {
		return fmt.Errorf("enqueuing notification job: %w", err)
	}
	return nil
}
