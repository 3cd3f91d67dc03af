package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/dancepair/internal/domain"
)

// pending is a notification recorded inside a transaction and sent after
// it commits. Users are referenced by id and resolved at dispatch time.
type pending struct {
	kind      domain.NotificationKind
	recipient string
	partner   string
	former    string
	changes   []domain.WorkshopChange
}

// notifier turns pending notifications into domain.Notification values and
// hands them to the emitter. Failures are logged per notification and never
// reach the caller: the committed pairing is the source of truth.
type notifier struct {
	users   domain.UserDirectory
	emitter domain.NotificationEmitter
	logger  *slog.Logger
}

func newNotifier(users domain.UserDirectory, emitter domain.NotificationEmitter, logger *slog.Logger) *notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &notifier{users: users, emitter: emitter, logger: logger}
}

// dispatch publishes every pending notification. It returns how many were
// handed to the emitter.
func (n *notifier) dispatch(ctx context.Context, workshop domain.Workshop, notes []pending) int {
	// The caller's request may end right after the commit.
	ctx = context.WithoutCancel(ctx)

	sent := 0
	for _, p := range notes {
		note, err := n.build(ctx, workshop, p)
		if err != nil {
			n.logger.WarnContext(ctx, "resolving notification users",
				"kind", p.kind,
				"workshop_id", workshop.ID,
				"recipient_id", p.recipient,
				"error", err,
			)
			continue
		}

		if err := n.emitter.Publish(ctx, note); err != nil {
			n.logger.ErrorContext(ctx, "publishing notification",
				"kind", p.kind,
				"workshop_id", workshop.ID,
				"recipient_id", p.recipient,
				"error", err,
			)
			continue
		}
		sent++
	}
	return sent
}

func (n *notifier) build(ctx context.Context, workshop domain.Workshop, p pending) (domain.Notification, error) {
	recipient, err := n.users.GetByID(ctx, p.recipient)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("recipient %s: %w", p.recipient, err)
	}

	note := domain.Notification{
		Kind:       p.kind,
		Recipient:  recipient,
		Workshop:   workshop,
		Changes:    p.changes,
		OccurredAt: time.Now().UTC(),
	}

	if p.partner != "" {
		partner, err := n.users.GetByID(ctx, p.partner)
		if err != nil {
			return domain.Notification{}, fmt.Errorf("partner %s: %w", p.partner, err)
		}
		note.Partner = &partner
	}
	if p.former != "" {
		former, err := n.users.GetByID(ctx, p.former)
		if err != nil {
			return domain.Notification{}, fmt.Errorf("former partner %s: %w", p.former, err)
		}
		note.FormerPartner = &former
	}

	return note, nil
}
