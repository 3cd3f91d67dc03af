package river

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/dancepair/internal/adapter/mail"
	"github.com/neomorfeo/dancepair/internal/domain"
)

// Renderer builds the email for a notification.
type Renderer interface {
	Render(n domain.Notification) (mail.Message, error)
}

// NotificationWorker delivers notification jobs from the River queue.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationJobArgs]

	renderer Renderer
	sender   mail.Sender
	logger   *slog.Logger
}

// NewNotificationWorker creates a worker that renders with renderer and
// delivers through sender.
func NewNotificationWorker(renderer Renderer, sender mail.Sender, logger *slog.Logger) *NotificationWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationWorker{renderer: renderer, sender: sender, logger: logger}
}

// Work delivers a single notification. A job that cannot be decoded or
// rendered is cancelled since retrying cannot fix it; send failures are
// returned so River retries them.
func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationJobArgs]) error {
	logger := w.logger.With(
		"kind", job.Args.Event,
		"workshop_id", job.Args.Workshop.ID,
		"recipient_id", job.Args.Recipient.ID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	n, err := job.Args.Notification()
	if err != nil {
		logger.ErrorContext(ctx, "decoding notification", "error", err)
		return river.JobCancel(err)
	}

	msg, err := w.renderer.Render(n)
	if err != nil {
		logger.ErrorContext(ctx, "rendering notification", "error", err)
		return river.JobCancel(err)
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		logger.WarnContext(ctx, "delivering notification", "error", err)
		return fmt.Errorf("delivering %s to %s: %w", job.Args.Event, job.Args.Recipient.ID, err)
	}

	logger.InfoContext(ctx, "notification delivered")
	return nil
}
