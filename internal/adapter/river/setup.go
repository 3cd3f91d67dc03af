package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// NotificationQueue is the River queue delivery jobs are inserted into.
const NotificationQueue = "notifications"

const (
	defaultMaxWorkers = 2
	deliveryTimeout   = 30 * time.Second
)

// Setup migrates River's tables and builds a client that runs the
// notification worker on NotificationQueue. River's tables live beside the
// goose-managed ones in the same database. The caller starts the client and
// stops it on shutdown.
func Setup(ctx context.Context, db *sql.DB, worker *NotificationWorker, maxWorkers int, logger *slog.Logger) (*Client, error) {
	driver := riversqlite.New(db)

	migrator, err := rivermigrate.New(driver, &rivermigrate.Config{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, worker); err != nil {
		return nil, fmt.Errorf("registering notification worker: %w", err)
	}

	client, err := river.NewClient(driver, &river.Config{
		Logger:     logger,
		JobTimeout: deliveryTimeout,
		Queues: map[string]river.QueueConfig{
			NotificationQueue: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}
	return client, nil
}
