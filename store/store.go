// Package store provides the data storage interfaces for the submission
// pipeline.
package store

import (
	"context"
	"time"

	wastebot "github.com/greenloop/wastebot"
)

// PendingStore holds at most one pending submission per session between
// the photo step and the location step.
type PendingStore interface {
	// PutPending stores a pending submission for its session, replacing
	// any existing one atomically.
	PutPending(ctx context.Context, sub wastebot.PendingSubmission) error

	// GetPending reads the pending submission without consuming it.
	// Returns wastebot.ErrNoPendingSubmission when there is none.
	GetPending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error)

	// TakePending atomically reads and deletes the pending submission so
	// two concurrent location deliveries cannot both consume it. Returns
	// wastebot.ErrNoPendingSubmission when there is none.
	TakePending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error)

	// DeletePending removes a session's pending submission if present.
	DeletePending(ctx context.Context, sessionID string) error

	// DeleteExpiredBefore removes all pending submissions created before
	// the cutoff and reports how many were removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Store is the full persistence surface: pending submissions plus
// finalized reports and the reward ledger.
type Store interface {
	PendingStore

	// CreateReport persists a finalized report. Returns
	// wastebot.ErrDuplicateImage when the image hash already exists.
	CreateReport(ctx context.Context, report wastebot.Report) error

	// GetReport fetches a report by ID. Returns wastebot.ErrReportNotFound
	// when absent.
	GetReport(ctx context.Context, reportID string) (*wastebot.Report, error)

	// HasImageHash reports whether any report already carries this hash.
	HasImageHash(ctx context.Context, hash string) (bool, error)

	// GrantReward appends an entry to the reward ledger.
	GrantReward(ctx context.Context, entry wastebot.RewardEntry) error

	// Balance sums the reward points granted to a session's user.
	Balance(ctx context.Context, sessionID string) (int, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
