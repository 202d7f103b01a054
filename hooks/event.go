package hooks

import (
	"time"

	wastebot "github.com/greenloop/wastebot"
)

// ReportCreatedEvent is emitted when a submission becomes a persisted
// report.
type ReportCreatedEvent struct {
	// Persisted report; Category carries the chain's classification
	Report wastebot.Report `json:"report"`

	// Points granted for the report (0 when the grant is still retrying)
	Points int `json:"points"`

	// Tracing
	Timestamp time.Time `json:"timestamp"`
}

// PhotoRejectedEvent is emitted when a submitted photo fails the chain.
type PhotoRejectedEvent struct {
	SessionID string `json:"session_id"`
	ImageHash string `json:"image_hash"`

	// Attempt history from the chain, including unavailable analyzers
	Attempts []wastebot.Verdict `json:"attempts,omitempty"`

	// Terminal reason (no_waste_detected, duplicate, size bounds)
	Reason string `json:"reason"`

	// Tracing
	Timestamp time.Time `json:"timestamp"`
}

// RewardGrantedEvent is emitted when a ledger write succeeds, including
// deferred grants that succeeded on retry.
type RewardGrantedEvent struct {
	Entry wastebot.RewardEntry `json:"entry"`

	// Attempt number that finally succeeded (1 = first try)
	Attempt int `json:"attempt"`

	// Tracing
	Timestamp time.Time `json:"timestamp"`
}

// SubmissionsPurgedEvent is emitted after a sweeper pass that removed
// expired pending submissions.
type SubmissionsPurgedEvent struct {
	// Number of pending submissions removed
	Purged int `json:"purged"`

	// Cutoff used for the purge
	Cutoff time.Time `json:"cutoff"`

	// Tracing
	Timestamp time.Time `json:"timestamp"`
}
