// Package memory provides an in-memory store for tests and single-node
// deployments without a database.
package memory

import (
	"context"
	"sync"
	"time"

	wastebot "github.com/greenloop/wastebot"
)

// Store implements store.Store entirely in memory. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	pending map[string]wastebot.PendingSubmission
	reports map[string]wastebot.Report
	byHash  map[string]string // image hash -> report id
	ledger  []wastebot.RewardEntry
	closed  bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		pending: make(map[string]wastebot.PendingSubmission),
		reports: make(map[string]wastebot.Report),
		byHash:  make(map[string]string),
	}
}

// PutPending stores a session's pending submission, replacing any
// existing one.
func (s *Store) PutPending(ctx context.Context, sub wastebot.PendingSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sub.SessionID] = sub
	return nil
}

// GetPending reads a session's pending submission without consuming it.
func (s *Store) GetPending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.pending[sessionID]
	if !ok {
		return nil, wastebot.ErrNoPendingSubmission
	}
	copied := sub
	return &copied, nil
}

// TakePending atomically reads and deletes a session's pending submission.
func (s *Store) TakePending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.pending[sessionID]
	if !ok {
		return nil, wastebot.ErrNoPendingSubmission
	}
	delete(s.pending, sessionID)
	copied := sub
	return &copied, nil
}

// DeletePending removes a session's pending submission if present.
func (s *Store) DeletePending(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, sessionID)
	return nil
}

// DeleteExpiredBefore removes pending submissions created before the cutoff.
func (s *Store) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, sub := range s.pending {
		if sub.CreatedAt.Before(cutoff) {
			delete(s.pending, id)
			purged++
		}
	}
	return purged, nil
}

// CreateReport persists a finalized report, enforcing image hash
// uniqueness.
func (s *Store) CreateReport(ctx context.Context, report wastebot.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byHash[report.ImageHash]; exists {
		return wastebot.ErrDuplicateImage
	}
	s.reports[report.ID] = report
	s.byHash[report.ImageHash] = report.ID
	return nil
}

// GetReport fetches a report by ID.
func (s *Store) GetReport(ctx context.Context, reportID string) (*wastebot.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[reportID]
	if !ok {
		return nil, wastebot.ErrReportNotFound
	}
	copied := report
	return &copied, nil
}

// HasImageHash reports whether any report already carries this hash.
func (s *Store) HasImageHash(ctx context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byHash[hash]
	return ok, nil
}

// GrantReward appends an entry to the reward ledger.
func (s *Store) GrantReward(ctx context.Context, entry wastebot.RewardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, entry)
	return nil
}

// Balance sums the reward points granted to a session's user.
func (s *Store) Balance(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, entry := range s.ledger {
		if entry.SessionID == sessionID {
			total += entry.Points
		}
	}
	return total, nil
}

// Ledger returns a copy of the reward entries for a session, newest last.
func (s *Store) Ledger(sessionID string) []wastebot.RewardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []wastebot.RewardEntry
	for _, entry := range s.ledger {
		if entry.SessionID == sessionID {
			entries = append(entries, entry)
		}
	}
	return entries
}

// PendingCount returns the number of pending submissions.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Ping reports whether the store is open.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wastebot.ErrStoreNotConfigured
	}
	return nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
