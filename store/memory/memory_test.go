package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	wastebot "github.com/greenloop/wastebot"
)

func samplePending(sessionID, hash string, createdAt time.Time) wastebot.PendingSubmission {
	return wastebot.PendingSubmission{
		SessionID:  sessionID,
		ImageHash:  hash,
		StorageRef: "images/" + hash,
		Category:   wastebot.CategoryGeneral,
		CreatedAt:  createdAt,
	}
}

func TestPutPendingOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	if err := s.PutPending(ctx, samplePending("sess-1", "hash-a", now)); err != nil {
		t.Fatalf("PutPending() error = %v", err)
	}
	if err := s.PutPending(ctx, samplePending("sess-1", "hash-b", now)); err != nil {
		t.Fatalf("PutPending() error = %v", err)
	}

	got, err := s.GetPending(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetPending() error = %v", err)
	}
	if got.ImageHash != "hash-b" {
		t.Errorf("image hash = %q, want the overwriting submission", got.ImageHash)
	}
	if s.PendingCount() != 1 {
		t.Errorf("pending count = %d, want 1", s.PendingCount())
	}
}

func TestTakePendingConsumesExactlyOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.PutPending(ctx, samplePending("sess-1", "hash-a", time.Now())); err != nil {
		t.Fatalf("PutPending() error = %v", err)
	}

	first, err := s.TakePending(ctx, "sess-1")
	if err != nil {
		t.Fatalf("TakePending() error = %v", err)
	}
	if first.ImageHash != "hash-a" {
		t.Errorf("image hash = %q, want hash-a", first.ImageHash)
	}

	_, err = s.TakePending(ctx, "sess-1")
	if !errors.Is(err, wastebot.ErrNoPendingSubmission) {
		t.Errorf("second TakePending() error = %v, want ErrNoPendingSubmission", err)
	}
}

func TestTakePendingConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.PutPending(ctx, samplePending("sess-1", "hash-a", time.Now())); err != nil {
		t.Fatalf("PutPending() error = %v", err)
	}

	const goroutines = 16
	wins := make(chan struct{}, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TakePending(ctx, "sess-1"); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for range wins {
		winners++
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}

func TestDeleteExpiredBefore(t *testing.T) {
	s := New()
	ctx := context.Background()
	t0 := time.Now()

	s.PutPending(ctx, samplePending("old-1", "h1", t0.Add(-25*time.Hour)))
	s.PutPending(ctx, samplePending("old-2", "h2", t0.Add(-30*time.Hour)))
	s.PutPending(ctx, samplePending("fresh", "h3", t0))

	purged, err := s.DeleteExpiredBefore(ctx, t0.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpiredBefore() error = %v", err)
	}
	if purged != 2 {
		t.Errorf("purged = %d, want 2", purged)
	}
	if _, err := s.GetPending(ctx, "fresh"); err != nil {
		t.Errorf("fresh submission should survive, got %v", err)
	}
	if _, err := s.GetPending(ctx, "old-1"); !errors.Is(err, wastebot.ErrNoPendingSubmission) {
		t.Errorf("expired submission should be gone, got %v", err)
	}
}

func TestCreateReportDuplicateHash(t *testing.T) {
	s := New()
	ctx := context.Background()

	report := wastebot.Report{ID: "rep-1", SessionID: "sess-1", ImageHash: "shared", CreatedAt: time.Now()}
	if err := s.CreateReport(ctx, report); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}

	dup := wastebot.Report{ID: "rep-2", SessionID: "sess-2", ImageHash: "shared", CreatedAt: time.Now()}
	if err := s.CreateReport(ctx, dup); !errors.Is(err, wastebot.ErrDuplicateImage) {
		t.Errorf("CreateReport() error = %v, want ErrDuplicateImage", err)
	}

	ok, err := s.HasImageHash(ctx, "shared")
	if err != nil || !ok {
		t.Errorf("HasImageHash() = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestRewardLedgerAndBalance(t *testing.T) {
	s := New()
	ctx := context.Background()

	entries := []wastebot.RewardEntry{
		{ID: "rw-1", SessionID: "sess-1", ReportID: "rep-1", Points: 10, Reason: "report_created"},
		{ID: "rw-2", SessionID: "sess-1", ReportID: "rep-2", Points: 25, Reason: "report_validated"},
		{ID: "rw-3", SessionID: "sess-2", ReportID: "rep-3", Points: 10, Reason: "report_created"},
	}
	for _, e := range entries {
		if err := s.GrantReward(ctx, e); err != nil {
			t.Fatalf("GrantReward() error = %v", err)
		}
	}

	balance, err := s.Balance(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if balance != 35 {
		t.Errorf("balance = %d, want 35", balance)
	}

	if got := len(s.Ledger("sess-2")); got != 1 {
		t.Errorf("sess-2 ledger entries = %d, want 1", got)
	}
}

func TestGetReportNotFound(t *testing.T) {
	s := New()
	_, err := s.GetReport(context.Background(), "missing")
	if !errors.Is(err, wastebot.ErrReportNotFound) {
		t.Errorf("GetReport() error = %v, want ErrReportNotFound", err)
	}
}
