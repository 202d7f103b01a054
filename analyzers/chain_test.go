package analyzers

import (
	"context"
	"errors"
	"testing"
	"time"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/utils"
)

type fakeAnalyzer struct {
	name          string
	priority      int
	minConfidence int
	verdict       wastebot.Verdict
	err           error
	delay         time.Duration
	calls         int
}

func (f *fakeAnalyzer) Name() string       { return f.name }
func (f *fakeAnalyzer) Priority() int      { return f.priority }
func (f *fakeAnalyzer) MinConfidence() int { return f.minConfidence }

func (f *fakeAnalyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return wastebot.Verdict{}, ctx.Err()
		}
	}
	if f.err != nil {
		return wastebot.Verdict{}, f.err
	}
	v := f.verdict
	v.Analyzer = f.name
	return v, nil
}

func testImage(size int) wastebot.ImageAsset {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	return wastebot.ImageAsset{Bytes: data, Hash: utils.HashImage(data), Size: size}
}

func acceptingVerdict(confidence int) wastebot.Verdict {
	return wastebot.Verdict{
		Accepted:   true,
		Confidence: confidence,
		Category:   wastebot.CategoryRecyclable,
	}
}

func TestChainSizeBounds(t *testing.T) {
	a := &fakeAnalyzer{name: "a", minConfidence: 70, verdict: acceptingVerdict(90)}
	chain := NewChain(ChainConfig{MinImageBytes: 1024, MaxImageBytes: 4096}, a)

	tests := []struct {
		name    string
		img     wastebot.ImageAsset
		wantErr error
	}{
		{"empty", wastebot.ImageAsset{}, wastebot.ErrEmptyImage},
		{"too small", testImage(512), wastebot.ErrImageTooSmall},
		{"too large", testImage(8192), wastebot.ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chain.Classify(context.Background(), tt.img)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Classify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if a.calls != 0 {
		t.Errorf("analyzer called %d times for out-of-bounds images, want 0", a.calls)
	}
}

func TestChainNoAnalyzers(t *testing.T) {
	chain := NewChain(ChainConfig{MinImageBytes: 1, MaxImageBytes: 1 << 20})
	_, err := chain.Classify(context.Background(), testImage(1024))
	if !errors.Is(err, wastebot.ErrNoAnalyzers) {
		t.Errorf("Classify() error = %v, want ErrNoAnalyzers", err)
	}
}

func TestChainShortCircuit(t *testing.T) {
	first := &fakeAnalyzer{name: "first", priority: 1, minConfidence: 70, verdict: acceptingVerdict(85)}
	second := &fakeAnalyzer{name: "second", priority: 2, minConfidence: 70, verdict: acceptingVerdict(95)}

	chain := NewChain(ChainConfig{MinImageBytes: 1, MaxImageBytes: 1 << 20}, second, first)

	result, err := chain.Classify(context.Background(), testImage(1024))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !result.Accepted {
		t.Fatal("expected accepted result")
	}
	if result.Winner == nil || result.Winner.Analyzer != "first" {
		t.Errorf("winner = %+v, want analyzer %q", result.Winner, "first")
	}
	if second.calls != 0 {
		t.Errorf("lower-priority analyzer called %d times after short-circuit, want 0", second.calls)
	}
	if result.DefaultApplied {
		t.Error("DefaultApplied should be false for a confident acceptance")
	}
}

func TestChainPriorityOrder(t *testing.T) {
	var order []string
	mk := func(name string, prio int) *recordingAnalyzer {
		return &recordingAnalyzer{name: name, priority: prio, order: &order}
	}
	chain := NewChain(ChainConfig{MinImageBytes: 1, MaxImageBytes: 1 << 20}, mk("c", 30), mk("a", 10), mk("b", 20))

	if _, err := chain.Classify(context.Background(), testImage(64)); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("invocation order = %v, want %v", order, want)
		}
	}
}

type recordingAnalyzer struct {
	name     string
	priority int
	order    *[]string
}

func (r *recordingAnalyzer) Name() string       { return r.name }
func (r *recordingAnalyzer) Priority() int      { return r.priority }
func (r *recordingAnalyzer) MinConfidence() int { return 70 }

func (r *recordingAnalyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	*r.order = append(*r.order, r.name)
	return wastebot.Verdict{Accepted: false, Reason: wastebot.ReasonNoWasteDetected}, nil
}

func TestChainAnalyzerFailureContinues(t *testing.T) {
	failing := &fakeAnalyzer{name: "failing", priority: 1, minConfidence: 70, err: errors.New("upstream down")}
	working := &fakeAnalyzer{name: "working", priority: 2, minConfidence: 70, verdict: acceptingVerdict(80)}

	chain := NewChain(ChainConfig{MinImageBytes: 1, MaxImageBytes: 1 << 20}, failing, working)

	result, err := chain.Classify(context.Background(), testImage(1024))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !result.Accepted {
		t.Fatal("expected acceptance from the second analyzer")
	}
	if result.Winner.Analyzer != "working" {
		t.Errorf("winner = %q, want %q", result.Winner.Analyzer, "working")
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(result.Attempts))
	}
	if result.Attempts[0].Reason != wastebot.ReasonAnalyzerUnavailable {
		t.Errorf("first attempt reason = %q, want %q", result.Attempts[0].Reason, wastebot.ReasonAnalyzerUnavailable)
	}
}

func TestChainBelowMinConfidence(t *testing.T) {
	weak := &fakeAnalyzer{name: "weak", priority: 1, minConfidence: 70, verdict: acceptingVerdict(50)}

	chain := NewChain(ChainConfig{MinImageBytes: 1, MaxImageBytes: 1 << 20, Default: DefaultReject}, weak)

	result, err := chain.Classify(context.Background(), testImage(1024))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection for below-threshold confidence")
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(result.Attempts))
	}
	if result.Attempts[0].Reason != wastebot.ReasonBelowMinConfidence {
		t.Errorf("attempt reason = %q, want %q", result.Attempts[0].Reason, wastebot.ReasonBelowMinConfidence)
	}
	if result.Attempts[0].Accepted {
		t.Error("attempt should be recorded as rejected")
	}
}

func TestChainExhaustionDefaultReject(t *testing.T) {
	a := &fakeAnalyzer{name: "a", priority: 1, minConfidence: 70, err: errors.New("timeout")}
	b := &fakeAnalyzer{name: "b", priority: 2, minConfidence: 70, err: errors.New("timeout")}

	chain := NewChain(ChainConfig{MinImageBytes: 1, MaxImageBytes: 1 << 20, Default: DefaultReject}, a, b)

	result, err := chain.Classify(context.Background(), testImage(1024))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Accepted {
		t.Error("expected rejection under the reject default")
	}
	if !result.DefaultApplied {
		t.Error("DefaultApplied should be true on exhaustion")
	}
	if result.Winner != nil {
		t.Errorf("winner = %+v, want nil", result.Winner)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = (%d, %d), want both analyzers tried once", a.calls, b.calls)
	}
}

func TestChainExhaustionDefaultAccept(t *testing.T) {
	a := &fakeAnalyzer{name: "a", priority: 1, minConfidence: 70, err: errors.New("timeout")}

	chain := NewChain(ChainConfig{MinImageBytes: 1, MaxImageBytes: 1 << 20, Default: DefaultAccept}, a)

	result, err := chain.Classify(context.Background(), testImage(1024))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !result.Accepted {
		t.Fatal("expected acceptance under the accept-for-review default")
	}
	if !result.DefaultApplied {
		t.Error("DefaultApplied should be true")
	}
	if result.Winner == nil {
		t.Fatal("expected a synthetic winner")
	}
	if result.Winner.Reason != wastebot.ReasonManualReview {
		t.Errorf("winner reason = %q, want %q", result.Winner.Reason, wastebot.ReasonManualReview)
	}
	if result.Winner.Confidence != 0 {
		t.Errorf("winner confidence = %d, want 0", result.Winner.Confidence)
	}
}

func TestChainDeadlineStopsFurtherCalls(t *testing.T) {
	slow := &fakeAnalyzer{name: "slow", priority: 1, minConfidence: 70, delay: 200 * time.Millisecond, err: errors.New("slow")}
	never := &fakeAnalyzer{name: "never", priority: 2, minConfidence: 70, verdict: acceptingVerdict(99)}

	chain := NewChain(ChainConfig{
		MinImageBytes:  1,
		MaxImageBytes:  1 << 20,
		PerCallTimeout: time.Second,
		Deadline:       50 * time.Millisecond,
		Default:        DefaultReject,
	}, slow, never)

	result, err := chain.Classify(context.Background(), testImage(1024))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Accepted {
		t.Error("expected rejection after deadline exhaustion")
	}
	if !result.DefaultApplied {
		t.Error("DefaultApplied should be true after the deadline")
	}
	if never.calls != 0 {
		t.Errorf("analyzer past the deadline called %d times, want 0", never.calls)
	}
}
