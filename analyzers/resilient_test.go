package analyzers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/utils"
)

type flakyAnalyzer struct {
	failures int
	calls    int
}

func (f *flakyAnalyzer) Name() string       { return "flaky" }
func (f *flakyAnalyzer) Priority() int      { return 1 }
func (f *flakyAnalyzer) MinConfidence() int { return 70 }

func (f *flakyAnalyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	f.calls++
	if f.calls <= f.failures {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError("flaky", "throttled", "rate limited").
			WithCategory(wastebot.ErrorCategoryRateLimit)
	}
	return wastebot.Verdict{Analyzer: "flaky", Accepted: true, Confidence: 88, Category: wastebot.CategoryGeneral}, nil
}

func fastRetryer() *utils.Retryer {
	cfg := utils.DefaultRetryConfig()
	cfg.MaxRetries = 2
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	return utils.NewRetryer(cfg)
}

func TestResilientRetriesTransientFailure(t *testing.T) {
	inner := &flakyAnalyzer{failures: 2}
	r := WrapWithResilience(inner, WithRetryer(fastRetryer()))

	verdict, err := r.Analyze(context.Background(), testImage(64))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !verdict.Accepted || verdict.Confidence != 88 {
		t.Errorf("verdict = %+v, want accepted with confidence 88", verdict)
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3", inner.calls)
	}
}

func TestResilientGivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyAnalyzer{failures: 10}
	r := WrapWithResilience(inner, WithRetryer(fastRetryer()))

	_, err := r.Analyze(context.Background(), testImage(64))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3 (initial + 2 retries)", inner.calls)
	}
}

type stubbornAnalyzer struct{ calls int }

func (s *stubbornAnalyzer) Name() string       { return "stubborn" }
func (s *stubbornAnalyzer) Priority() int      { return 1 }
func (s *stubbornAnalyzer) MinConfidence() int { return 70 }

func (s *stubbornAnalyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	s.calls++
	return wastebot.Verdict{}, wastebot.NewAnalyzerError("stubborn", "invalid_key", "bad credentials").
		WithCategory(wastebot.ErrorCategoryAuth)
}

func TestResilientNonRetryableFailsFast(t *testing.T) {
	inner := &stubbornAnalyzer{}
	r := WrapWithResilience(inner, WithRetryer(fastRetryer()))

	_, err := r.Analyze(context.Background(), testImage(64))
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 for non-retryable failure", inner.calls)
	}
}

func TestResilientPreservesIdentity(t *testing.T) {
	inner := &flakyAnalyzer{}
	r := WrapWithResilience(inner)

	if r.Name() != "flaky" || r.Priority() != 1 || r.MinConfidence() != 70 {
		t.Errorf("wrapper identity = (%s, %d, %d), want inner's", r.Name(), r.Priority(), r.MinConfidence())
	}
}

type collectLogger struct {
	mu   sync.Mutex
	logs []CallLog
}

func (c *collectLogger) LogCall(l CallLog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, l)
}

func TestResilientLogsCalls(t *testing.T) {
	logger := &collectLogger{}
	inner := &flakyAnalyzer{}
	r := WrapWithResilience(inner, WithLogger(logger))

	if _, err := r.Analyze(context.Background(), testImage(64)); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(logger.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logger.logs))
	}
	got := logger.logs[0]
	if got.Analyzer != "flaky" || !got.Accepted || got.Err != nil {
		t.Errorf("log = %+v, want successful flaky call", got)
	}

	failInner := &stubbornAnalyzer{}
	rf := WrapWithResilience(failInner, WithLogger(logger), WithRetryer(fastRetryer()))
	if _, err := rf.Analyze(context.Background(), testImage(64)); err == nil {
		t.Fatal("expected error")
	}
	got = logger.logs[1]
	if got.Err == nil || got.Reason != wastebot.ReasonAnalyzerUnavailable {
		t.Errorf("failure log = %+v, want error with unavailable reason", got)
	}
}

func TestResilientWrapsArbitraryErrors(t *testing.T) {
	inner := &fakeAnalyzer{name: "raw", err: errors.New("connection refused")}
	r := WrapWithResilience(inner, WithRetryer(fastRetryer()))

	_, err := r.Analyze(context.Background(), testImage(64))
	if err == nil {
		t.Fatal("expected error")
	}
}
