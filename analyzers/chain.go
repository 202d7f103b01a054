package analyzers

import (
	"context"
	"sort"
	"time"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/metrics"
)

// DefaultPolicy decides the chain's outcome when every analyzer has been
// exhausted without a confident acceptance.
type DefaultPolicy string

const (
	// DefaultReject is the conservative policy: no analyzer found
	// convincing evidence of reportable waste, so the photo is rejected.
	DefaultReject DefaultPolicy = "reject"

	// DefaultAccept is the best-effort policy: the photo is accepted with
	// a zero-confidence manual_review verdict for a human to look at.
	DefaultAccept DefaultPolicy = "accept_for_review"
)

// ChainConfig configures the analyzer chain. The exhaustion default is an
// explicit parameter here, never a per-analyzer accident.
type ChainConfig struct {
	// Default is the policy applied on exhaustion or overall deadline.
	Default DefaultPolicy

	// MinImageBytes / MaxImageBytes bound accepted photo sizes. Images
	// outside the bounds are terminal rejections; no analyzer runs.
	MinImageBytes int
	MaxImageBytes int

	// PerCallTimeout bounds each analyzer invocation.
	PerCallTimeout time.Duration

	// Deadline bounds the whole chain invocation. Zero means no
	// chain-wide deadline beyond the caller's context.
	Deadline time.Duration
}

// DefaultChainConfig returns the conservative defaults.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		Default:        DefaultReject,
		MinImageBytes:  wastebot.DefaultMinImageBytes,
		MaxImageBytes:  wastebot.DefaultMaxImageBytes,
		PerCallTimeout: wastebot.DefaultAnalyzerTimeout,
		Deadline:       wastebot.DefaultChainDeadline,
	}
}

// Chain invokes analyzers in priority order, short-circuits on the first
// confident acceptance, absorbs individual analyzer failures, and applies
// the configured default when nothing was decisive.
type Chain struct {
	analyzers []Analyzer
	config    ChainConfig
}

// NewChain creates a chain. Analyzers are sorted by ascending priority;
// registration order breaks ties.
func NewChain(cfg ChainConfig, analyzers ...Analyzer) *Chain {
	if cfg.PerCallTimeout == 0 {
		cfg.PerCallTimeout = wastebot.DefaultAnalyzerTimeout
	}
	if cfg.MinImageBytes == 0 {
		cfg.MinImageBytes = wastebot.DefaultMinImageBytes
	}
	if cfg.MaxImageBytes == 0 {
		cfg.MaxImageBytes = wastebot.DefaultMaxImageBytes
	}
	if cfg.Default == "" {
		cfg.Default = DefaultReject
	}

	sorted := make([]Analyzer, len(analyzers))
	copy(sorted, analyzers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	return &Chain{analyzers: sorted, config: cfg}
}

// Analyzers returns the chain's analyzers in invocation order.
func (c *Chain) Analyzers() []Analyzer {
	return c.analyzers
}

// Classify runs the chain for one image.
//
// Returned errors are limited to the terminal preconditions (ErrEmptyImage,
// ErrImageTooSmall, ErrImageTooLarge, ErrNoAnalyzers). Analyzer failures
// never surface as errors: they become analyzer_unavailable verdicts in
// the attempt history and the chain continues.
func (c *Chain) Classify(ctx context.Context, img wastebot.ImageAsset) (wastebot.ChainResult, error) {
	start := time.Now()

	if img.Size == 0 || len(img.Bytes) == 0 {
		return wastebot.ChainResult{}, wastebot.ErrEmptyImage
	}
	if img.Size < c.config.MinImageBytes {
		metrics.ChainOutcomeTotal.WithLabelValues("too_small").Inc()
		return wastebot.ChainResult{}, wastebot.ErrImageTooSmall
	}
	if img.Size > c.config.MaxImageBytes {
		metrics.ChainOutcomeTotal.WithLabelValues("too_large").Inc()
		return wastebot.ChainResult{}, wastebot.ErrImageTooLarge
	}
	if len(c.analyzers) == 0 {
		return wastebot.ChainResult{}, wastebot.ErrNoAnalyzers
	}

	if c.config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Deadline)
		defer cancel()
	}

	attempts := make([]wastebot.Verdict, 0, len(c.analyzers))

	for _, a := range c.analyzers {
		if ctx.Err() != nil {
			// Overall deadline exceeded: stop calling analyzers and fall
			// through to the configured default.
			break
		}

		verdict, err := c.invoke(ctx, a, img)
		if err != nil {
			metrics.AnalyzerCallsTotal.WithLabelValues(a.Name(), "unavailable").Inc()
			attempts = append(attempts, unavailableVerdict(a.Name()))
			continue
		}

		if verdict.Accepted && verdict.Confidence >= a.MinConfidence() {
			metrics.AnalyzerCallsTotal.WithLabelValues(a.Name(), "accepted").Inc()
			metrics.ChainOutcomeTotal.WithLabelValues("accepted").Inc()
			metrics.ChainDurationSeconds.Observe(time.Since(start).Seconds())
			attempts = append(attempts, verdict)
			winner := verdict
			return wastebot.ChainResult{
				Accepted: true,
				Winner:   &winner,
				Attempts: attempts,
			}, nil
		}

		if verdict.Accepted {
			// The analyzer's own opinion was positive but below its
			// declared threshold; the chain forces the rejection.
			verdict.Accepted = false
			if verdict.Reason == "" {
				verdict.Reason = wastebot.ReasonBelowMinConfidence
			}
		}
		metrics.AnalyzerCallsTotal.WithLabelValues(a.Name(), "rejected").Inc()
		attempts = append(attempts, verdict)
	}

	metrics.ChainDurationSeconds.Observe(time.Since(start).Seconds())

	if c.config.Default == DefaultAccept {
		metrics.ChainOutcomeTotal.WithLabelValues("accepted_for_review").Inc()
		winner := wastebot.Verdict{
			Analyzer:   "chain",
			Accepted:   true,
			Confidence: 0,
			Category:   wastebot.CategoryUnknown,
			Reason:     wastebot.ReasonManualReview,
			AnalyzedAt: time.Now(),
		}
		return wastebot.ChainResult{
			Accepted:       true,
			Winner:         &winner,
			Attempts:       attempts,
			DefaultApplied: true,
		}, nil
	}

	metrics.ChainOutcomeTotal.WithLabelValues("rejected").Inc()
	return wastebot.ChainResult{
		Accepted:       false,
		Attempts:       attempts,
		DefaultApplied: true,
	}, nil
}

func (c *Chain) invoke(ctx context.Context, a Analyzer, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.PerCallTimeout)
	defer cancel()

	verdict, err := a.Analyze(callCtx, img)
	if err != nil {
		return wastebot.Verdict{}, err
	}

	if verdict.Analyzer == "" {
		verdict.Analyzer = a.Name()
	}
	if verdict.AnalyzedAt.IsZero() {
		verdict.AnalyzedAt = time.Now()
	}
	if verdict.Category == "" {
		verdict.Category = wastebot.CategoryUnknown
	}
	return verdict, nil
}

func unavailableVerdict(analyzer string) wastebot.Verdict {
	return wastebot.Verdict{
		Analyzer:   analyzer,
		Accepted:   false,
		Confidence: 0,
		Category:   wastebot.CategoryUnknown,
		Reason:     wastebot.ReasonAnalyzerUnavailable,
		AnalyzedAt: time.Now(),
	}
}
