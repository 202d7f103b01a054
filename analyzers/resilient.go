package analyzers

import (
	"context"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/utils"
)

// Resilient wraps an Analyzer with retry-on-transient-failure and call
// logging. The wrapped analyzer keeps its name, priority, and confidence
// threshold.
type Resilient struct {
	inner   Analyzer
	retryer *utils.Retryer
	logger  APILogger
}

// ResilientOption configures a Resilient wrapper.
type ResilientOption func(*Resilient)

// WithRetryer overrides the default retry policy.
func WithRetryer(r *utils.Retryer) ResilientOption {
	return func(res *Resilient) {
		res.retryer = r
	}
}

// WithLogger sets the call logger.
func WithLogger(l APILogger) ResilientOption {
	return func(res *Resilient) {
		res.logger = l
	}
}

// WrapWithResilience wraps an analyzer. Without options it retries
// transient failures with the default backoff and discards call logs.
func WrapWithResilience(inner Analyzer, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		inner:   inner,
		retryer: utils.NewRetryer(utils.DefaultRetryConfig()),
		logger:  NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resilient) Name() string       { return r.inner.Name() }
func (r *Resilient) Priority() int      { return r.inner.Priority() }
func (r *Resilient) MinConfidence() int { return r.inner.MinConfidence() }

// Analyze calls the wrapped analyzer, retrying failures the error
// classifier marks retryable. Non-retryable failures surface immediately.
func (r *Resilient) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	timer := StartCall(r.logger, r.inner.Name(), utils.TruncateHash(img.Hash, 12))

	verdict, err := utils.DoWithResult(ctx, r.retryer, func() (wastebot.Verdict, error) {
		return r.inner.Analyze(ctx, img)
	})
	if err != nil {
		timer.Done(false, wastebot.ReasonAnalyzerUnavailable, err)
		return wastebot.Verdict{}, err
	}

	timer.Done(verdict.Accepted, verdict.Reason, nil)
	return verdict, nil
}
