// Package analyzers defines the analyzer interface and the priority
// chain that turns several unreliable image-classification backends
// into one accept/reject decision.
package analyzers

import (
	"context"
	"time"

	wastebot "github.com/greenloop/wastebot"
)

// Analyzer is one concrete image-classification strategy. Implementations
// are swappable: a local byte-size heuristic, a remote multi-label
// classifier, or a remote vision-language model all satisfy the same
// contract and are registered into a Chain by priority.
type Analyzer interface {
	// Name returns a short analyzer label ("bytesize", "tencent", …).
	Name() string

	// Priority is the invocation order within the chain; lower runs first.
	Priority() int

	// MinConfidence is the threshold (0-100) below which an accepting
	// verdict from this analyzer is not taken as the chain's winner.
	MinConfidence() int

	// Analyze classifies one image. A returned error means the backend
	// was unavailable (timeout, transport, malformed response); the chain
	// records it and moves on, it never aborts.
	Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error)
}

// ServiceConfig is the base configuration for remote analyzers backed
// by cloud classification services.
type ServiceConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	Region          string
	Endpoint        string
	Timeout         time.Duration
}
