// Package bytesize implements a local, zero-network analyzer. It never
// accepts an image on its own; it exists to reject obvious junk (tiny
// thumbnails, non-photo payloads) before any paid API call, and to give
// deployments without cloud credentials a working chain.
package bytesize

import (
	"context"

	wastebot "github.com/greenloop/wastebot"
)

const (
	// Photos under this size are almost never a usable street-level shot.
	usablePhotoBytes = 64 * 1024
)

// Analyzer is the local byte-heuristic analyzer.
type Analyzer struct {
	priority int
}

// New creates the analyzer at the given chain priority.
func New(priority int) *Analyzer {
	return &Analyzer{priority: priority}
}

func (a *Analyzer) Name() string { return "bytesize" }

func (a *Analyzer) Priority() int { return a.priority }

// MinConfidence is above any confidence this analyzer emits, so the
// chain never short-circuits on it.
func (a *Analyzer) MinConfidence() int { return 101 }

// Analyze scores plausibility from payload shape alone. A recognizable
// photo container of usable size scores 50; anything else scores low.
// The verdict is always below MinConfidence, so the chain records it and
// moves on to a real classifier.
func (a *Analyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return wastebot.Verdict{}, err
	}

	if !looksLikePhoto(img.Bytes) {
		return wastebot.Verdict{
			Analyzer:   a.Name(),
			Accepted:   false,
			Confidence: 0,
			Category:   wastebot.CategoryUnknown,
			Reason:     "not_a_photo",
		}, nil
	}

	confidence := 25
	if img.Size >= usablePhotoBytes {
		confidence = 50
	}
	return wastebot.Verdict{
		Analyzer:   a.Name(),
		Accepted:   true,
		Confidence: confidence,
		Category:   wastebot.CategoryUnknown,
		Reason:     "local_heuristic_only",
	}, nil
}

// looksLikePhoto checks for the JPEG, PNG, and WebP magic bytes the chat
// transports actually deliver.
func looksLikePhoto(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// JPEG
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return true
	}
	// PNG
	if data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
		return true
	}
	// WebP: RIFF....WEBP
	if string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return true
	}
	return false
}
