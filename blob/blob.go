// Package blob stores accepted photo bytes and hands back the storage
// reference carried by pending submissions and reports.
package blob

import (
	"context"
	"time"

	wastebot "github.com/greenloop/wastebot"
)

// Storage persists photo payloads. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Put writes the image and returns its storage reference. The
	// reference is stable for the image hash, so re-storing the same
	// photo is idempotent.
	Put(ctx context.Context, img wastebot.ImageAsset) (ref string, err error)

	// Get reads the bytes behind a storage reference.
	Get(ctx context.Context, ref string) ([]byte, error)

	// Delete removes a stored photo. Used when a pending submission
	// expires without ever becoming a report.
	Delete(ctx context.Context, ref string) error

	// URL returns a time-limited link for human review of a stored photo.
	URL(ctx context.Context, ref string, expiry time.Duration) (string, error)
}

// RefForHash derives the canonical object name for an image hash. A
// two-character fan-out keeps any single listing prefix small.
func RefForHash(hash string) string {
	if len(hash) < 2 {
		return "images/" + hash
	}
	return "images/" + hash[:2] + "/" + hash
}
