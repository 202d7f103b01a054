// Package session owns the submission state machine for one chat
// session: photo in, location in, report out.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/apex/log"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/analyzers"
	"github.com/greenloop/wastebot/blob"
	"github.com/greenloop/wastebot/hooks"
	"github.com/greenloop/wastebot/metrics"
	"github.com/greenloop/wastebot/store"
	"github.com/greenloop/wastebot/utils"
)

// Router dispatches inbound chat events to the analyzer chain, the
// pending submission store, and the report builder. It owns the session
// state machine: a session is AWAITING_LOCATION exactly when a pending
// submission exists for it, so the state survives restarts and is shared
// across replicas.
//
// Handlers never return errors: every handled event produces exactly one
// outbound message, or a silent no-op for duplicate deliveries and
// ignored event types.
type Router struct {
	chain   *analyzers.Chain
	store   store.Store
	blobs   blob.Storage
	builder *Builder
	hooks   hooks.Hooks
	logger  log.Interface

	// recent deduplicates redelivered webhook events.
	recent *utils.RecentWindow
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterHooks sets the event hooks.
func WithRouterHooks(h hooks.Hooks) RouterOption {
	return func(r *Router) { r.hooks = h }
}

// WithRouterLogger sets the logger.
func WithRouterLogger(logger log.Interface) RouterOption {
	return func(r *Router) { r.logger = logger }
}

// WithRecentWindow overrides the dedup window capacity.
func WithRecentWindow(capacity int) RouterOption {
	return func(r *Router) { r.recent = utils.NewRecentWindow(capacity) }
}

// NewRouter creates a session router.
func NewRouter(chain *analyzers.Chain, st store.Store, blobs blob.Storage, builder *Builder, opts ...RouterOption) *Router {
	r := &Router{
		chain:   chain,
		store:   st,
		blobs:   blobs,
		builder: builder,
		hooks:   hooks.NopHooks{},
		logger:  log.Log,
		recent:  utils.NewRecentWindow(wastebot.DefaultRecentEvents),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the session's current submission state.
func (r *Router) State(ctx context.Context, sessionID string) wastebot.SessionState {
	if _, err := r.store.GetPending(ctx, sessionID); err == nil {
		return wastebot.StateAwaitingLocation
	}
	return wastebot.StateIdle
}

// HandlePhoto runs a submitted photo through the chain and, on
// acceptance, persists it and writes the session's pending submission
// (replacing any previous one).
func (r *Router) HandlePhoto(ctx context.Context, event wastebot.PhotoEvent) wastebot.OutboundMessage {
	if !r.recent.Remember(event.EventID) {
		metrics.EventsDedupedTotal.Inc()
		return wastebot.OutboundMessage{}
	}

	img := wastebot.ImageAsset{
		Bytes: event.ImageBytes,
		Hash:  utils.HashImage(event.ImageBytes),
		Size:  len(event.ImageBytes),
	}
	logger := r.logger.WithFields(log.Fields{
		"session_id": event.SessionID,
		"image_hash": utils.TruncateHash(img.Hash, 12),
	})

	// Early duplicate check saves analyzer calls for known photos. The
	// authoritative check is the unique index consulted at build time.
	if exists, err := r.store.HasImageHash(ctx, img.Hash); err == nil && exists {
		metrics.DuplicateImagesTotal.Inc()
		r.emitPhotoRejected(ctx, event.SessionID, img.Hash, nil, "duplicate_image")
		return wastebot.OutboundMessage{Text: msgDuplicate}
	}

	result, err := r.chain.Classify(ctx, img)
	if err != nil {
		switch {
		case errors.Is(err, wastebot.ErrEmptyImage), errors.Is(err, wastebot.ErrImageTooSmall):
			r.emitPhotoRejected(ctx, event.SessionID, img.Hash, nil, "image_too_small")
			return wastebot.OutboundMessage{Text: msgTooSmall}
		case errors.Is(err, wastebot.ErrImageTooLarge):
			r.emitPhotoRejected(ctx, event.SessionID, img.Hash, nil, "image_too_large")
			return wastebot.OutboundMessage{Text: msgTooLarge}
		default:
			logger.WithError(err).Error("chain classify failed")
			return wastebot.OutboundMessage{Text: msgTechnical}
		}
	}

	if !result.Accepted {
		logger.WithField("attempts", len(result.Attempts)).Info("photo rejected by chain")
		r.emitPhotoRejected(ctx, event.SessionID, img.Hash, result.Attempts, wastebot.ReasonNoWasteDetected)
		return wastebot.OutboundMessage{Text: msgNoWaste}
	}

	ref, err := r.blobs.Put(ctx, img)
	if err != nil {
		logger.WithError(err).Error("photo persist failed")
		return wastebot.OutboundMessage{Text: msgTechnical}
	}

	sub := wastebot.PendingSubmission{
		SessionID:   event.SessionID,
		ImageHash:   img.Hash,
		StorageRef:  ref,
		Category:    result.Category(),
		SubmittedBy: event.UserDisplayName,
		CreatedAt:   time.Now(),
	}
	if err := r.store.PutPending(ctx, sub); err != nil {
		logger.WithError(err).Error("pending submission write failed")
		return wastebot.OutboundMessage{Text: msgTechnical}
	}

	logger.WithField("category", sub.Category).Info("photo accepted, awaiting location")
	return wastebot.OutboundMessage{Text: msgAskLocation}
}

// HandleLocation consumes the session's pending submission and files the
// report.
func (r *Router) HandleLocation(ctx context.Context, event wastebot.LocationEvent) wastebot.OutboundMessage {
	if !r.recent.Remember(event.EventID) {
		metrics.EventsDedupedTotal.Inc()
		return wastebot.OutboundMessage{}
	}

	report, err := r.builder.Build(ctx, event.SessionID, event.Lat, event.Lng)
	if err != nil {
		switch {
		case errors.Is(err, wastebot.ErrNoPendingSubmission):
			return wastebot.OutboundMessage{Text: msgSendPhotoFirst}
		case errors.Is(err, wastebot.ErrDuplicateImage):
			return wastebot.OutboundMessage{Text: msgDuplicate}
		default:
			r.logger.WithError(err).WithField("session_id", event.SessionID).Error("report build failed")
			return wastebot.OutboundMessage{Text: msgTechnical}
		}
	}

	return wastebot.OutboundMessage{
		Text:    msgReportCreated(report, r.builder.rewards.BasePoints),
		Buttons: []wastebot.Button{mapButton(event.Lat, event.Lng)},
	}
}

// HandleText routes text commands. Unrecognized text is answered with
// help so the conversational fallback stays out of the pipeline.
func (r *Router) HandleText(ctx context.Context, event wastebot.TextCommandEvent) wastebot.OutboundMessage {
	if !r.recent.Remember(event.EventID) {
		metrics.EventsDedupedTotal.Inc()
		return wastebot.OutboundMessage{}
	}

	switch strings.TrimPrefix(strings.ToLower(event.Command), "/") {
	case "start":
		return wastebot.OutboundMessage{Text: msgStart}
	case "help":
		return wastebot.OutboundMessage{Text: msgHelp}
	case "points":
		balance, err := r.builder.Balance(ctx, event.SessionID)
		if err != nil {
			r.logger.WithError(err).WithField("session_id", event.SessionID).Error("balance read failed")
			return wastebot.OutboundMessage{Text: msgTechnical}
		}
		return wastebot.OutboundMessage{Text: msgPoints(balance)}
	case "cancel":
		if r.State(ctx, event.SessionID) == wastebot.StateIdle {
			return wastebot.OutboundMessage{Text: msgNothingToCancel}
		}
		if err := r.store.DeletePending(ctx, event.SessionID); err != nil {
			r.logger.WithError(err).WithField("session_id", event.SessionID).Error("cancel failed")
			return wastebot.OutboundMessage{Text: msgTechnical}
		}
		return wastebot.OutboundMessage{Text: msgCancelled}
	default:
		return wastebot.OutboundMessage{Text: msgHelp}
	}
}

func (r *Router) emitPhotoRejected(ctx context.Context, sessionID, hash string, attempts []wastebot.Verdict, reason string) {
	e := hooks.PhotoRejectedEvent{
		SessionID: sessionID,
		ImageHash: hash,
		Attempts:  attempts,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	if err := r.hooks.OnPhotoRejected(ctx, e); err != nil {
		r.logger.WithError(err).Warn("photo rejected hook failed")
	}
}
