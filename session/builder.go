package session

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/hooks"
	"github.com/greenloop/wastebot/metrics"
	"github.com/greenloop/wastebot/store"
	"github.com/greenloop/wastebot/utils"
)

// RewardConfig sets the ledger amounts.
type RewardConfig struct {
	// BasePoints are granted when a report is filed.
	BasePoints int

	// BonusPoints are granted by the moderation flow on validation; kept
	// here so the configuration surface lives in one place.
	BonusPoints int
}

// DefaultRewardConfig returns the default reward amounts.
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		BasePoints:  wastebot.DefaultBaseReward,
		BonusPoints: wastebot.DefaultBonusReward,
	}
}

// Builder turns a completed (photo + location) pending submission into a
// persisted report and grants the base reward.
type Builder struct {
	store   store.Store
	rewards RewardConfig
	hooks   hooks.Hooks
	idGen   *utils.IDGenerator
	logger  log.Interface

	// persistRetryer bounds retries of the report insert.
	persistRetryer *utils.Retryer

	// grantRetryer drives the asynchronous reward grant retry.
	grantRetryer *utils.Retryer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRewards overrides the reward amounts.
func WithRewards(cfg RewardConfig) BuilderOption {
	return func(b *Builder) { b.rewards = cfg }
}

// WithHooks sets the event hooks.
func WithHooks(h hooks.Hooks) BuilderOption {
	return func(b *Builder) { b.hooks = h }
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(logger log.Interface) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a report builder.
func NewBuilder(st store.Store, opts ...BuilderOption) *Builder {
	persistCfg := utils.DefaultRetryConfig()
	persistCfg.MaxRetries = 2
	persistCfg.InitialDelay = 100 * time.Millisecond
	persistCfg.RetryIf = func(err error) bool {
		// duplicate hash and missing submission are terminal outcomes
		return !errors.Is(err, wastebot.ErrDuplicateImage) &&
			!errors.Is(err, wastebot.ErrNoPendingSubmission)
	}

	grantCfg := utils.DefaultRetryConfig()
	grantCfg.MaxRetries = 5
	grantCfg.InitialDelay = 500 * time.Millisecond
	grantCfg.MaxDelay = 30 * time.Second
	grantCfg.RetryIf = func(err error) bool { return err != nil }

	b := &Builder{
		store:          st,
		rewards:        DefaultRewardConfig(),
		hooks:          hooks.NopHooks{},
		idGen:          utils.NewIDGenerator(),
		logger:         log.Log,
		persistRetryer: utils.NewRetryer(persistCfg),
		grantRetryer:   utils.NewRetryer(grantCfg),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build consumes the session's pending submission and persists a report
// at the given coordinates.
//
// The pending submission is consumed first and never restored: a
// duplicate hash or a persistence failure spends the submission, so a
// retry of the same location cannot double-charge the hash check.
// If the ledger grant fails after the report insert succeeded, the
// report stands and the grant is retried asynchronously.
func (b *Builder) Build(ctx context.Context, sessionID string, lat, lng float64) (*wastebot.Report, error) {
	sub, err := b.store.TakePending(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report := wastebot.Report{
		ID:         b.idGen.GenerateWithPrefix("rep"),
		SessionID:  sessionID,
		StorageRef: sub.StorageRef,
		Lat:        lat,
		Lng:        lng,
		Status:     wastebot.ReportPending,
		Category:   sub.Category,
		ImageHash:  sub.ImageHash,
		CreatedAt:  time.Now(),
	}

	err = b.persistRetryer.Do(ctx, func() error {
		return b.store.CreateReport(ctx, report)
	})
	if err != nil {
		if errors.Is(err, wastebot.ErrDuplicateImage) {
			metrics.DuplicateImagesTotal.Inc()
			return nil, wastebot.ErrDuplicateImage
		}
		b.logger.WithError(err).WithField("session_id", sessionID).Error("report insert failed")
		return nil, err
	}
	metrics.ReportsCreatedTotal.Inc()

	entry := wastebot.RewardEntry{
		ID:        b.idGen.GenerateWithPrefix("rw"),
		SessionID: sessionID,
		ReportID:  report.ID,
		Points:    b.rewards.BasePoints,
		Reason:    "report_created",
		CreatedAt: time.Now(),
	}

	points := b.rewards.BasePoints
	if err := b.store.GrantReward(ctx, entry); err != nil {
		// The report stands; the citizen's contribution is not lost.
		b.logger.WithError(err).WithField("report_id", report.ID).Warn("reward grant failed, retrying in background")
		points = 0
		go b.retryGrant(entry)
	} else {
		b.emitRewardGranted(ctx, entry, 1)
	}

	b.emitReportCreated(ctx, report, points)
	return &report, nil
}

// Balance returns the session's reward point total.
func (b *Builder) Balance(ctx context.Context, sessionID string) (int, error) {
	return b.store.Balance(ctx, sessionID)
}

// retryGrant re-attempts a failed ledger write off the request path.
func (b *Builder) retryGrant(entry wastebot.RewardEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	attempt := 1
	err := b.grantRetryer.Do(ctx, func() error {
		attempt++
		metrics.RewardRetriesTotal.Inc()
		return b.store.GrantReward(ctx, entry)
	})
	if err != nil {
		b.logger.WithError(err).WithFields(log.Fields{
			"report_id":  entry.ReportID,
			"session_id": entry.SessionID,
		}).Error("reward grant abandoned after retries")
		return
	}
	b.emitRewardGranted(ctx, entry, attempt)
}

func (b *Builder) emitReportCreated(ctx context.Context, report wastebot.Report, points int) {
	e := hooks.ReportCreatedEvent{
		Report:    report,
		Points:    points,
		Timestamp: time.Now(),
	}
	if err := b.hooks.OnReportCreated(ctx, e); err != nil {
		b.logger.WithError(err).Warn("report created hook failed")
	}
}

func (b *Builder) emitRewardGranted(ctx context.Context, entry wastebot.RewardEntry, attempt int) {
	e := hooks.RewardGrantedEvent{
		Entry:     entry,
		Attempt:   attempt,
		Timestamp: time.Now(),
	}
	if err := b.hooks.OnRewardGranted(ctx, e); err != nil {
		b.logger.WithError(err).Warn("reward granted hook failed")
	}
}
