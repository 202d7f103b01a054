// Package hooks provides the hook interface for handling submission
// pipeline events.
package hooks

import (
	"context"
)

// Hooks defines the interface for handling pipeline events.
// Implement this interface to receive notifications as submissions move
// through the pipeline.
type Hooks interface {
	// OnReportCreated is called when a submission becomes a report.
	OnReportCreated(ctx context.Context, e ReportCreatedEvent) error

	// OnPhotoRejected is called when a submitted photo is refused.
	OnPhotoRejected(ctx context.Context, e PhotoRejectedEvent) error

	// OnRewardGranted is called when a ledger write succeeds.
	OnRewardGranted(ctx context.Context, e RewardGrantedEvent) error

	// OnSubmissionsPurged is called after a sweeper pass removed
	// expired pending submissions.
	OnSubmissionsPurged(ctx context.Context, e SubmissionsPurgedEvent) error
}

// NopHooks is a no-op implementation of Hooks.
type NopHooks struct{}

// OnReportCreated does nothing.
func (NopHooks) OnReportCreated(ctx context.Context, e ReportCreatedEvent) error {
	return nil
}

// OnPhotoRejected does nothing.
func (NopHooks) OnPhotoRejected(ctx context.Context, e PhotoRejectedEvent) error {
	return nil
}

// OnRewardGranted does nothing.
func (NopHooks) OnRewardGranted(ctx context.Context, e RewardGrantedEvent) error {
	return nil
}

// OnSubmissionsPurged does nothing.
func (NopHooks) OnSubmissionsPurged(ctx context.Context, e SubmissionsPurgedEvent) error {
	return nil
}

// Ensure NopHooks implements Hooks.
var _ Hooks = NopHooks{}

// ChainHooks chains multiple Hooks implementations.
type ChainHooks []Hooks

// OnReportCreated calls all hooks in order.
func (ch ChainHooks) OnReportCreated(ctx context.Context, e ReportCreatedEvent) error {
	for _, h := range ch {
		if err := h.OnReportCreated(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// OnPhotoRejected calls all hooks in order.
func (ch ChainHooks) OnPhotoRejected(ctx context.Context, e PhotoRejectedEvent) error {
	for _, h := range ch {
		if err := h.OnPhotoRejected(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// OnRewardGranted calls all hooks in order.
func (ch ChainHooks) OnRewardGranted(ctx context.Context, e RewardGrantedEvent) error {
	for _, h := range ch {
		if err := h.OnRewardGranted(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// OnSubmissionsPurged calls all hooks in order.
func (ch ChainHooks) OnSubmissionsPurged(ctx context.Context, e SubmissionsPurgedEvent) error {
	for _, h := range ch {
		if err := h.OnSubmissionsPurged(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// FuncHooks allows using functions as hooks.
type FuncHooks struct {
	OnReportCreatedFunc     func(ctx context.Context, e ReportCreatedEvent) error
	OnPhotoRejectedFunc     func(ctx context.Context, e PhotoRejectedEvent) error
	OnRewardGrantedFunc     func(ctx context.Context, e RewardGrantedEvent) error
	OnSubmissionsPurgedFunc func(ctx context.Context, e SubmissionsPurgedEvent) error
}

// OnReportCreated calls the function if set.
func (fh FuncHooks) OnReportCreated(ctx context.Context, e ReportCreatedEvent) error {
	if fh.OnReportCreatedFunc != nil {
		return fh.OnReportCreatedFunc(ctx, e)
	}
	return nil
}

// OnPhotoRejected calls the function if set.
func (fh FuncHooks) OnPhotoRejected(ctx context.Context, e PhotoRejectedEvent) error {
	if fh.OnPhotoRejectedFunc != nil {
		return fh.OnPhotoRejectedFunc(ctx, e)
	}
	return nil
}

// OnRewardGranted calls the function if set.
func (fh FuncHooks) OnRewardGranted(ctx context.Context, e RewardGrantedEvent) error {
	if fh.OnRewardGrantedFunc != nil {
		return fh.OnRewardGrantedFunc(ctx, e)
	}
	return nil
}

// OnSubmissionsPurged calls the function if set.
func (fh FuncHooks) OnSubmissionsPurged(ctx context.Context, e SubmissionsPurgedEvent) error {
	if fh.OnSubmissionsPurgedFunc != nil {
		return fh.OnSubmissionsPurgedFunc(ctx, e)
	}
	return nil
}

// Ensure FuncHooks implements Hooks.
var _ Hooks = FuncHooks{}
