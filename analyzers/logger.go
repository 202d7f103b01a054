package analyzers

import (
	"time"

	"github.com/apex/log"
)

// APILogger records analyzer API calls. Implementations must be safe for
// concurrent use.
type APILogger interface {
	LogCall(call CallLog)
}

// CallLog captures one analyzer invocation.
type CallLog struct {
	Analyzer  string
	ImageHash string
	Accepted  bool
	Reason    string
	Duration  time.Duration
	Err       error
}

// NopLogger discards all call logs.
type NopLogger struct{}

func (NopLogger) LogCall(CallLog) {}

// StructuredLogger writes call logs through apex/log.
type StructuredLogger struct {
	Logger log.Interface
}

// NewStructuredLogger wraps an apex logger; nil falls back to the
// package-level default.
func NewStructuredLogger(logger log.Interface) *StructuredLogger {
	if logger == nil {
		logger = log.Log
	}
	return &StructuredLogger{Logger: logger}
}

func (l *StructuredLogger) LogCall(call CallLog) {
	entry := l.Logger.WithFields(log.Fields{
		"analyzer":   call.Analyzer,
		"image_hash": call.ImageHash,
		"accepted":   call.Accepted,
		"reason":     call.Reason,
		"duration":   call.Duration.String(),
	})
	if call.Err != nil {
		entry.WithError(call.Err).Warn("analyzer call failed")
		return
	}
	entry.Debug("analyzer call")
}

// CallTimer measures one call and hands the result to the logger.
type CallTimer struct {
	logger   APILogger
	analyzer string
	hash     string
	start    time.Time
}

// StartCall begins timing an analyzer call.
func StartCall(logger APILogger, analyzer, imageHash string) *CallTimer {
	if logger == nil {
		logger = NopLogger{}
	}
	return &CallTimer{logger: logger, analyzer: analyzer, hash: imageHash, start: time.Now()}
}

// Done finishes the call and emits the log record.
func (t *CallTimer) Done(accepted bool, reason string, err error) {
	t.logger.LogCall(CallLog{
		Analyzer:  t.analyzer,
		ImageHash: t.hash,
		Accepted:  accepted,
		Reason:    reason,
		Duration:  time.Since(t.start),
		Err:       err,
	})
}
