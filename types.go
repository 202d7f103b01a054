package wastebot

import (
	"time"
)

// ImageAsset is a submitted photo during analysis. It is ephemeral:
// once a submission is accepted only the storage reference and the
// content hash survive.
type ImageAsset struct {
	Bytes []byte `json:"-"`
	Hash  string `json:"hash"` // hex SHA-256 of Bytes
	Size  int    `json:"size"` // byte length of Bytes
}

// Label is a single classifier label with its score (0-100).
type Label struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Verdict is one analyzer's classification opinion about one image.
// Immutable once produced.
type Verdict struct {
	Analyzer   string    `json:"analyzer"`
	Accepted   bool      `json:"accepted"`
	Confidence int       `json:"confidence"` // 0-100
	Labels     []Label   `json:"labels,omitempty"`
	Category   Category  `json:"category"`
	Reason     string    `json:"reason,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// ChainResult aggregates the verdicts of a chain invocation.
// Accepted is true only when Winner is an accepting verdict at or above
// its analyzer's declared threshold, or when the chain's accept-on-exhaustion
// default applied (DefaultApplied true, Winner carries the manual_review reason).
type ChainResult struct {
	Accepted       bool      `json:"accepted"`
	Winner         *Verdict  `json:"winner,omitempty"`
	Attempts       []Verdict `json:"attempts"`
	DefaultApplied bool      `json:"default_applied"`
}

// Category returns the winning verdict's category, or CategoryUnknown
// when the chain produced no winner.
func (r ChainResult) Category() Category {
	if r.Winner == nil {
		return CategoryUnknown
	}
	return r.Winner.Category
}

// PendingSubmission is the "photo received, location not yet received"
// state for one session. At most one exists per session: a new accepted
// photo overwrites it, a matching location consumes it, and the sweeper
// purges it after the TTL.
type PendingSubmission struct {
	SessionID   string    `json:"session_id" db:"session_id"`
	ImageHash   string    `json:"image_hash" db:"image_hash"`
	StorageRef  string    `json:"storage_ref" db:"storage_ref"`
	Category    Category  `json:"category" db:"category"`
	SubmittedBy string    `json:"submitted_by" db:"submitted_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Report is the persisted outcome of a completed submission.
// ImageHash is unique across all reports.
type Report struct {
	ID          string       `json:"id" db:"id"`
	SessionID   string       `json:"session_id" db:"session_id"`
	StorageRef  string       `json:"storage_ref" db:"storage_ref"`
	Description string       `json:"description" db:"description"`
	Lat         float64      `json:"lat" db:"lat"`
	Lng         float64      `json:"lng" db:"lng"`
	Status      ReportStatus `json:"status" db:"status"`
	Category    Category     `json:"category" db:"category"`
	ImageHash   string       `json:"image_hash" db:"image_hash"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// RewardEntry is one point grant on a session's ledger.
type RewardEntry struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	ReportID  string    `json:"report_id" db:"report_id"`
	Points    int       `json:"points" db:"points"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PhotoEvent is an inbound photo from the messaging transport.
type PhotoEvent struct {
	EventID         string `json:"event_id"`
	SessionID       string `json:"session_id"`
	ImageBytes      []byte `json:"image_bytes"`
	UserDisplayName string `json:"user_display_name"`
}

// LocationEvent is an inbound geolocation from the messaging transport.
type LocationEvent struct {
	EventID   string  `json:"event_id"`
	SessionID string  `json:"session_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// TextCommandEvent is an inbound text command from the messaging transport.
type TextCommandEvent struct {
	EventID   string   `json:"event_id"`
	SessionID string   `json:"session_id"`
	Command   string   `json:"command"`
	Args      []string `json:"args,omitempty"`
}

// Button is an inline action attached to an outbound message.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// OutboundMessage is the single user-facing response produced for one
// handled inbound event. An empty Text means a deliberate silent no-op
// (duplicate delivery, ignored event type).
type OutboundMessage struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

// Silent reports whether the message is a deliberate no-op.
func (m OutboundMessage) Silent() bool {
	return m.Text == ""
}
