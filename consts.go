// Package wastebot implements the chat-driven waste report submission
// pipeline: image classification through a chain of analyzers, pending
// submission tracking, report creation, and reward grants.
package wastebot

import "time"

// Category is the kind of waste an analyzer detected on a photo.
type Category string

const (
	CategoryRecyclable Category = "recyclable"
	CategoryOrganic    Category = "organic"
	CategoryHazardous  Category = "hazardous"
	CategoryGeneral    Category = "general"
	CategoryUnknown    Category = "unknown"
)

// ReportStatus is the moderation state of a persisted report.
// Reports are created as pending; moderation moves them to validated
// or rejected outside of this pipeline.
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportValidated ReportStatus = "validated"
	ReportRejected  ReportStatus = "rejected"
)

// SessionState is the submission state of one chat session.
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateAwaitingLocation SessionState = "awaiting_location"
)

// Verdict reason codes shared across analyzers and the chain.
const (
	ReasonAnalyzerUnavailable = "analyzer_unavailable"
	ReasonBelowMinConfidence  = "below_min_confidence"
	ReasonNoWasteDetected     = "no_waste_detected"
	ReasonManualReview        = "manual_review"
)

// Default configuration values.
const (
	DefaultPendingTTL      = 24 * time.Hour
	DefaultSweepInterval   = 15 * time.Minute
	DefaultAnalyzerTimeout = 8 * time.Second
	DefaultChainDeadline   = 30 * time.Second

	DefaultMinImageBytes = 8 * 1024
	DefaultMaxImageBytes = 10 * 1024 * 1024

	DefaultBaseReward  = 10
	DefaultBonusReward = 25

	// DefaultRecentEvents bounds the per-router window of event ids
	// used to drop duplicate webhook deliveries.
	DefaultRecentEvents = 512
)
