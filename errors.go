package wastebot

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorCategory classifies an error for handling decisions.
type ErrorCategory string

const (
	ErrorCategoryNetwork    ErrorCategory = "network"    // connectivity issues
	ErrorCategoryRateLimit  ErrorCategory = "rate_limit" // analyzer rate limiting
	ErrorCategoryTimeout    ErrorCategory = "timeout"    // request timeout
	ErrorCategoryAuth       ErrorCategory = "auth"       // authentication/authorization
	ErrorCategoryValidation ErrorCategory = "validation" // input validation
	ErrorCategoryAnalyzer   ErrorCategory = "analyzer"   // analyzer-specific errors
	ErrorCategoryStore      ErrorCategory = "store"      // persistence errors
	ErrorCategoryInternal   ErrorCategory = "internal"   // everything else
)

// Pipeline errors. These are the only outcomes that cross the boundary
// to the user-facing message layer; analyzer transport errors are
// absorbed by the chain.
var (
	ErrEmptyImage          = errors.New("wastebot: empty image")
	ErrImageTooSmall       = errors.New("wastebot: image too small to analyze")
	ErrImageTooLarge       = errors.New("wastebot: image too large")
	ErrChainRejected       = errors.New("wastebot: no analyzer detected waste")
	ErrNoPendingSubmission = errors.New("wastebot: no pending submission for session")
	ErrDuplicateImage      = errors.New("wastebot: image already reported")
	ErrNoAnalyzers         = errors.New("wastebot: chain has no analyzers")
	ErrReportNotFound      = errors.New("wastebot: report not found")
	ErrStoreNotConfigured  = errors.New("wastebot: store not configured")

	ErrTimeout     = errors.New("wastebot: operation timeout")
	ErrRateLimited = errors.New("wastebot: rate limited by classification service")
)

// AnalyzerError is a failure of one concrete classification backend.
// The chain converts these to analyzer_unavailable verdicts and moves on;
// the resilient wrapper consults Retryable before that happens.
type AnalyzerError struct {
	Analyzer   string
	Code       string
	Message    string
	StatusCode int
	Category   ErrorCategory
	Retryable  bool
	Err        error
}

func (e *AnalyzerError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("wastebot: analyzer %s error [%d/%s]: %s", e.Analyzer, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("wastebot: analyzer %s error [%s]: %s", e.Analyzer, e.Code, e.Message)
}

func (e *AnalyzerError) Unwrap() error {
	return e.Err
}

// NewAnalyzerError creates an analyzer error with the analyzer category.
func NewAnalyzerError(analyzer, code, message string) *AnalyzerError {
	ae := &AnalyzerError{
		Analyzer: analyzer,
		Code:     code,
		Message:  message,
		Category: ErrorCategoryAnalyzer,
	}
	ae.Retryable = ae.isRetryable()
	return ae
}

// WithStatusCode sets the HTTP status code and recategorizes accordingly.
func (e *AnalyzerError) WithStatusCode(code int) *AnalyzerError {
	e.StatusCode = code
	e.Category = categorizeByStatusCode(code)
	e.Retryable = e.isRetryable()
	return e
}

// WithCategory overrides the error category.
func (e *AnalyzerError) WithCategory(cat ErrorCategory) *AnalyzerError {
	e.Category = cat
	e.Retryable = e.isRetryable()
	return e
}

// WithCause records the underlying error.
func (e *AnalyzerError) WithCause(err error) *AnalyzerError {
	e.Err = err
	return e
}

func (e *AnalyzerError) isRetryable() bool {
	switch e.Category {
	case ErrorCategoryNetwork, ErrorCategoryRateLimit, ErrorCategoryTimeout:
		return true
	}
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func categorizeByStatusCode(code int) ErrorCategory {
	switch {
	case code == 401 || code == 403:
		return ErrorCategoryAuth
	case code == 429:
		return ErrorCategoryRateLimit
	case code == 408 || code == 504:
		return ErrorCategoryTimeout
	case code >= 500:
		return ErrorCategoryInternal
	default:
		return ErrorCategoryAnalyzer
	}
}

// StoreError is a persistence failure with its operation context.
type StoreError struct {
	Operation string // create, get, take, delete, grant
	Table     string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("wastebot: store error during %s on %s: %v", e.Operation, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a store error.
func NewStoreError(operation, table string, err error) *StoreError {
	return &StoreError{Operation: operation, Table: table, Err: err}
}

// IsAnalyzerError checks if an error is an analyzer error.
func IsAnalyzerError(err error) bool {
	var ae *AnalyzerError
	return errors.As(err, &ae)
}

// IsStoreError checks if an error is a store error.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) {
		return true
	}

	var ae *AnalyzerError
	if errors.As(err, &ae) {
		return ae.Retryable
	}

	return IsNetworkError(err)
}

// IsNetworkError checks if an error is a network-level failure.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"connection timed out",
		"dial tcp",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var ae *AnalyzerError
	if errors.As(err, &ae) {
		return ae.Category
	}

	var se *StoreError
	if errors.As(err, &se) {
		return ErrorCategoryStore
	}

	if IsNetworkError(err) {
		return ErrorCategoryNetwork
	}
	if errors.Is(err, ErrTimeout) {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, ErrRateLimited) {
		return ErrorCategoryRateLimit
	}
	if errors.Is(err, ErrEmptyImage) || errors.Is(err, ErrImageTooSmall) || errors.Is(err, ErrImageTooLarge) {
		return ErrorCategoryValidation
	}

	return ErrorCategoryInternal
}
