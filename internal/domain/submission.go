package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionError is one entry in a submission's append-only error log.
type SubmissionError struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
}

// ErrorLog is the ordered error history of a submission. Entries are only
// ever appended, never rewritten or dropped. Stored as a JSON column.
type ErrorLog []SubmissionError

// Value implements driver.Valuer for JSON storage.
func (l ErrorLog) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSON storage.
func (l *ErrorLog) Scan(src any) error {
	return scanJSON(src, l, "error_log")
}

// IntList is a JSON-encoded list of step numbers.
type IntList []int

func (s IntList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *IntList) Scan(src any) error {
	return scanJSON(src, s, "int list")
}

// Submission is one attempt to list one saas product on one directory.
type Submission struct {
	ID            int64 `db:"id" json:"id"`
	SaasProductID int64 `db:"saas_product_id" json:"saas_product_id"`
	DirectoryID   int64 `db:"directory_id" json:"directory_id"`

	Status SubmissionStatus `db:"status" json:"status"`

	// Each timestamp is set at most once, on the matching transition.
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approved_at"`
	RejectedAt  *time.Time `db:"rejected_at" json:"rejected_at"`

	ResponseMessage string `db:"response_message" json:"response_message"`
	ListingURL      string `db:"listing_url" json:"listing_url"`

	RetryCount  int        `db:"retry_count" json:"retry_count"`
	MaxRetries  int        `db:"max_retries" json:"max_retries"`
	LastRetryAt *time.Time `db:"last_retry_at" json:"last_retry_at"`
	ErrorLog    ErrorLog   `db:"error_log" json:"error_log"`

	// Multi-step progress, owned by the pipeline while it runs.
	DetectedFields FormStructure `db:"detected_fields" json:"detected_fields,omitzero"`
	CurrentStep    int           `db:"current_step" json:"current_step"`
	CompletedSteps IntList       `db:"completed_steps" json:"completed_steps"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RecordError appends an entry to the error log and stores the message as
// the latest human-readable outcome.
func (s *Submission) RecordError(at time.Time, msg string) {
	s.ErrorLog = append(s.ErrorLog, SubmissionError{Timestamp: at, Error: msg})
	s.ResponseMessage = msg
}

// Transition moves the submission to next, stamping the matching timestamp
// exactly once. It returns ErrIllegalTransition when the state machine
// forbids the move.
func (s *Submission) Transition(next SubmissionStatus, at time.Time) error {
	if !s.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.Status, next)
	}

	switch next {
	case StatusSubmitted:
		if s.SubmittedAt == nil {
			t := at
			s.SubmittedAt = &t
		}
	case StatusApproved:
		// Approval implies the data was accepted, even when the directory
		// confirms synchronously.
		if s.SubmittedAt == nil {
			t := at
			s.SubmittedAt = &t
		}
		if s.ApprovedAt == nil {
			t := at
			s.ApprovedAt = &t
		}
	case StatusRejected:
		if s.RejectedAt == nil {
			t := at
			s.RejectedAt = &t
		}
	}

	s.Status = next
	return nil
}

// RetriesRemaining reports whether the retry budget allows another attempt.
func (s *Submission) RetriesRemaining() bool {
	return s.RetryCount < s.MaxRetries
}

// SubmissionWithDetails joins the directory and product the submission
// targets, for list/detail responses.
type SubmissionWithDetails struct {
	Submission
	Directory   Directory   `db:"directory" json:"directory"`
	SaasProduct SaasProduct `db:"saas_product" json:"saas_product"`
}

// DashboardStats is the read-side projection served by the stats endpoint.
type DashboardStats struct {
	TotalSubmissions     int     `json:"total_submissions"`
	PendingSubmissions   int     `json:"pending_submissions"`
	SubmittedSubmissions int     `json:"submitted_submissions"`
	ApprovedSubmissions  int     `json:"approved_submissions"`
	FailedSubmissions    int     `json:"failed_submissions"`
	SuccessRate          float64 `json:"success_rate"`
	TotalDirectories     int     `json:"total_directories"`
	ActiveDirectories    int     `json:"active_directories"`
}

// jsonValue encodes v for storage in a JSON column.
func jsonValue(v any) (driver.Value, error) {
	return json.Marshal(v)
}

// scanJSON decodes a JSON column into dst, treating NULL as the zero value.
func scanJSON(src, dst any, what string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %s", src, what)
	}
}
