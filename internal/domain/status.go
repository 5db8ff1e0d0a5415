package domain

// SubmissionStatus is the lifecycle state of a submission. The zero value
// is not a valid status; new submissions start as StatusPending.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusApproved  SubmissionStatus = "approved"
	StatusRejected  SubmissionStatus = "rejected"
	StatusFailed    SubmissionStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusApproved, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s ends a pipeline run. StatusFailed is terminal
// for the run but may re-enter StatusPending through a retry.
func (s SubmissionStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is legal.
//
// pending   -> submitted | approved | rejected | failed
// submitted -> approved  | rejected
// failed    -> pending   (retry only)
//
// A directory may confirm or decline synchronously at submission time, so
// pending may jump straight to approved or rejected.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusSubmitted || next == StatusApproved ||
			next == StatusRejected || next == StatusFailed
	case StatusSubmitted:
		return next == StatusApproved || next == StatusRejected
	case StatusFailed:
		return next == StatusPending
	}
	return false
}

func (s SubmissionStatus) String() string {
	return string(s)
}
