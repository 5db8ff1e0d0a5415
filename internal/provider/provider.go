package provider

import (
	"context"

	"github.com/listforge/listforge-be/internal/domain"
)

// Target identifies the directory page a provider call operates on.
type Target struct {
	DirectoryID   int64  `json:"directory_id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	SubmissionURL string `json:"submission_url,omitempty"`
}

// Credentials carry a directory's stored login details.
type Credentials struct {
	LoginURL string `json:"login_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SubmitResult is the provider's verdict on a final submit: the status
// the directory's response declared, plus listing URL and message when
// available.
type SubmitResult struct {
	Status     domain.SubmissionStatus `json:"status"`
	ListingURL string                  `json:"listing_url,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

// FormAutomation is the external collaborator performing actual page
// navigation and field filling. Every call may block on network I/O and
// honors context cancellation.
type FormAutomation interface {
	// DetectForm analyzes the target's submission page and returns its
	// field structure.
	DetectForm(ctx context.Context, target Target) (*domain.FormStructure, error)

	// Login authenticates against the directory before filling.
	Login(ctx context.Context, target Target, creds Credentials) error

	// FillStep fills the fields of one intermediate step of a multi-step
	// form and advances to the next step.
	FillStep(ctx context.Context, target Target, step int, values map[string]string) error

	// Submit fills any remaining fields and submits the form.
	Submit(ctx context.Context, target Target, values map[string]string, form *domain.FormStructure) (*SubmitResult, error)
}

// TargetFor builds the provider target for a directory.
func TargetFor(d *domain.Directory) Target {
	return Target{
		DirectoryID:   d.ID,
		Name:          d.Name,
		URL:           d.URL,
		SubmissionURL: d.SubmissionURL,
	}
}
