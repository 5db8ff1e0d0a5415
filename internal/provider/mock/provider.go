package mock

import (
	"context"

	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/internal/provider"
)

// Provider satisfies provider.FormAutomation for testing. Each hook
// overrides one operation; unset hooks return a plain success.
type Provider struct {
	DetectFormFunc func(ctx context.Context, target provider.Target) (*domain.FormStructure, error)
	LoginFunc      func(ctx context.Context, target provider.Target, creds provider.Credentials) error
	FillStepFunc   func(ctx context.Context, target provider.Target, step int, values map[string]string) error
	SubmitFunc     func(ctx context.Context, target provider.Target, values map[string]string, form *domain.FormStructure) (*provider.SubmitResult, error)
}

// NewProvider returns a Provider whose operations all succeed: detection
// yields a single-step form with common fields, and submit reports the
// submission as submitted.
func NewProvider() *Provider {
	return &Provider{}
}

func (m *Provider) DetectForm(ctx context.Context, target provider.Target) (*domain.FormStructure, error) {
	if m.DetectFormFunc != nil {
		return m.DetectFormFunc(ctx, target)
	}
	return &domain.FormStructure{
		Fields: []domain.FormField{
			{Name: "name", Type: "text", Selector: "#name", Required: true},
			{Name: "website", Type: "url", Selector: "#website", Required: true},
			{Name: "description", Type: "textarea", Selector: "#description"},
			{Name: "email", Type: "email", Selector: "#email"},
		},
		SubmitButtonSelector: "button[type=submit]",
		StepCount:            1,
	}, nil
}

func (m *Provider) Login(ctx context.Context, target provider.Target, creds provider.Credentials) error {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, target, creds)
	}
	return nil
}

func (m *Provider) FillStep(ctx context.Context, target provider.Target, step int, values map[string]string) error {
	if m.FillStepFunc != nil {
		return m.FillStepFunc(ctx, target, step, values)
	}
	return nil
}

func (m *Provider) Submit(ctx context.Context, target provider.Target, values map[string]string, form *domain.FormStructure) (*provider.SubmitResult, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, target, values, form)
	}
	return &provider.SubmitResult{
		Status:     domain.StatusSubmitted,
		ListingURL: target.URL + "/listing",
		Message:    "Form submitted",
	}, nil
}

var _ provider.FormAutomation = (*Provider)(nil)
