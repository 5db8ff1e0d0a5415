package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// DirectoryStatus is the listing state of a directory target.
type DirectoryStatus string

const (
	DirectoryActive   DirectoryStatus = "active"
	DirectoryInactive DirectoryStatus = "inactive"
	DirectoryTesting  DirectoryStatus = "testing"
)

// Directory is a third-party site products are submitted to.
type Directory struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	URL           string          `db:"url" json:"url"`
	SubmissionURL string          `db:"submission_url" json:"submission_url"`
	Status        DirectoryStatus `db:"status" json:"status"`

	RequiresLogin bool   `db:"requires_login" json:"requires_login"`
	LoginURL      string `db:"login_url" json:"login_url,omitempty"`
	LoginUsername string `db:"login_username" json:"-"`
	LoginPassword string `db:"login_password" json:"-"`

	IsMultiStep bool `db:"is_multi_step" json:"is_multi_step"`
	StepCount   int  `db:"step_count" json:"step_count"`

	Category         string `db:"category" json:"category"`
	RequiresApproval bool   `db:"requires_approval" json:"requires_approval"`

	TotalSubmissions      int `db:"total_submissions" json:"total_submissions"`
	SuccessfulSubmissions int `db:"successful_submissions" json:"successful_submissions"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FormURL is the page the submission form lives on.
func (d *Directory) FormURL() string {
	if d.SubmissionURL != "" {
		return d.SubmissionURL
	}
	return d.URL
}

// StringList is a JSON-encoded list of strings.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(src any) error {
	return scanJSON(src, s, "string list")
}

// StringMap is a JSON-encoded string map (e.g. social links).
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(src any) error {
	return scanJSON(src, m, "string map")
}

// SaasProduct is the product being fanned out to directories.
type SaasProduct struct {
	ID               int64      `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	WebsiteURL       string     `db:"website_url" json:"website_url"`
	Description      string     `db:"description" json:"description"`
	ShortDescription string     `db:"short_description" json:"short_description"`
	Category         string     `db:"category" json:"category"`
	LogoURL          string     `db:"logo_url" json:"logo_url"`
	ContactEmail     string     `db:"contact_email" json:"contact_email"`
	Tagline          string     `db:"tagline" json:"tagline"`
	PricingModel     string     `db:"pricing_model" json:"pricing_model"`
	Features         StringList `db:"features" json:"features"`
	SocialLinks      StringMap  `db:"social_links" json:"social_links"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
