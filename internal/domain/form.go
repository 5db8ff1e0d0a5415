package domain

import (
	"database/sql/driver"
	"time"
)

// FormField is one detected input on a directory's submission form. Step
// is 1-based; single-step forms leave it at 1.
type FormField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Label    string `json:"label,omitempty"`
	Selector string `json:"selector"`
	Required bool   `json:"required"`
	Step     int    `json:"step,omitempty"`
}

// FormStructure is the detected shape of a directory's submission form,
// produced by the form automation provider and cached per directory.
type FormStructure struct {
	Fields               []FormField `json:"fields"`
	SubmitButtonSelector string      `json:"submit_button_selector,omitempty"`
	IsMultiStep          bool        `json:"is_multi_step"`
	StepCount            int         `json:"step_count"`
}

// FieldsForStep returns the fields applicable to a 1-based step. Fields
// without a step annotation apply to every step.
func (f *FormStructure) FieldsForStep(step int) []FormField {
	var out []FormField
	for _, field := range f.Fields {
		if field.Step == 0 || field.Step == step {
			out = append(out, field)
		}
	}
	return out
}

func (f FormStructure) Value() (driver.Value, error) {
	return jsonValue(f)
}

func (f *FormStructure) Scan(src any) error {
	return scanJSON(src, f, "form structure")
}

// FormCacheEntry is the per-directory cached form metadata together with
// the moment it was last detected.
type FormCacheEntry struct {
	Structure   FormStructure `json:"structure"`
	IsMultiStep bool          `json:"is_multi_step"`
	StepCount   int           `json:"step_count"`
	DetectedAt  time.Time     `json:"detected_at"`
}

// Stale reports whether the entry is older than ttl at the given time. A
// non-positive ttl never expires.
func (e *FormCacheEntry) Stale(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.DetectedAt) > ttl
}
