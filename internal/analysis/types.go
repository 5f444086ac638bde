// Package analysis persists classification results and their medication
// entries. Results themselves come from an external predictor; this package
// stores and retrieves them without judging their content.
package analysis

import "time"

// Severity values used for triage-style display.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// Medication is a child row of an analysis record. Medication rows have no
// independent lifecycle; they are written and read together with the parent.
type Medication struct {
	ID         string `json:"id,omitempty"`
	AnalysisID string `json:"analysis_id,omitempty"`
	Name       string `json:"name"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
}

// Result is the structured prediction supplied by the external classifier.
type Result struct {
	Disease         string       `json:"disease"`
	Confidence      float64      `json:"confidence"`
	Description     string       `json:"description"`
	Symptoms        []string     `json:"symptoms"`
	Medications     []Medication `json:"medications"`
	Recommendations []string     `json:"recommendations"`
	Severity        string       `json:"severity"`
}

// Record is a stored analysis. Symptoms and recommendations keep their
// submitted order through storage. OwnerName/OwnerEmail are populated only
// by queries that join the owning account.
type Record struct {
	ID              string       `json:"id"`
	AccountID       string       `json:"account_id"`
	ImageRef        string       `json:"image_ref"`
	Disease         string       `json:"disease"`
	Confidence      float64      `json:"confidence"`
	Severity        string       `json:"severity"`
	Description     string       `json:"description"`
	Symptoms        []string     `json:"symptoms"`
	Recommendations []string     `json:"recommendations"`
	Medications     []Medication `json:"medications"`
	CreatedAt       time.Time    `json:"created_at"`
	OwnerName       string       `json:"owner_name,omitempty"`
	OwnerEmail      string       `json:"owner_email,omitempty"`
}

// DiseaseCount is one entry of the disease distribution, ordered by
// descending count.
type DiseaseCount struct {
	Disease string `json:"disease"`
	Count   int    `json:"count"`
}

func validSeverity(s string) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}
