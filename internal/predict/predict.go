// Package predict is the mocked classifier. It returns canned predictions
// with jittered confidence; the persistence core treats its output as an
// opaque external result.
package predict

import (
	"math"
	mathrand "math/rand"
	"sync"
	"time"

	"skincheck.org/internal/analysis"
)

var canned = []analysis.Result{
	{
		Disease:     "Eczema (Atopic Dermatitis)",
		Confidence:  87,
		Description: "A chronic inflammatory skin condition characterized by dry, itchy, and inflamed skin patches.",
		Symptoms:    []string{"Dry, scaly skin", "Intense itching", "Red or brownish patches", "Small raised bumps"},
		Medications: []analysis.Medication{
			{Name: "Hydrocortisone Cream 1%", Dosage: "Apply thin layer", Frequency: "2-3 times daily"},
			{Name: "Cetirizine", Dosage: "10mg", Frequency: "Once daily"},
			{Name: "Moisturizing Lotion", Dosage: "Liberal application", Frequency: "Multiple times daily"},
		},
		Recommendations: []string{
			"Avoid known triggers and allergens",
			"Use fragrance-free moisturizers",
			"Take lukewarm baths with oatmeal",
			"Wear soft, breathable fabrics",
		},
		Severity: analysis.SeverityMedium,
	},
	{
		Disease:     "Acne Vulgaris",
		Confidence:  92,
		Description: "A common skin condition that occurs when hair follicles become clogged with oil and dead skin cells.",
		Symptoms:    []string{"Blackheads", "Whiteheads", "Papules", "Pustules", "Cysts"},
		Medications: []analysis.Medication{
			{Name: "Benzoyl Peroxide 2.5%", Dosage: "Apply to affected area", Frequency: "Once daily"},
			{Name: "Salicylic Acid Cleanser", Dosage: "Use as directed", Frequency: "Twice daily"},
			{Name: "Adapalene Gel 0.1%", Dosage: "Apply thin layer", Frequency: "Once daily at bedtime"},
		},
		Recommendations: []string{
			"Wash face gently twice daily",
			"Avoid touching or picking at acne",
			"Use non-comedogenic products",
			"Maintain a consistent skincare routine",
		},
		Severity: analysis.SeverityLow,
	},
	{
		Disease:     "Psoriasis",
		Confidence:  78,
		Description: "An autoimmune condition that causes rapid skin cell turnover, leading to thick, scaly patches.",
		Symptoms:    []string{"Thick, red patches", "Silvery scales", "Dry, cracked skin", "Itching and burning"},
		Medications: []analysis.Medication{
			{Name: "Topical Corticosteroids", Dosage: "Apply as directed", Frequency: "1-2 times daily"},
			{Name: "Calcipotriene", Dosage: "Apply thin layer", Frequency: "Twice daily"},
			{Name: "Coal Tar Shampoo", Dosage: "Use as directed", Frequency: "2-3 times weekly"},
		},
		Recommendations: []string{
			"Moisturize regularly",
			"Avoid triggers like stress and infections",
			"Use gentle, fragrance-free products",
			"Consider phototherapy",
		},
		Severity: analysis.SeverityHigh,
	},
}

var (
	rngMu sync.Mutex
	rng   = mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
)

// Random picks one of the canned predictions and jitters its confidence
// into the [70,95] band.
func Random() analysis.Result {
	rngMu.Lock()
	defer rngMu.Unlock()

	res := canned[rng.Intn(len(canned))]
	confidence := res.Confidence + (rng.Float64()-0.5)*10
	res.Confidence = math.Round(math.Max(70, math.Min(95, confidence)))
	return res
}
