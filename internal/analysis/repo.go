package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skincheck.org/internal/ids"
)

var (
	ErrNotFound     = errors.New("analysis: not found")
	ErrInvalidInput = errors.New("analysis: invalid input")
)

// maxRecentLimit caps the administrative recent-analyses listing.
const maxRecentLimit = 50

// Repository persists analysis records and their medication entries.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// RepositoryOption configures Repository behavior.
type RepositoryOption func(*Repository)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) RepositoryOption {
	return func(r *Repository) {
		if fn != nil {
			r.now = fn
		}
	}
}

func NewRepository(db *sql.DB, opts ...RepositoryOption) *Repository {
	r := &Repository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores the result as a new record owned by accountID. The parent
// insert and all medication inserts run inside one transaction; a failure
// anywhere rolls the whole record back.
func (r *Repository) Create(ctx context.Context, accountID, imageRef string, res Result) (*Record, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if imageRef == "" {
		return nil, fmt.Errorf("%w: image reference is required", ErrInvalidInput)
	}
	if res.Disease == "" {
		return nil, fmt.Errorf("%w: disease label is required", ErrInvalidInput)
	}
	if res.Confidence < 0 || res.Confidence > 100 {
		return nil, fmt.Errorf("%w: confidence must be within [0,100]", ErrInvalidInput)
	}
	if !validSeverity(res.Severity) {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, res.Severity)
	}

	symptoms, err := encodeStrings(res.Symptoms)
	if err != nil {
		return nil, err
	}
	recommendations, err := encodeStrings(res.Recommendations)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:              ids.New(),
		AccountID:       accountID,
		ImageRef:        imageRef,
		Disease:         res.Disease,
		Confidence:      res.Confidence,
		Severity:        res.Severity,
		Description:     res.Description,
		Symptoms:        res.Symptoms,
		Recommendations: res.Recommendations,
		CreatedAt:       r.now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`insert into analyses(id, user_id, image_ref, disease, confidence, severity, description, symptoms, recommendations, created_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.AccountID, rec.ImageRef, rec.Disease, rec.Confidence, rec.Severity,
		rec.Description, symptoms, recommendations, rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	for _, med := range res.Medications {
		entry := Medication{
			ID:         ids.New(),
			AnalysisID: rec.ID,
			Name:       med.Name,
			Dosage:     med.Dosage,
			Frequency:  med.Frequency,
		}
		if _, err := tx.ExecContext(ctx,
			`insert into medications(id, analysis_id, name, dosage, frequency) values($1,$2,$3,$4,$5)`,
			entry.ID, entry.AnalysisID, entry.Name, entry.Dosage, entry.Frequency,
		); err != nil {
			return nil, err
		}
		rec.Medications = append(rec.Medications, entry)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByAccount returns the account's records, newest first, with
// medications eagerly attached.
func (r *Repository) ListByAccount(ctx context.Context, accountID string) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, user_id, image_ref, disease, confidence, severity, description, symptoms, recommendations, created_at
		 from analyses where user_id = $1 order by created_at desc`, accountID)
	if err != nil {
		return nil, err
	}
	records, err := scanRecords(rows, false)
	if err != nil {
		return nil, err
	}
	return r.attachMedications(ctx, records)
}

// ListRecent returns the newest records across all accounts joined with the
// owner's display name and email. The limit is capped at 50.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 || limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`select a.id, a.user_id, a.image_ref, a.disease, a.confidence, a.severity, a.description, a.symptoms, a.recommendations, a.created_at, u.name, u.email
		 from analyses a
		 join users u on u.id = a.user_id
		 order by a.created_at desc
		 limit $1`, limit)
	if err != nil {
		return nil, err
	}
	records, err := scanRecords(rows, true)
	if err != nil {
		return nil, err
	}
	return r.attachMedications(ctx, records)
}

// DiseaseDistribution counts records per disease label, largest first.
func (r *Repository) DiseaseDistribution(ctx context.Context) ([]DiseaseCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`select disease, count(*) from analyses group by disease order by count(*) desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []DiseaseCount
	for rows.Next() {
		var dc DiseaseCount
		if err := rows.Scan(&dc.Disease, &dc.Count); err != nil {
			return nil, err
		}
		res = append(res, dc)
	}
	return res, rows.Err()
}

// TotalCount returns the number of stored analysis records.
func (r *Repository) TotalCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `select count(*) from analyses`).Scan(&count)
	return count, err
}

func (r *Repository) attachMedications(ctx context.Context, records []*Record) ([]*Record, error) {
	for _, rec := range records {
		meds, err := r.medicationsFor(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Medications = meds
	}
	return records, nil
}

func (r *Repository) medicationsFor(ctx context.Context, analysisID string) ([]Medication, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, analysis_id, name, dosage, frequency from medications where analysis_id = $1 order by id`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.AnalysisID, &m.Name, &m.Dosage, &m.Frequency); err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func scanRecords(rows *sql.Rows, withOwner bool) ([]*Record, error) {
	defer rows.Close()

	var res []*Record
	for rows.Next() {
		var (
			rec             Record
			symptoms        []byte
			recommendations []byte
		)
		dest := []any{
			&rec.ID, &rec.AccountID, &rec.ImageRef, &rec.Disease, &rec.Confidence,
			&rec.Severity, &rec.Description, &symptoms, &recommendations, &rec.CreatedAt,
		}
		if withOwner {
			dest = append(dest, &rec.OwnerName, &rec.OwnerEmail)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := decodeStrings(symptoms, &rec.Symptoms); err != nil {
			return nil, err
		}
		if err := decodeStrings(recommendations, &rec.Recommendations); err != nil {
			return nil, err
		}
		res = append(res, &rec)
	}
	return res, rows.Err()
}

// encodeStrings serializes an ordered string sequence as JSON text. The
// encoding round-trips exactly; order is preserved.
func encodeStrings(vals []string) ([]byte, error) {
	if vals == nil {
		vals = []string{}
	}
	return json.Marshal(vals)
}

func decodeStrings(data []byte, dst *[]string) error {
	if len(data) == 0 {
		*dst = []string{}
		return nil
	}
	return json.Unmarshal(data, dst)
}
