// Package stats serves read-only aggregates for the administrative
// reporting surface.
package stats

import (
	"context"
	"database/sql"
	"time"

	"skincheck.org/internal/analysis"
)

// placeholderAccuracyRate is a fixed display value carried over from the
// product mock-up. It is not derived from any measurement.
const placeholderAccuracyRate = 94.2

// activeWindow is the trailing window used for the active-users count.
const activeWindow = 7 * 24 * time.Hour

// UserStats counts registered and recently active user accounts.
type UserStats struct {
	TotalUsers  int `json:"total_users"`
	ActiveUsers int `json:"active_users"`
}

// AnalysisStats summarizes stored analyses.
type AnalysisStats struct {
	TotalAnalyses       int                     `json:"total_analyses"`
	DiseaseDistribution []analysis.DiseaseCount `json:"disease_distribution"`
}

// Overview is the combined administrative report. AccuracyRate is a
// placeholder constant, not a computed metric.
type Overview struct {
	UserStats
	AnalysisStats
	AccuracyRate float64 `json:"accuracy_rate"`
}

// Aggregator runs aggregate queries over accounts and analyses.
type Aggregator struct {
	db       *sql.DB
	analyses *analysis.Repository
	now      func() time.Time
}

// Option configures Aggregator behavior.
type Option func(*Aggregator)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.now = fn
		}
	}
}

func NewAggregator(db *sql.DB, analyses *analysis.Repository, opts ...Option) *Aggregator {
	a := &Aggregator{db: db, analyses: analyses, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UserStats returns the count of user-role accounts and the count of
// distinct accounts with at least one analysis inside the trailing window.
func (a *Aggregator) UserStats(ctx context.Context) (UserStats, error) {
	var s UserStats
	if err := a.db.QueryRowContext(ctx,
		`select count(*) from users where role = $1`, "user").Scan(&s.TotalUsers); err != nil {
		return UserStats{}, err
	}
	cutoff := a.now().UTC().Add(-activeWindow)
	if err := a.db.QueryRowContext(ctx,
		`select count(distinct user_id) from analyses where created_at > $1`, cutoff).Scan(&s.ActiveUsers); err != nil {
		return UserStats{}, err
	}
	return s, nil
}

// AnalysisStats delegates to the analysis repository.
func (a *Aggregator) AnalysisStats(ctx context.Context) (AnalysisStats, error) {
	total, err := a.analyses.TotalCount(ctx)
	if err != nil {
		return AnalysisStats{}, err
	}
	dist, err := a.analyses.DiseaseDistribution(ctx)
	if err != nil {
		return AnalysisStats{}, err
	}
	return AnalysisStats{TotalAnalyses: total, DiseaseDistribution: dist}, nil
}

// Overview combines both stat groups with the placeholder accuracy figure.
func (a *Aggregator) Overview(ctx context.Context) (Overview, error) {
	users, err := a.UserStats(ctx)
	if err != nil {
		return Overview{}, err
	}
	analyses, err := a.AnalysisStats(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		UserStats:     users,
		AnalysisStats: analyses,
		AccuracyRate:  placeholderAccuracyRate,
	}, nil
}
