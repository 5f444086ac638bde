package analysis

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, WithClock(func() time.Time { return fixedTime })), mock
}

func sampleResult() Result {
	return Result{
		Disease:     "Acne Vulgaris",
		Confidence:  92,
		Description: "A common skin condition.",
		Symptoms:    []string{"Blackheads", "Whiteheads", "Papules"},
		Medications: []Medication{
			{Name: "Benzoyl Peroxide 2.5%", Dosage: "Apply to affected area", Frequency: "Once daily"},
			{Name: "Salicylic Acid Cleanser", Dosage: "Use as directed", Frequency: "Twice daily"},
		},
		Recommendations: []string{"Wash face gently twice daily", "Avoid picking"},
		Severity:        SeverityLow,
	}
}

func TestCreateWrapsInsertsInTransaction(t *testing.T) {
	repo, mock := newTestRepo(t)
	res := sampleResult()

	mock.ExpectBegin()
	mock.ExpectExec("insert into analyses").
		WithArgs(sqlmock.AnyArg(), "acc-1", "/uploads/a.jpg", "Acne Vulgaris", 92.0, "Low",
			"A common skin condition.",
			[]byte(`["Blackheads","Whiteheads","Papules"]`),
			[]byte(`["Wash face gently twice daily","Avoid picking"]`),
			fixedTime).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into medications").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Benzoyl Peroxide 2.5%", "Apply to affected area", "Once daily").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into medications").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Salicylic Acid Cleanser", "Use as directed", "Twice daily").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec, err := repo.Create(context.Background(), "acc-1", "/uploads/a.jpg", res)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated id")
	}
	if len(rec.Medications) != 2 {
		t.Fatalf("expected 2 medications, got %d", len(rec.Medications))
	}
	for _, med := range rec.Medications {
		if med.ID == "" || med.AnalysisID != rec.ID {
			t.Fatalf("medication not linked to parent: %+v", med)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRollsBackOnMedicationFailure(t *testing.T) {
	repo, mock := newTestRepo(t)
	res := sampleResult()

	mock.ExpectBegin()
	mock.ExpectExec("insert into analyses").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into medications").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if _, err := repo.Create(context.Background(), "acc-1", "/uploads/a.jpg", res); err == nil {
		t.Fatal("expected error from failed medication insert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected rollback: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	repo, _ := newTestRepo(t)

	cases := []struct {
		name   string
		mutate func(*Result)
	}{
		{"confidence above range", func(r *Result) { r.Confidence = 101 }},
		{"confidence below range", func(r *Result) { r.Confidence = -1 }},
		{"unknown severity", func(r *Result) { r.Severity = "Critical" }},
		{"missing disease", func(r *Result) { r.Disease = "" }},
	}
	for _, tc := range cases {
		res := sampleResult()
		tc.mutate(&res)
		if _, err := repo.Create(context.Background(), "acc-1", "/uploads/a.jpg", res); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}

	if _, err := repo.Create(context.Background(), "", "/uploads/a.jpg", sampleResult()); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected ErrInvalidInput for missing account id")
	}
	if _, err := repo.Create(context.Background(), "acc-1", "", sampleResult()); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected ErrInvalidInput for missing image reference")
	}
}

func TestListByAccountRoundTripsSequences(t *testing.T) {
	repo, mock := newTestRepo(t)

	symptoms := `["Itching and burning","Dry, cracked skin","Silvery scales"]`
	recommendations := `["Moisturize regularly","Consider phototherapy"]`

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "image_ref", "disease", "confidence", "severity",
		"description", "symptoms", "recommendations", "created_at",
	}).AddRow("an-1", "acc-1", "/uploads/p.jpg", "Psoriasis", 78.0, "High",
		"An autoimmune condition.", []byte(symptoms), []byte(recommendations), fixedTime)
	mock.ExpectQuery("from analyses where user_id").
		WithArgs("acc-1").
		WillReturnRows(rows)

	medRows := sqlmock.NewRows([]string{"id", "analysis_id", "name", "dosage", "frequency"}).
		AddRow("md-1", "an-1", "Topical Corticosteroids", "Apply as directed", "1-2 times daily").
		AddRow("md-2", "an-1", "Calcipotriene", "Apply thin layer", "Twice daily")
	mock.ExpectQuery("from medications where analysis_id").
		WithArgs("an-1").
		WillReturnRows(medRows)

	records, err := repo.ListByAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("ListByAccount: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	wantSymptoms := []string{"Itching and burning", "Dry, cracked skin", "Silvery scales"}
	if !reflect.DeepEqual(rec.Symptoms, wantSymptoms) {
		t.Fatalf("symptoms did not round-trip in order: %v", rec.Symptoms)
	}
	wantRecs := []string{"Moisturize regularly", "Consider phototherapy"}
	if !reflect.DeepEqual(rec.Recommendations, wantRecs) {
		t.Fatalf("recommendations did not round-trip in order: %v", rec.Recommendations)
	}
	if len(rec.Medications) != 2 {
		t.Fatalf("expected 2 medications attached, got %d", len(rec.Medications))
	}
}

func TestListRecentCapsLimit(t *testing.T) {
	repo, mock := newTestRepo(t)

	empty := sqlmock.NewRows([]string{
		"id", "user_id", "image_ref", "disease", "confidence", "severity",
		"description", "symptoms", "recommendations", "created_at", "name", "email",
	})
	mock.ExpectQuery("join users u on").
		WithArgs(50).
		WillReturnRows(empty)

	if _, err := repo.ListRecent(context.Background(), 500); err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("limit was not capped: %v", err)
	}
}

func TestListRecentJoinsOwner(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "image_ref", "disease", "confidence", "severity",
		"description", "symptoms", "recommendations", "created_at", "name", "email",
	}).AddRow("an-1", "acc-1", "/uploads/a.jpg", "Acne Vulgaris", 92.0, "Low",
		"", []byte(`[]`), []byte(`[]`), fixedTime, "U", "u@example.com")
	mock.ExpectQuery("join users u on").WithArgs(10).WillReturnRows(rows)
	mock.ExpectQuery("from medications where analysis_id").
		WithArgs("an-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "analysis_id", "name", "dosage", "frequency"}))

	records, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].OwnerName != "U" || records[0].OwnerEmail != "u@example.com" {
		t.Fatalf("owner fields not populated: %+v", records[0])
	}
}

func TestDiseaseDistribution(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows([]string{"disease", "count"}).
		AddRow("Acne Vulgaris", 7).
		AddRow("Psoriasis", 3).
		AddRow("Eczema (Atopic Dermatitis)", 1)
	mock.ExpectQuery("group by disease").WillReturnRows(rows)

	dist, err := repo.DiseaseDistribution(context.Background())
	if err != nil {
		t.Fatalf("DiseaseDistribution: %v", err)
	}
	want := []DiseaseCount{
		{Disease: "Acne Vulgaris", Count: 7},
		{Disease: "Psoriasis", Count: 3},
		{Disease: "Eczema (Atopic Dermatitis)", Count: 1},
	}
	if !reflect.DeepEqual(dist, want) {
		t.Fatalf("unexpected distribution: %v", dist)
	}
}

func TestTotalCount(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	n, err := repo.TotalCount(context.Background())
	if err != nil {
		t.Fatalf("TotalCount: %v", err)
	}
	if n != 11 {
		t.Fatalf("expected 11, got %d", n)
	}
}
