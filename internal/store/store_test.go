package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEnsureSchemaAppliesAllStatementsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	for range schemaStatements {
		mock.ExpectExec("create").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	s := &Store{db: db}
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchemaRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("create").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	s := &Store{db: db}
	if err := s.EnsureSchema(context.Background()); err == nil {
		t.Fatal("expected error from failed DDL")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected rollback: %v", err)
	}
}
