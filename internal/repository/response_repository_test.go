package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "idx_responses_exam_student_attempt"}
	if !isUniqueViolation(dup) {
		t.Error("unique violation not recognized")
	}
	if !isUniqueViolation(fmt.Errorf("insert response: %w", dup)) {
		t.Error("wrapped unique violation not recognized")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation misread as unique violation")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Error("plain error misread as unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil misread as unique violation")
	}
}
