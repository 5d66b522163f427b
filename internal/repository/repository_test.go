package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestContainsPattern(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"acme", "%acme%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`back\slash`, `%back\\slash%`},
		{"", "%%"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			if got := containsPattern(tc.in); got != tc.want {
				t.Errorf("containsPattern(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})
	plain := errors.New("connection refused")

	if !isUniqueViolation(unique) {
		t.Error("23505 should be a unique violation")
	}
	if isUniqueViolation(fk) {
		t.Error("23503 is not a unique violation")
	}
	if !isForeignKeyViolation(fk) {
		t.Error("23503 should be a foreign key violation")
	}
	if isForeignKeyViolation(plain) || isUniqueViolation(plain) {
		t.Error("non-postgres errors should not be classified")
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a violation")
	}
}
