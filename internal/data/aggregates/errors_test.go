package aggregates

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/neurobridge-certificates/internal/domain/aggregates"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"validation", ValidationError("bad input"), domainagg.CodeValidation},
		{"conflict sentinel", ConflictError("stale"), domainagg.CodeConflict},
		{"record not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"pg unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), domainagg.CodeConflict},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, domainagg.CodeRetryable},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, domainagg.CodePreconditionFailed},
		{"sqlite unique", errors.New("UNIQUE constraint failed: certificate_ledger.enrollment_id"), domainagg.CodeConflict},
		{"sqlite busy", errors.New("database is locked"), domainagg.CodeRetryable},
		{"other", errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("op", tc.err)
			if !domainagg.IsCode(got, tc.want) {
				t.Fatalf("code: want=%q got=%q (%v)", tc.want, domainagg.CodeOf(got), got)
			}
		})
	}
}

func TestMapErrorPassesThroughAggregateErrors(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeNotFound, "op", "missing", nil)
	if out := MapError("other", in); out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}
