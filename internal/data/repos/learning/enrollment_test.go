package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-certificates/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
)

func TestEnrollmentRepoGetScoped(t *testing.T) {
	db := testutil.DB(t)
	repo := NewEnrollmentRepo(db, testutil.Logger(t))
	dbc := dbctx.New(context.Background())
	s := testutil.SeedScenario(t, db, 1, 1, 100)

	got, err := repo.GetScoped(dbc, s.Enrollment.ID, s.Student.ID, s.Course.ID)
	if err != nil {
		t.Fatalf("GetScoped: %v", err)
	}
	if got == nil || got.OverallProgressPercentage != 100 {
		t.Fatalf("GetScoped: want enrollment at 100%% got=%+v", got)
	}

	cases := map[string][3]uuid.UUID{
		"wrong user":   {s.Enrollment.ID, s.Instructor.ID, s.Course.ID},
		"wrong course": {s.Enrollment.ID, s.Student.ID, uuid.New()},
		"unknown id":   {uuid.New(), s.Student.ID, s.Course.ID},
		"nil id":       {uuid.Nil, s.Student.ID, s.Course.ID},
	}
	for name, ids := range cases {
		got, err := repo.GetScoped(dbc, ids[0], ids[1], ids[2])
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if got != nil {
			t.Fatalf("%s: want nil got=%+v", name, got)
		}
	}
}
