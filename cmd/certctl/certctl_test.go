package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := parseID("course", " "+id.String()+" ")
	if err != nil || got != id {
		t.Fatalf("parseID: want=%s got=%s err=%v", id, got, err)
	}
	for _, raw := range []string{"", "nope", uuid.Nil.String()} {
		if _, err := parseID("course", raw); err == nil || !strings.Contains(err.Error(), "--course") {
			t.Fatalf("parseID(%q): want flag error got=%v", raw, err)
		}
	}
}

func TestMigrateSQLite(t *testing.T) {
	t.Setenv("LOG_MODE", "development")
	path := filepath.Join(t.TempDir(), "ledger.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"migrate", "--sqlite", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out.String(), "migrated "+path) {
		t.Fatalf("migrate output: got=%q", out.String())
	}
}

func TestIssueRejectsBadIDsBeforeConnecting(t *testing.T) {
	rootCmd.SetArgs([]string{"issue", "--enrollment", "x", "--course", uuid.NewString(), "--user", uuid.NewString()})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	var errOut bytes.Buffer
	rootCmd.SetErr(&errOut)

	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--enrollment") {
		t.Fatalf("issue: want enrollment error got=%v", err)
	}
}
