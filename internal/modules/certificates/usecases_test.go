package certificates

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-certificates/internal/data/repos/testutil"
	domainagg "github.com/yungbote/neurobridge-certificates/internal/domain/aggregates"
	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/domain/learning"
	"github.com/yungbote/neurobridge-certificates/internal/domain/user"
)

func isHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func TestGenerateCertificateTwoPassBootstrap(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 2, 2, 100)

	res, err := h.issue(t, s)
	if err != nil {
		t.Fatalf("GenerateCertificate: %v", err)
	}
	if !strings.HasSuffix(res.CertificateURL, ".pdf") {
		t.Fatalf("url: want .pdf suffix got=%q", res.CertificateURL)
	}
	if !isHash(res.CertificateHash) {
		t.Fatalf("hash: want 64 lowercase hex got=%q", res.CertificateHash)
	}

	renders := h.renderer.calls()
	if len(renders) != 2 {
		t.Fatalf("renders: want=2 got=%d", len(renders))
	}
	if renders[0] == renders[1] || renders[1] != res.CertificateHash {
		t.Fatalf("render hashes: want [h0, h1=%s] got=%v", res.CertificateHash, renders)
	}
	if h.store.putCount() != 2 || h.store.objectCount() != 1 {
		t.Fatalf("storage: want 2 puts to 1 key got puts=%d objects=%d", h.store.putCount(), h.store.objectCount())
	}

	row, meta := h.row(t, s)
	if row.CertificateID != res.CertificateID || row.CertificateURL != res.CertificateURL {
		t.Fatalf("ledger row does not match result: %+v vs %+v", row, res)
	}
	wantKey := ArtifactKey(s.Student.ID, s.Course.ID, testNow)
	if meta.StorageKey != wantKey || !strings.HasSuffix(res.CertificateURL, wantKey) {
		t.Fatalf("storage key: want=%s got=%s url=%s", wantKey, meta.StorageKey, res.CertificateURL)
	}
	if !bytes.Contains(h.store.object(wantKey), []byte(res.CertificateHash)) {
		t.Fatalf("stored artifact does not embed the final hash")
	}
	if meta.QRStale || meta.RenderedHash != res.CertificateHash {
		t.Fatalf("metadata: want fresh QR got=%+v", meta)
	}
	if meta.StudentName != "Juan Pérez" || meta.InstructorName != "María López" || meta.CourseTitle != "Fundamentos de Go" {
		t.Fatalf("metadata names: got=%+v", meta)
	}
	if row.IssuedAt == nil || !row.IssuedAt.Equal(testNow) {
		t.Fatalf("issued_at: want=%v got=%v", testNow, row.IssuedAt)
	}
	if !strings.Contains(h.exposition(t), `certificate_issue_total{outcome="issued"} 1.000000`) {
		t.Fatalf("issue metric not recorded")
	}
}

func TestGenerateCertificateIsIdempotent(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 2, 2, 100)

	first, err := h.issue(t, s)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := h.issue(t, s)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second {
		t.Fatalf("second call: want=%+v got=%+v", first, second)
	}
	if h.store.putCount() != 2 || len(h.renderer.calls()) != 2 {
		t.Fatalf("second call wrote storage: puts=%d renders=%d", h.store.putCount(), len(h.renderer.calls()))
	}
	if !strings.Contains(h.exposition(t), `certificate_issue_total{outcome="existing"} 1.000000`) {
		t.Fatalf("existing outcome not recorded")
	}
}

func TestGenerateCertificateRequiresEveryLesson(t *testing.T) {
	cases := []struct {
		name      string
		lessons   int
		completed int
	}{
		{"one of two", 2, 1},
		{"four of five at 100 percent", 5, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, harnessOptions{})
			s := testutil.SeedScenario(t, h.db, tc.lessons, tc.completed, 100)

			_, err := h.issue(t, s)
			var certErr *domain.Error
			if !domain.IsCode(err, domain.CodeMissingLessons) || !errors.As(err, &certErr) {
				t.Fatalf("want missing_lessons got=%v", err)
			}
			if certErr.Completed != tc.completed || certErr.Total != tc.lessons {
				t.Fatalf("counts: want={%d,%d} got={%d,%d}", tc.completed, tc.lessons, certErr.Completed, certErr.Total)
			}
			if row, _ := h.row(t, s); row != nil {
				t.Fatalf("ledger row created for incomplete enrollment")
			}
			if h.store.putCount() != 0 {
				t.Fatalf("storage written for incomplete enrollment")
			}
		})
	}
}

func TestGenerateCertificateResumesPlaceholder(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 2, 2, 100)

	// a previous run died after inserting the placeholder
	placeholder, err := h.ledger.InsertPlaceholder(context.Background(), domainagg.InsertPlaceholderInput{
		UserID: s.Student.ID, CourseID: s.Course.ID, EnrollmentID: s.Enrollment.ID,
	})
	if err != nil {
		t.Fatalf("InsertPlaceholder: %v", err)
	}

	res, err := h.issue(t, s)
	if err != nil {
		t.Fatalf("GenerateCertificate: %v", err)
	}
	if res.CertificateID != placeholder.CertificateID {
		t.Fatalf("certificate id: want resumed %s got=%s", placeholder.CertificateID, res.CertificateID)
	}
	if renders := h.renderer.calls(); len(renders) != 2 || renders[0] != placeholder.CertificateHash {
		t.Fatalf("pass 1 must render the placeholder hash: got=%v", renders)
	}
}

func TestGenerateCertificateResumeKeepsPinnedTemplate(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 2, 2, 100)

	pinned := "minimal"
	if _, err := h.ledger.InsertPlaceholder(context.Background(), domainagg.InsertPlaceholderInput{
		UserID: s.Student.ID, CourseID: s.Course.ID, EnrollmentID: s.Enrollment.ID, TemplateID: &pinned,
	}); err != nil {
		t.Fatalf("InsertPlaceholder: %v", err)
	}
	// course switches template while the placeholder is outstanding
	if err := h.db.Model(&learning.Course{}).Where("id = ?", s.Course.ID).
		Update("certificate_template", "classic").Error; err != nil {
		t.Fatalf("switch template: %v", err)
	}

	if _, err := h.issue(t, s); err != nil {
		t.Fatalf("GenerateCertificate: %v", err)
	}
	templates := h.renderer.templateIDs()
	if len(templates) == 0 {
		t.Fatalf("no renders recorded")
	}
	for i, id := range templates {
		if id != pinned {
			t.Fatalf("render %d template: want=%s got=%s", i+1, pinned, id)
		}
	}
	row, _ := h.row(t, s)
	if row == nil || row.TemplateID == nil || *row.TemplateID != pinned {
		t.Fatalf("row template: want=%s got=%+v", pinned, row)
	}
}

func TestGenerateCertificateRecoversFromUploadFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 2, 2, 100)
	h.store.failOn[1] = domain.StorageBucketMissing("certificates", "k.pdf", errBoom)

	_, err := h.issue(t, s)
	var certErr *domain.Error
	if !domain.IsCode(err, domain.CodeStorageBucketMissing) || !errors.As(err, &certErr) {
		t.Fatalf("want storage_bucket_missing got=%v", err)
	}
	if certErr.Bucket != "certificates" || certErr.Remediation == "" {
		t.Fatalf("error details: got=%+v", certErr)
	}
	row, _ := h.row(t, s)
	if row == nil || !row.IsPlaceholder() {
		t.Fatalf("failed run must leave a recognisable placeholder, got=%+v", row)
	}

	res, err := h.issue(t, s)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.CertificateID != row.CertificateID {
		t.Fatalf("retry: want certificate %s got=%s", row.CertificateID, res.CertificateID)
	}
	if h.store.putCount() != 3 {
		t.Fatalf("puts: want=3 (1 failed + 2) got=%d", h.store.putCount())
	}
}

func TestGenerateCertificateRenderFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 1, 1, 100)
	h.renderer.failOn[1] = errBoom

	_, err := h.issue(t, s)
	if !domain.IsCode(err, domain.CodeRenderFailed) {
		t.Fatalf("want render_failed got=%v", err)
	}
	if h.store.putCount() != 0 {
		t.Fatalf("upload after failed render")
	}
}

func TestSecondPassFailureIsNotFatalAndReissueRepairs(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 2, 2, 100)
	h.store.failOn[2] = domain.StorageFailure("certificates", "k.pdf", errBoom)

	res, err := h.issue(t, s)
	if err != nil {
		t.Fatalf("pass 2 failure must not fail issuance: %v", err)
	}
	row, meta := h.row(t, s)
	if row.CertificateHash != res.CertificateHash || !meta.QRStale {
		t.Fatalf("want committed row with stale QR, got hash=%s meta=%+v", row.CertificateHash, meta)
	}
	if bytes.Contains(h.store.object(meta.StorageKey), []byte(res.CertificateHash)) {
		t.Fatalf("stored artifact unexpectedly carries the final hash")
	}
	if !strings.Contains(h.exposition(t), "certificate_hash_regeneration_failed_total 1.000000") {
		t.Fatalf("regeneration failure not counted")
	}

	fixed, err := h.uc.ReissueQR(context.Background(), s.Enrollment.ID, false)
	if err != nil {
		t.Fatalf("ReissueQR: %v", err)
	}
	if fixed != res {
		t.Fatalf("ReissueQR changed the certificate: want=%+v got=%+v", res, fixed)
	}
	_, meta = h.row(t, s)
	if meta.QRStale || !bytes.Contains(h.store.object(meta.StorageKey), []byte(res.CertificateHash)) {
		t.Fatalf("ReissueQR did not refresh the artifact: meta=%+v", meta)
	}

	puts := h.store.putCount()
	if _, err := h.uc.ReissueQR(context.Background(), s.Enrollment.ID, false); err != nil {
		t.Fatalf("ReissueQR on fresh QR: %v", err)
	}
	if h.store.putCount() != puts {
		t.Fatalf("ReissueQR rewrote a current artifact")
	}
}

func TestReissueQRErrors(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 1, 1, 100)

	if _, err := h.uc.ReissueQR(context.Background(), s.Enrollment.ID, true); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("no row: want not_found got=%v", err)
	}
	if _, err := h.ledger.InsertPlaceholder(context.Background(), domainagg.InsertPlaceholderInput{
		UserID: s.Student.ID, CourseID: s.Course.ID, EnrollmentID: s.Enrollment.ID,
	}); err != nil {
		t.Fatalf("InsertPlaceholder: %v", err)
	}
	if _, err := h.uc.ReissueQR(context.Background(), s.Enrollment.ID, true); !domain.IsCode(err, domain.CodeInvalidArgument) {
		t.Fatalf("placeholder: want invalid_argument got=%v", err)
	}
}

func TestGenerateCertificatePlaceholderGuard(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 1, 1, 100)
	if err := h.db.Model(&user.User{}).Where("id = ?", s.Instructor.ID).
		Updates(map[string]any{"display_name": "", "username": ""}).Error; err != nil {
		t.Fatalf("blank instructor: %v", err)
	}

	_, err := h.issue(t, s)
	var certErr *domain.Error
	if !errors.As(err, &certErr) || certErr.Code != domain.CodeIncompleteProfileData {
		t.Fatalf("want incomplete_profile_data got=%v", err)
	}
	if len(certErr.Fields) != 1 || certErr.Fields[0] != "instructor_name" {
		t.Fatalf("fields: want=[instructor_name] got=%v", certErr.Fields)
	}
	if row, _ := h.row(t, s); row != nil {
		t.Fatalf("ledger row created despite placeholder guard")
	}
}

func TestGenerateCertificateConcurrentCallsShareOneIssuance(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 2, 2, 100)

	const callers = 8
	results := make([]IssueResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.issue(t, s)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d: want=%+v got=%+v", i, results[0], results[i])
		}
	}
	if h.store.putCount() != 2 || len(h.renderer.calls()) != 2 {
		t.Fatalf("want exactly one issuance, got puts=%d renders=%d", h.store.putCount(), len(h.renderer.calls()))
	}
}

type racingLedger struct {
	LedgerStore
	winnerURL string
}

// CommitURL lets a concurrent issuer commit first.
func (r *racingLedger) CommitURL(ctx context.Context, in domainagg.CommitURLInput) (*domain.LedgerEntry, error) {
	if _, err := r.LedgerStore.CommitURL(ctx, domainagg.CommitURLInput{CertificateID: in.CertificateID, CertificateURL: r.winnerURL}); err != nil {
		return nil, err
	}
	return r.LedgerStore.CommitURL(ctx, in)
}

func TestGenerateCertificateReturnsCommitRaceWinner(t *testing.T) {
	winner := "https://storage.test/certificates/winner.pdf"
	h := newHarness(t, harnessOptions{wrapLedger: func(l LedgerStore) LedgerStore {
		return &racingLedger{LedgerStore: l, winnerURL: winner}
	}})
	s := testutil.SeedScenario(t, h.db, 1, 1, 100)

	res, err := h.issue(t, s)
	if err != nil {
		t.Fatalf("GenerateCertificate: %v", err)
	}
	row, _ := h.row(t, s)
	if res.CertificateURL != winner || res.CertificateHash != row.CertificateHash {
		t.Fatalf("want winner's row got=%+v", res)
	}
	if len(h.renderer.calls()) != 1 {
		t.Fatalf("loser must not run pass 2, renders=%d", len(h.renderer.calls()))
	}
}

func TestGenerateCertificateLocking(t *testing.T) {
	t.Run("busy", func(t *testing.T) {
		locker := &fakeLocker{busy: true}
		h := newHarness(t, harnessOptions{locker: locker})
		s := testutil.SeedScenario(t, h.db, 1, 1, 100)
		_, err := h.issue(t, s)
		var certErr *domain.Error
		if !errors.As(err, &certErr) || certErr.Code != domain.CodeIssuanceInProgress || !certErr.Retryable() {
			t.Fatalf("want retryable issuance_in_progress got=%v", err)
		}
	})
	t.Run("released", func(t *testing.T) {
		locker := &fakeLocker{}
		h := newHarness(t, harnessOptions{locker: locker})
		s := testutil.SeedScenario(t, h.db, 1, 1, 100)
		if _, err := h.issue(t, s); err != nil {
			t.Fatalf("GenerateCertificate: %v", err)
		}
		if locker.acquired != 1 || locker.released != 1 {
			t.Fatalf("lock: want 1/1 got acquired=%d released=%d", locker.acquired, locker.released)
		}
	})
	t.Run("backend down", func(t *testing.T) {
		locker := &fakeLocker{err: errBoom}
		h := newHarness(t, harnessOptions{locker: locker})
		s := testutil.SeedScenario(t, h.db, 1, 1, 100)
		if _, err := h.issue(t, s); err != nil {
			t.Fatalf("lock backend outage must not block issuance: %v", err)
		}
	})
}

func TestGenerateCertificateRejectsForeignEnrollment(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 1, 1, 100)

	_, err := h.uc.GenerateCertificate(context.Background(), s.Enrollment.ID, s.Course.ID, uuid.New())
	if !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("foreign user: want not_found got=%v", err)
	}
	_, err = h.uc.GenerateCertificate(context.Background(), uuid.Nil, s.Course.ID, s.Student.ID)
	if !domain.IsCode(err, domain.CodeInvalidArgument) {
		t.Fatalf("nil enrollment: want invalid_argument got=%v", err)
	}
}

func TestVerifyCertificate(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	s := testutil.SeedScenario(t, h.db, 1, 1, 100)
	res, err := h.issue(t, s)
	if err != nil {
		t.Fatalf("GenerateCertificate: %v", err)
	}

	got, err := h.uc.VerifyCertificate(context.Background(), strings.ToUpper(res.CertificateHash))
	if err != nil {
		t.Fatalf("VerifyCertificate: %v", err)
	}
	if !got.Valid || got.Status != "valid" || got.CertificateID != res.CertificateID || got.CertificateURL != res.CertificateURL {
		t.Fatalf("verification: got=%+v", got)
	}
	if got.StudentName != "Juan Pérez" || got.CourseTitle != "Fundamentos de Go" || got.InstructorName != "María López" {
		t.Fatalf("verification names: got=%+v", got)
	}

	unknown := strings.Repeat("ab", 32)
	if _, err := h.uc.VerifyCertificate(context.Background(), unknown); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("unknown hash: want not_found got=%v", err)
	}
	if _, err := h.uc.VerifyCertificate(context.Background(), "../etc/passwd"); !domain.IsCode(err, domain.CodeInvalidArgument) {
		t.Fatalf("malformed hash: want invalid_argument got=%v", err)
	}
}
