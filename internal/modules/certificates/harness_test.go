package certificates

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/data/aggregates"
	"github.com/yungbote/neurobridge-certificates/internal/data/repos"
	"github.com/yungbote/neurobridge-certificates/internal/data/repos/testutil"
	domainagg "github.com/yungbote/neurobridge-certificates/internal/domain/aggregates"
	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
)

var testNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

type fakeRenderer struct {
	mu        sync.Mutex
	hashes    []string
	templates []string
	failOn    map[int]error
}

func (r *fakeRenderer) Render(data CertificateData, hash string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes = append(r.hashes, hash)
	r.templates = append(r.templates, data.TemplateID)
	if err := r.failOn[len(r.hashes)]; err != nil {
		return nil, err
	}
	return []byte("%PDF-fake|" + data.StudentName + "|" + hash), nil
}

func (r *fakeRenderer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.hashes...)
}

func (r *fakeRenderer) templateIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.templates...)
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
	failOn  map[int]error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, failOn: map[int]error{}}
}

func (s *memoryStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, key)
	if err := s.failOn[len(s.puts)]; err != nil {
		return "", err
	}
	s.objects[key] = append([]byte(nil), data...)
	return "https://storage.test/certificates/" + key, nil
}

func (s *memoryStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

func (s *memoryStore) object(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

func (s *memoryStore) objectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type fakeLocker struct {
	mu       sync.Mutex
	busy     bool
	err      error
	acquired int
	released int
}

type fakeLease struct{ l *fakeLocker }

func (l *fakeLocker) Acquire(ctx context.Context, name string) (Unlocker, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return nil, ErrLockBusy
	}
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return fakeLease{l: l}, nil
}

func (f fakeLease) Release(ctx context.Context) error {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	f.l.released++
	return nil
}

type harnessOptions struct {
	wrapLedger func(LedgerStore) LedgerStore
	locker     Locker
}

type harness struct {
	db       *gorm.DB
	ledger   domainagg.CertificateLedgerAggregate
	renderer *fakeRenderer
	store    *memoryStore
	metrics  *observability.Metrics
	uc       Usecases
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clock := func() time.Time { return testNow }

	h := &harness{
		db: db,
		ledger: aggregates.NewCertificateLedgerAggregate(aggregates.CertificateLedgerAggregateDeps{
			Base:     aggregates.BaseDeps{DB: db, Log: log},
			HashSalt: "test-salt",
			Now:      clock,
		}),
		renderer: &fakeRenderer{failOn: map[int]error{}},
		store:    newMemoryStore(),
		metrics:  observability.New(),
	}
	var ledger LedgerStore = h.ledger
	if opts.wrapLedger != nil {
		ledger = opts.wrapLedger(ledger)
	}
	h.uc = New(UsecasesDeps{
		Log: log,
		Completion: NewCompletionVerifier(CompletionVerifierDeps{
			Log:         log,
			Enrollments: repos.NewEnrollmentRepo(db, log),
			Curriculum:  repos.NewCurriculumRepo(db, log),
		}),
		Aggregator: NewDataAggregator(DataAggregatorDeps{
			Log:     log,
			Courses: repos.NewCourseRepo(db, log),
			Users:   repos.NewUserRepo(db, log),
			Now:     clock,
		}),
		Coordinator: NewCoordinator(CoordinatorDeps{
			Log:       log,
			Ledger:    ledger,
			Renderer:  h.renderer,
			Artifacts: h.store,
			Metrics:   h.metrics,
			Now:       clock,
		}),
		Ledger:  ledger,
		Locker:  opts.locker,
		Metrics: h.metrics,
	})
	return h
}

func (h *harness) issue(t *testing.T, s testutil.Scenario) (IssueResult, error) {
	t.Helper()
	return h.uc.GenerateCertificate(context.Background(), s.Enrollment.ID, s.Course.ID, s.Student.ID)
}

func (h *harness) row(t *testing.T, s testutil.Scenario) (*domain.LedgerEntry, domain.Metadata) {
	t.Helper()
	row, err := h.ledger.FindByEnrollment(context.Background(), s.Enrollment.ID)
	if err != nil {
		t.Fatalf("FindByEnrollment: %v", err)
	}
	if row == nil {
		return nil, domain.Metadata{}
	}
	meta, err := row.DecodeMetadata()
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	return row, meta
}

func (h *harness) exposition(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := h.metrics.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	return buf.String()
}

var errBoom = errors.New("boom")
