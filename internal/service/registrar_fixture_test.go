package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore/memstore"
)

var fixedNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

// flakyStore fails writes to paths starting with any of the configured prefixes.
type flakyStore struct {
	docstore.Store
	mu         sync.Mutex
	failWrites []string
}

var errInjected = errors.New("injected store failure")

func (f *flakyStore) failOn(prefixes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = prefixes
}

func (f *flakyStore) fails(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, prefix := range f.failWrites {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (f *flakyStore) Set(ctx context.Context, path string, data docstore.Data) error {
	if f.fails(path) {
		return errInjected
	}
	return f.Store.Set(ctx, path, data)
}

func (f *flakyStore) Update(ctx context.Context, path string, updates docstore.Data) error {
	if f.fails(path) {
		return errInjected
	}
	return f.Store.Update(ctx, path, updates)
}

func (f *flakyStore) Merge(ctx context.Context, path string, data docstore.Data) error {
	if f.fails(path) {
		return errInjected
	}
	return f.Store.Merge(ctx, path, data)
}

// recordedRepairs keeps scheduled repair tasks so tests decide when they run.
type recordedRepairs struct {
	mu    sync.Mutex
	tasks []RepairTask
}

func (r *recordedRepairs) Schedule(task RepairTask) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return true
}

func (r *recordedRepairs) runAll(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()
	for _, task := range tasks {
		require.NoError(t, task.Apply(context.Background()), "%s %s", task.Replica, task.Path)
	}
}

type registrarFixture struct {
	store       *flakyStore
	mem         *memstore.Store
	enrollments *repository.EnrollmentRepository
	resolver    *EnrollmentResolver
	config      *SystemConfigService
	grades      *GradeSheetService
	coordinator *EnrollmentService
	sections    *SectionAssignmentService
	metrics     *MetricsService
}

func newRegistrarFixture(t *testing.T) *registrarFixture {
	t.Helper()
	mem := memstore.New().WithClock(func() time.Time { return fixedNow })
	store := &flakyStore{Store: mem}
	enrollments := repository.NewEnrollmentRepository(store)
	metrics := NewMetricsService()

	f := &registrarFixture{
		store:       store,
		mem:         mem,
		enrollments: enrollments,
		resolver:    NewEnrollmentResolver(enrollments, metrics, nil),
		config:      NewSystemConfigService(repository.NewSystemConfigRepository(store), nil, nil, nil, SystemConfigServiceConfig{}),
		grades:      NewGradeSheetService(repository.NewGradeSheetRepository(store), repository.NewSubjectRepository(store), nil),
		metrics:     metrics,
	}
	f.wire(nil)
	return f
}

// withRecordedRepairs rebuilds the services so failed secondary writes are
// recorded instead of dropped.
func (f *registrarFixture) withRecordedRepairs() *recordedRepairs {
	repairs := &recordedRepairs{}
	f.wire(repairs)
	return repairs
}

func (f *registrarFixture) wire(repairs repairScheduler) {
	sectionRepo := repository.NewSectionRepository(f.store)
	f.coordinator = NewEnrollmentService(EnrollmentServiceParams{
		Enrollments: f.enrollments,
		Resolver:    f.resolver,
		Config:      f.config,
		Subjects:    NewSubjectAssignmentService(repository.NewSubjectRepository(f.store), nil),
		GradeSheets: f.grades,
		Students:    repository.NewStudentRepository(f.store),
		Sections:    sectionRepo,
		Repairs:     repairs,
		Metrics:     f.metrics,
		Now:         func() time.Time { return fixedNow },
	})
	f.sections = NewSectionAssignmentService(SectionAssignmentParams{
		Enrollments: f.enrollments,
		Resolver:    f.resolver,
		Config:      f.config,
		Sections:    sectionRepo,
		GradeSheets: f.grades,
		Repairs:     repairs,
		Metrics:     f.metrics,
	})
}

func (f *registrarFixture) put(t *testing.T, path string, data docstore.Data) {
	t.Helper()
	require.NoError(t, f.mem.Set(context.Background(), path, data))
}

func (f *registrarFixture) get(t *testing.T, path string) docstore.Data {
	t.Helper()
	doc, err := f.mem.Get(context.Background(), path)
	require.NoError(t, err)
	return doc.Data
}

func (f *registrarFixture) exists(path string) bool {
	_, err := f.mem.Get(context.Background(), path)
	return err == nil
}

func collegeInfoDoc(semester string) docstore.Data {
	return docstore.Data{
		"level":      "college",
		"courseCode": "BSIT",
		"yearLevel":  1,
		"semester":   semester,
		"schoolYear": "AY2526",
		"status":     "pending",
	}
}
