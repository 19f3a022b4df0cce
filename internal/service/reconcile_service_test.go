package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/internal/models"
)

func TestReconcileRetriesRepair(t *testing.T) {
	svc := NewReconcileService(ReconcileConfig{Enabled: true, Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond}, NewMetricsService(), nil)
	svc.Start(context.Background())
	defer svc.Stop()

	var attempts int32
	done := make(chan struct{})
	queued := svc.Schedule(RepairTask{
		StudentID: "u1",
		Replica:   models.ReplicaTopLevel,
		Path:      "enrollments/u1_AY2526",
		Apply: func(ctx context.Context) error {
			if atomic.AddInt32(&attempts, 1) < 2 {
				return errors.New("still down")
			}
			close(done)
			return nil
		},
	})
	require.True(t, queued)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("repair never applied")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestReconcileCountsExhaustedRepairs(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewReconcileService(ReconcileConfig{Enabled: true, MaxRetries: 1, RetryDelay: time.Millisecond}, metrics, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	require.True(t, svc.Schedule(RepairTask{StudentID: "u1", Apply: func(ctx context.Context) error {
		return errors.New("permanent")
	}}))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.repairJobsFailed) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconcileDisabledRejectsTasks(t *testing.T) {
	svc := NewReconcileService(ReconcileConfig{}, nil, nil)
	svc.Start(context.Background())
	defer svc.Stop()
	assert.False(t, svc.Schedule(RepairTask{Apply: func(ctx context.Context) error { return nil }}))

	var nilSvc *ReconcileService
	assert.False(t, nilSvc.Schedule(RepairTask{}))
}

func TestReplicaWriterQueuesFailedWrites(t *testing.T) {
	f := newRegistrarFixture(t)
	svc := NewReconcileService(ReconcileConfig{Enabled: true, MaxRetries: 5, RetryDelay: 20 * time.Millisecond}, f.metrics, nil)
	svc.Start(context.Background())
	defer svc.Stop()
	coordinator := NewEnrollmentService(EnrollmentServiceParams{
		Enrollments: f.enrollments,
		Resolver:    f.resolver,
		Config:      f.config,
		Subjects:    NewSubjectAssignmentService(nil, nil),
		GradeSheets: f.grades,
		Repairs:     svc,
		Metrics:     f.metrics,
		Now:         func() time.Time { return fixedNow },
	})
	f.store.failOn("enrollments/")

	result := coordinator.Submit(context.Background(), "u1", collegeSubmission())
	require.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.True(t, result.Warnings[0].Queued)

	f.store.failOn()
	assert.Eventually(t, func() bool { return f.exists(bsitTopPath) }, 2*time.Second, 5*time.Millisecond)
}
