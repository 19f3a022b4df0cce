package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/jobs"
)

const repairJobType = "replica-repair"

// RepairTask re-applies an idempotent secondary replica write.
type RepairTask struct {
	RequestID string
	StudentID string
	Replica   models.ReplicaKind
	Path      string
	Apply     func(context.Context) error
}

// ReconcileConfig tunes the repair worker pool.
type ReconcileConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// ReconcileService retries secondary replica writes that failed after the
// primary write committed. Drift that outlives the retries is logged and accepted.
type ReconcileService struct {
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewReconcileService builds the service. Start must be called before tasks are accepted.
func NewReconcileService(cfg ReconcileConfig, metrics *MetricsService, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReconcileService{metrics: metrics, logger: logger, enabled: cfg.Enabled}
	s.queue = jobs.NewQueue(repairJobType, s.handle, jobs.QueueConfig{
		Workers:     cfg.Workers,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Logger:      logger,
		OnExhausted: s.exhausted,
	})
	return s
}

// Start launches the workers when reconciliation is enabled.
func (s *ReconcileService) Start(ctx context.Context) {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *ReconcileService) Stop() {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Stop()
}

// Schedule queues task for repair. It reports whether the task was accepted.
func (s *ReconcileService) Schedule(task RepairTask) bool {
	if s == nil || !s.enabled || task.Apply == nil {
		return false
	}
	job := jobs.Job{ID: uuid.NewString(), Type: repairJobType, Payload: task}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("replica repair not queued",
			zap.String("student_id", task.StudentID),
			zap.String("replica", string(task.Replica)),
			zap.String("path", task.Path),
			zap.Error(err))
		return false
	}
	return true
}

func (s *ReconcileService) handle(ctx context.Context, job jobs.Job) error {
	task, ok := job.Payload.(RepairTask)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	if err := task.Apply(ctx); err != nil {
		return err
	}
	s.logger.Info("replica repaired",
		zap.String("job_id", job.ID),
		zap.String("request_id", task.RequestID),
		zap.String("student_id", task.StudentID),
		zap.String("replica", string(task.Replica)),
		zap.String("path", task.Path),
		zap.Int("attempt", job.Attempt))
	return nil
}

func (s *ReconcileService) exhausted(job jobs.Job, err error) {
	s.metrics.RecordRepairExhausted()
	task, _ := job.Payload.(RepairTask)
	s.logger.Error("replica drift accepted after retries",
		zap.String("job_id", job.ID),
		zap.String("request_id", task.RequestID),
		zap.String("student_id", task.StudentID),
		zap.String("replica", string(task.Replica)),
		zap.String("path", task.Path),
		zap.Error(err))
}
