package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
	"github.com/noah-isme/sma-registrar-api/pkg/middleware/requestid"
)

type repairScheduler interface {
	Schedule(task RepairTask) bool
}

// replicaWriter settles secondary replica writes. A failure never fails the
// operation: it is logged, counted, optionally queued for repair and
// reported as a warning.
type replicaWriter struct {
	logger  *zap.Logger
	metrics *MetricsService
	repairs repairScheduler
}

// settle reports the outcome of a secondary write the caller already ran.
// repair is queued on failure; it must rebuild the replica from current state
// rather than repeat the write.
func (w replicaWriter) settle(ctx context.Context, studentID string, replica models.ReplicaKind, path string, err error, repair func(context.Context) error) *dto.ReplicaWarning {
	if err == nil {
		return nil
	}
	reqID := requestid.FromContext(ctx)
	w.logger.Warn("secondary replica update failed",
		zap.String("request_id", reqID),
		zap.String("student_id", studentID),
		zap.String("replica", string(replica)),
		zap.String("path", path),
		zap.Error(err))
	w.metrics.RecordReplicaDrift(string(replica))

	queued := false
	if w.repairs != nil && repair != nil {
		queued = w.repairs.Schedule(RepairTask{RequestID: reqID, StudentID: studentID, Replica: replica, Path: path, Apply: repair})
	}
	return &dto.ReplicaWarning{
		Code:    appErrors.ErrPartialConsistency.Code,
		Replica: string(replica),
		Path:    path,
		Message: err.Error(),
		Queued:  queued,
	}
}

type warningList []dto.ReplicaWarning

func (l *warningList) add(w *dto.ReplicaWarning) {
	if w != nil {
		*l = append(*l, *w)
	}
}
