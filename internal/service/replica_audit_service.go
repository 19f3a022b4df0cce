package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

// Drift states reported by the audit.
const (
	DriftNone    = "OK"
	DriftMissing = "MISSING"
	DriftDiff    = "DIFF"
)

type replicaAuditReader interface {
	ListTopLevel(ctx context.Context, academicYear string) ([]models.StoredEnrollment, error)
	GetSubcollection(ctx context.Context, studentID, key string) (*models.StoredEnrollment, error)
}

// ReplicaDrift compares one top-level enrollment with its student-scoped copy.
type ReplicaDrift struct {
	StudentID     string   `json:"studentId"`
	CohortKey     string   `json:"cohortKey"`
	TopLevel      string   `json:"topLevelPath"`
	Subcollection string   `json:"subcollectionPath,omitempty"`
	State         string   `json:"state"`
	Fields        []string `json:"fields,omitempty"`
}

// ReplicaAuditService reports drift between enrollment replicas without repairing it.
type ReplicaAuditService struct {
	repo   replicaAuditReader
	logger *zap.Logger
}

// NewReplicaAuditService constructs the audit.
func NewReplicaAuditService(repo replicaAuditReader, logger *zap.Logger) *ReplicaAuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplicaAuditService{repo: repo, logger: logger}
}

// Audit walks the top-level enrollments of academicYear (every year when
// empty) and compares each with the subcollection copy.
func (s *ReplicaAuditService) Audit(ctx context.Context, academicYear string) ([]ReplicaDrift, error) {
	if academicYear != "" && !ValidAcademicYear(academicYear) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid academic year")
	}
	tops, err := s.repo.ListTopLevel(ctx, academicYear)
	if err != nil {
		return nil, appErrors.StoreFailure(err, "failed to list enrollments")
	}

	out := make([]ReplicaDrift, 0, len(tops))
	for _, top := range tops {
		drift, err := s.compare(ctx, top)
		if err != nil {
			return nil, err
		}
		if drift.State != DriftNone {
			s.logger.Info("replica drift", zap.String("student_id", drift.StudentID), zap.String("path", drift.TopLevel), zap.String("state", drift.State), zap.Strings("fields", drift.Fields))
		}
		out = append(out, drift)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopLevel < out[j].TopLevel })
	return out, nil
}

func (s *ReplicaAuditService) compare(ctx context.Context, top models.StoredEnrollment) (ReplicaDrift, error) {
	rec := top.Record
	ay := rec.EnrollmentInfo.SchoolYear
	drift := ReplicaDrift{StudentID: rec.StudentID, TopLevel: top.Path, State: DriftMissing}
	if rec.StudentID == "" || !ValidAcademicYear(ay) {
		return drift, nil
	}
	cohortKey, err := CohortKey(ay, rec.EnrollmentInfo)
	if err != nil {
		return drift, nil
	}
	drift.CohortKey = cohortKey

	for _, key := range uniqueIDs([]string{cohortKey, ay}) {
		sub, err := s.repo.GetSubcollection(ctx, rec.StudentID, key)
		if err != nil {
			return ReplicaDrift{}, appErrors.StoreFailure(err, "failed to read enrollment replica")
		}
		if sub == nil {
			continue
		}
		drift.Subcollection = repository.SubcollectionPath(rec.StudentID, key)
		drift.Fields = diffRecords(sub.Record, rec)
		drift.State = DriftNone
		if len(drift.Fields) > 0 {
			drift.State = DriftDiff
		}
		return drift, nil
	}
	return drift, nil
}

// diffRecords lists the replicated fields that disagree.
func diffRecords(a, b models.EnrollmentRecord) []string {
	var fields []string
	ai, bi := a.EnrollmentInfo, b.EnrollmentInfo
	if ai.Status != bi.Status {
		fields = append(fields, "status")
	}
	if ai.SectionID != bi.SectionID {
		fields = append(fields, "sectionId")
	}
	if (ai.EnrollmentDate == nil) != (bi.EnrollmentDate == nil) ||
		(ai.EnrollmentDate != nil && !ai.EnrollmentDate.Equal(*bi.EnrollmentDate)) {
		fields = append(fields, "enrollmentDate")
	}
	if ai.SchoolStudentID != bi.SchoolStudentID {
		fields = append(fields, "schoolStudentId")
	}
	if ai.Level != bi.Level || ai.Semester() != bi.Semester() || LevelLabel(ai) != LevelLabel(bi) {
		fields = append(fields, "level")
	}
	if !sameSet(a.SelectedSubjects, b.SelectedSubjects) {
		fields = append(fields, "selectedSubjects")
	}
	return fields
}

func sameSet(a, b []string) bool {
	a, b = uniqueIDs(a), uniqueIDs(b)
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}
