package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/models"
)

type subjectCatalog interface {
	ListAssignments(ctx context.Context) ([]models.SubjectAssignment, error)
	GetSet(ctx context.Context, setID string) (*models.SubjectSet, error)
	GetSubject(ctx context.Context, subjectID string) (*models.Subject, error)
}

// SubjectAssignmentService maps a cohort onto its assigned subject set.
type SubjectAssignmentService struct {
	catalog subjectCatalog
	logger  *zap.Logger
}

// NewSubjectAssignmentService constructs the service.
func NewSubjectAssignmentService(catalog subjectCatalog, logger *zap.Logger) *SubjectAssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectAssignmentService{catalog: catalog, logger: logger}
}

// ResolveAssignedSubjects returns the subject ids of the set assigned to the
// cohort of info. When the cohort has no assignment, fallback is returned and
// assigned is false.
func (s *SubjectAssignmentService) ResolveAssignedSubjects(ctx context.Context, info models.EnrollmentInfo, fallback []string) (subjects []string, assigned bool, err error) {
	assignments, err := s.catalog.ListAssignments(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, a := range assignments {
		if !assignmentMatches(a, info) {
			continue
		}
		set, err := s.catalog.GetSet(ctx, a.SubjectSetID)
		if err != nil {
			return nil, false, err
		}
		if set == nil {
			s.logger.Warn("subject assignment references missing set",
				zap.String("assignment_id", a.ID), zap.String("subject_set_id", a.SubjectSetID))
			continue
		}
		return uniqueIDs(set.SubjectIDs), true, nil
	}
	return uniqueIDs(fallback), false, nil
}

func assignmentMatches(a models.SubjectAssignment, info models.EnrollmentInfo) bool {
	if !strings.EqualFold(string(a.Level), string(info.Level)) {
		return false
	}
	switch {
	case info.College != nil:
		c := info.College
		return strings.EqualFold(a.CourseCode, c.CourseCode) && a.YearLevel == c.YearLevel && a.Semester == c.Semester
	case info.HighSchool != nil:
		return a.GradeLevel == info.HighSchool.GradeLevel
	}
	return false
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
