package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

type sectionRosterStore interface {
	Get(ctx context.Context, sectionID string) (*models.SectionRoster, error)
	AddStudent(ctx context.Context, sectionID, studentID string) error
	RemoveStudent(ctx context.Context, sectionID, studentID string) error
	FindContaining(ctx context.Context, studentID string) ([]models.SectionRoster, error)
}

// SectionAssignmentParams groups the collaborators of SectionAssignmentService.
type SectionAssignmentParams struct {
	Enrollments enrollmentStore
	Resolver    *EnrollmentResolver
	Config      systemConfigReader
	Sections    sectionRosterStore
	GradeSheets gradeSheetSyncer
	Repairs     repairScheduler
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// SectionAssignment is the outcome of an assign or unassign call.
type SectionAssignment struct {
	StudentID       string   `json:"studentId"`
	SectionID       string   `json:"sectionId"`
	PreviousSection string   `json:"previousSectionId,omitempty"`
	EnrollmentPath  string   `json:"enrollmentPath"`
	TopLevelPath    string   `json:"topLevelPath,omitempty"`
	RemovedFrom     []string `json:"removedFrom"`
}

// SectionAssignmentService moves students between section rosters while
// keeping the enrollment's sectionId in step.
type SectionAssignmentService struct {
	repo     enrollmentStore
	locator  enrollmentLocator
	config   systemConfigReader
	sections sectionRosterStore
	grades   gradeSheetSyncer
	replicas replicaWriter
	repairs  replicaRepairs
	logger   *zap.Logger
}

// NewSectionAssignmentService constructs the service.
func NewSectionAssignmentService(p SectionAssignmentParams) *SectionAssignmentService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	repairs := replicaRepairs{
		repo:     p.Enrollments,
		grades:   p.GradeSheets,
		sections: p.Sections,
		rosters:  p.Sections,
		logger:   p.Logger,
	}
	return &SectionAssignmentService{
		repo:     p.Enrollments,
		locator:  enrollmentLocator{repo: p.Enrollments, resolver: p.Resolver},
		config:   p.Config,
		sections: p.Sections,
		grades:   p.GradeSheets,
		replicas: replicaWriter{logger: p.Logger, metrics: p.Metrics, repairs: p.Repairs},
		repairs:  repairs,
		logger:   p.Logger,
	}
}

// Assign places the student in sectionID and removes them from any other roster.
func (s *SectionAssignmentService) Assign(ctx context.Context, studentID, sectionID string) dto.OperationResult {
	if studentID == "" || sectionID == "" {
		return dto.Failed(appErrors.Clone(appErrors.ErrValidation, "student id and section id are required"))
	}
	section, err := s.sections.Get(ctx, sectionID)
	if err != nil {
		return dto.Failed(appErrors.StoreFailure(err, "failed to load section"))
	}
	if section == nil {
		return dto.Failed(appErrors.Clone(appErrors.ErrNotFound, "section not found"))
	}
	target, located, err := s.locate(ctx, studentID)
	if err != nil {
		return dto.Failed(err)
	}

	updates := docstore.Data{
		repository.FieldSectionID: sectionID,
		repository.FieldUpdatedAt: docstore.ServerTimestamp,
	}
	primary := target.Path
	if err := s.repo.Patch(ctx, primary, updates); err != nil {
		return dto.Failed(appErrors.StoreFailure(err, "failed to assign section"))
	}

	result := SectionAssignment{StudentID: studentID, SectionID: sectionID, EnrollmentPath: primary, RemovedFrom: []string{}}
	var warnings warningList
	if top := located.TopLevel; top != "" && top != primary {
		result.TopLevelPath = top
		topErr := s.repo.Patch(ctx, top, updates)
		warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaTopLevel, top, topErr, s.repairs.topLevel(primary, top)))
	}

	previous := target.Record.EnrollmentInfo.SectionID
	if previous != "" && previous != sectionID {
		result.PreviousSection = previous
		if w := s.removeFromRoster(ctx, studentID, primary, previous); w != nil {
			warnings.add(w)
		} else {
			result.RemovedFrom = append(result.RemovedFrom, previous)
		}
	}

	addErr := s.sections.AddStudent(ctx, sectionID, studentID)
	warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaRoster, repository.SectionPath(sectionID), addErr, s.repairs.roster(studentID, primary, sectionID)))

	stale, err := s.sections.FindContaining(ctx, studentID)
	if err != nil {
		s.logger.Warn("roster sweep skipped", zap.String("student_id", studentID), zap.Error(err))
	}
	for _, roster := range stale {
		if roster.ID == sectionID || roster.ID == previous {
			continue
		}
		if w := s.removeFromRoster(ctx, studentID, primary, roster.ID); w != nil {
			warnings.add(w)
			continue
		}
		result.RemovedFrom = append(result.RemovedFrom, roster.ID)
		s.logger.Info("removed student from stale roster", zap.String("student_id", studentID), zap.String("section_id", roster.ID))
	}

	if section.Name != "" {
		gradeKey := located.GradeKey()
		gradeErr := s.grades.SetSectionName(ctx, studentID, gradeKey, section.Name)
		warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaGradeSheet, repository.GradeSheetPath(studentID, gradeKey), gradeErr,
			s.repairs.gradeSheet(studentID, primary, gradeKey)))
	}

	s.logger.Info("section assigned",
		zap.String("student_id", studentID),
		zap.String("section_id", sectionID),
		zap.String("previous_section_id", previous),
		zap.Int("warnings", len(warnings)))
	return dto.Succeeded(result, warnings)
}

// Unassign removes the student from the section's roster. The enrollment's
// sectionId is cleared only when it names that section, so a stale request
// never detaches the student from the section they are actually in.
// Repeating the call is harmless.
func (s *SectionAssignmentService) Unassign(ctx context.Context, studentID, sectionID string) dto.OperationResult {
	if studentID == "" || sectionID == "" {
		return dto.Failed(appErrors.Clone(appErrors.ErrValidation, "student id and section id are required"))
	}
	target, located, err := s.locate(ctx, studentID)
	if err != nil {
		return dto.Failed(err)
	}

	primary := target.Path
	result := SectionAssignment{StudentID: studentID, SectionID: sectionID, EnrollmentPath: primary, RemovedFrom: []string{}}
	var warnings warningList
	current := target.Record.EnrollmentInfo.SectionID
	if current == "" || current == sectionID {
		updates := docstore.Data{
			repository.FieldSectionID: docstore.DeleteField,
			repository.FieldUpdatedAt: docstore.ServerTimestamp,
		}
		if err := s.repo.Patch(ctx, primary, updates); err != nil {
			return dto.Failed(appErrors.StoreFailure(err, "failed to unassign section"))
		}
		if top := located.TopLevel; top != "" && top != primary {
			result.TopLevelPath = top
			topErr := s.repo.Patch(ctx, top, updates)
			warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaTopLevel, top, topErr, s.repairs.topLevel(primary, top)))
		}
		gradeKey := located.GradeKey()
		gradeErr := s.grades.SetSectionName(ctx, studentID, gradeKey, "")
		warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaGradeSheet, repository.GradeSheetPath(studentID, gradeKey), gradeErr,
			s.repairs.gradeSheet(studentID, primary, gradeKey)))
	} else {
		s.logger.Info("enrollment names another section, keeping it",
			zap.String("student_id", studentID),
			zap.String("section_id", sectionID),
			zap.String("current_section_id", current))
	}

	if w := s.removeFromRoster(ctx, studentID, primary, sectionID); w != nil {
		warnings.add(w)
	} else {
		result.RemovedFrom = append(result.RemovedFrom, sectionID)
	}

	s.logger.Info("section unassigned", zap.String("student_id", studentID), zap.String("section_id", sectionID))
	return dto.Succeeded(result, warnings)
}

// removeFromRoster treats a missing section as already clean.
func (s *SectionAssignmentService) removeFromRoster(ctx context.Context, studentID, primary, sectionID string) *dto.ReplicaWarning {
	err := s.sections.RemoveStudent(ctx, sectionID, studentID)
	if errors.Is(err, docstore.ErrNotFound) {
		err = nil
	}
	return s.replicas.settle(ctx, studentID, models.ReplicaRoster, repository.SectionPath(sectionID), err, s.repairs.roster(studentID, primary, sectionID))
}

// locate finds the enrollment to carry the section: the resolved current
// record first, then the best subcollection document for the configured
// period, then any subcollection document.
func (s *SectionAssignmentService) locate(ctx context.Context, studentID string) (*Resolution, enrollmentReplicas, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, enrollmentReplicas{}, err
	}
	res, err := s.locator.current(ctx, studentID, cfg, cfg.AcademicYear, "")
	if err != nil && !appErrors.Is(err, appErrors.ErrNotFound) {
		return nil, enrollmentReplicas{}, err
	}
	if res == nil {
		res, err = s.bestSubcollectionMatch(ctx, studentID, cfg)
		if err != nil {
			return nil, enrollmentReplicas{}, err
		}
	}
	located, err := s.locator.replicas(ctx, res)
	if err != nil {
		return nil, enrollmentReplicas{}, err
	}
	if located.Subcollection == "" && located.TopLevel == "" {
		return nil, enrollmentReplicas{}, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	res.Path = located.Primary()
	return res, located, nil
}

func (s *SectionAssignmentService) bestSubcollectionMatch(ctx context.Context, studentID string, cfg models.SystemConfig) (*Resolution, error) {
	docs, err := s.repo.ListSubcollection(ctx, studentID)
	if err != nil {
		return nil, appErrors.StoreFailure(err, "failed to list student enrollments")
	}
	if len(docs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	best, bestScore := 0, -1
	for i, doc := range docs {
		info := doc.Record.EnrollmentInfo
		score := 0
		if info.SchoolYear == cfg.AcademicYear {
			score += 2
		}
		if cfg.Semester != "" && info.Semester() == cfg.Semester {
			score++
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return &Resolution{StoredEnrollment: docs[best]}, nil
}
