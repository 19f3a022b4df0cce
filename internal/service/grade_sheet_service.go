package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

type gradeSheetStore interface {
	Get(ctx context.Context, studentID, key string) (*models.GradeSheet, error)
	Create(ctx context.Context, studentID, key string, meta models.GradeSheetMeta, subjects map[string]string) error
	Patch(ctx context.Context, studentID, key string, updates docstore.Data) error
	SetSectionName(ctx context.Context, studentID, key, sectionName string) (bool, error)
	Delete(ctx context.Context, studentID, key string) error
}

type subjectNamer interface {
	GetSubject(ctx context.Context, subjectID string) (*models.Subject, error)
}

// GradeSheetSync summarises what a synchronisation changed.
type GradeSheetSync struct {
	Created bool     `json:"created"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// GradeSheetService keeps a student's grade sheet subjects aligned with the
// cohort assignment without touching grades of subjects that stay assigned.
type GradeSheetService struct {
	sheets   gradeSheetStore
	subjects subjectNamer
	logger   *zap.Logger
}

// NewGradeSheetService constructs the service.
func NewGradeSheetService(sheets gradeSheetStore, subjects subjectNamer, logger *zap.Logger) *GradeSheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeSheetService{sheets: sheets, subjects: subjects, logger: logger}
}

// Sync applies assigned to the sheet at key: new subjects get empty stubs,
// subjects no longer assigned are removed and the rest are left alone.
func (s *GradeSheetService) Sync(ctx context.Context, studentID, key string, meta models.GradeSheetMeta, assigned []string) (GradeSheetSync, error) {
	sheet, err := s.sheets.Get(ctx, studentID, key)
	if err != nil {
		return GradeSheetSync{}, err
	}

	existing := map[string]bool{}
	if sheet != nil {
		for _, id := range sheet.SubjectIDs() {
			existing[id] = true
		}
	}
	wanted := map[string]bool{}
	result := GradeSheetSync{Created: sheet == nil, Added: []string{}, Removed: []string{}}
	for _, id := range assigned {
		wanted[id] = true
		if !existing[id] {
			result.Added = append(result.Added, id)
		}
	}
	for id := range existing {
		if !wanted[id] {
			result.Removed = append(result.Removed, id)
		}
	}
	sort.Strings(result.Added)
	sort.Strings(result.Removed)

	names := make(map[string]string, len(result.Added))
	for _, id := range result.Added {
		name, err := s.subjectName(ctx, id)
		if err != nil {
			return GradeSheetSync{}, err
		}
		names[id] = name
	}

	if sheet == nil {
		if err := s.sheets.Create(ctx, studentID, key, meta, names); err != nil {
			return GradeSheetSync{}, err
		}
		return result, nil
	}

	updates := repository.MetaUpdates(studentID, meta)
	for id, name := range names {
		updates[id] = repository.GradeStub(name)
	}
	for _, id := range result.Removed {
		updates[id] = docstore.DeleteField
	}
	if err := s.sheets.Patch(ctx, studentID, key, updates); err != nil {
		return GradeSheetSync{}, err
	}
	s.logger.Debug("grade sheet synchronised",
		zap.String("student_id", studentID),
		zap.String("key", key),
		zap.Strings("added", result.Added),
		zap.Strings("removed", result.Removed))
	return result, nil
}

func (s *GradeSheetService) subjectName(ctx context.Context, subjectID string) (string, error) {
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return "", err
	}
	if subject == nil || subject.Name == "" {
		return subjectID, nil
	}
	return subject.Name, nil
}

// SetSectionName updates the sheet's section label when the sheet exists.
func (s *GradeSheetService) SetSectionName(ctx context.Context, studentID, key, sectionName string) error {
	_, err := s.sheets.SetSectionName(ctx, studentID, key, sectionName)
	return err
}

// Delete removes the sheet.
func (s *GradeSheetService) Delete(ctx context.Context, studentID, key string) error {
	return s.sheets.Delete(ctx, studentID, key)
}
