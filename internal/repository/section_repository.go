package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

// SectionRepository manages section rosters stored under sections/{id}.
type SectionRepository struct {
	store docstore.Store
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(store docstore.Store) *SectionRepository {
	return &SectionRepository{store: store}
}

type sectionDoc struct {
	Name        string   `mapstructure:"name"`
	SectionName string   `mapstructure:"sectionName"`
	Students    []string `mapstructure:"students"`
	Department  string   `mapstructure:"department"`
	GradeLevel  int      `mapstructure:"gradeLevel"`
	CourseCode  string   `mapstructure:"courseCode"`
}

// Get returns the section or nil when it does not exist.
func (r *SectionRepository) Get(ctx context.Context, sectionID string) (*models.SectionRoster, error) {
	doc, err := r.store.Get(ctx, SectionPath(sectionID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get section %s: %w", sectionID, err)
	}
	return decodeSection(*doc)
}

// AddStudent adds studentID to the roster; adding twice is a no-op.
func (r *SectionRepository) AddStudent(ctx context.Context, sectionID, studentID string) error {
	return r.patchStudents(ctx, sectionID, docstore.ArrayUnion(studentID))
}

// RemoveStudent removes studentID from the roster. A missing section is
// reported as docstore.ErrNotFound.
func (r *SectionRepository) RemoveStudent(ctx context.Context, sectionID, studentID string) error {
	return r.patchStudents(ctx, sectionID, docstore.ArrayRemove(studentID))
}

func (r *SectionRepository) patchStudents(ctx context.Context, sectionID string, op interface{}) error {
	err := r.store.Update(ctx, SectionPath(sectionID), docstore.Data{
		FieldRosterStudents: op,
		FieldUpdatedAt:      docstore.ServerTimestamp,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update roster %s: %w", sectionID, err)
	}
	return nil
}

// FindContaining returns every section whose roster lists studentID.
func (r *SectionRepository) FindContaining(ctx context.Context, studentID string) ([]models.SectionRoster, error) {
	docs, err := r.store.Query(ctx, CollectionSections, docstore.ArrayContains(FieldRosterStudents, studentID))
	if err != nil {
		return nil, fmt.Errorf("query rosters containing %s: %w", studentID, err)
	}
	result := make([]models.SectionRoster, 0, len(docs))
	for _, doc := range docs {
		section, err := decodeSection(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, *section)
	}
	return result, nil
}

func decodeSection(doc docstore.Document) (*models.SectionRoster, error) {
	var raw sectionDoc
	if err := decode(doc.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode section %s: %w", doc.ID, err)
	}
	name := raw.Name
	if name == "" {
		name = raw.SectionName
	}
	students := raw.Students
	if students == nil {
		students = []string{}
	}
	return &models.SectionRoster{
		ID:         doc.ID,
		Name:       name,
		Students:   students,
		Department: raw.Department,
		GradeLevel: raw.GradeLevel,
		CourseCode: raw.CourseCode,
	}, nil
}
