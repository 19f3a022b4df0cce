package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

// SubjectRepository reads the subject catalog: assignments, sets and subjects.
type SubjectRepository struct {
	store docstore.Store
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(store docstore.Store) *SubjectRepository {
	return &SubjectRepository{store: store}
}

type subjectAssignmentDoc struct {
	Level        string `mapstructure:"level"`
	CourseCode   string `mapstructure:"courseCode"`
	YearLevel    int    `mapstructure:"yearLevel"`
	Semester     string `mapstructure:"semester"`
	GradeLevel   int    `mapstructure:"gradeLevel"`
	SubjectSetID string `mapstructure:"subjectSetId"`
}

// ListAssignments returns every subject assignment. Matching is done by the
// caller because legacy assignments mix numeric and string fields.
func (r *SubjectRepository) ListAssignments(ctx context.Context) ([]models.SubjectAssignment, error) {
	docs, err := r.store.List(ctx, CollectionSubjectAssignments)
	if err != nil {
		return nil, fmt.Errorf("list subject assignments: %w", err)
	}
	result := make([]models.SubjectAssignment, 0, len(docs))
	for _, doc := range docs {
		var raw subjectAssignmentDoc
		if err := decode(doc.Data, &raw); err != nil {
			return nil, fmt.Errorf("decode subject assignment %s: %w", doc.ID, err)
		}
		semester, _ := models.ParseSemester(raw.Semester)
		result = append(result, models.SubjectAssignment{
			ID:           doc.ID,
			Level:        models.Level(raw.Level),
			CourseCode:   raw.CourseCode,
			YearLevel:    raw.YearLevel,
			Semester:     semester,
			GradeLevel:   raw.GradeLevel,
			SubjectSetID: raw.SubjectSetID,
		})
	}
	return result, nil
}

// GetSet returns the subject set or nil when it does not exist.
func (r *SubjectRepository) GetSet(ctx context.Context, setID string) (*models.SubjectSet, error) {
	doc, err := r.store.Get(ctx, docstore.Join(CollectionSubjectSets, setID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject set %s: %w", setID, err)
	}
	var raw struct {
		Name       string   `mapstructure:"name"`
		Subjects   []string `mapstructure:"subjects"`
		SubjectIDs []string `mapstructure:"subjectIds"`
	}
	if err := decode(doc.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode subject set %s: %w", setID, err)
	}
	ids := raw.Subjects
	if len(ids) == 0 {
		ids = raw.SubjectIDs
	}
	return &models.SubjectSet{ID: doc.ID, Name: raw.Name, SubjectIDs: ids}, nil
}

// GetSubject returns the subject or nil when it does not exist.
func (r *SubjectRepository) GetSubject(ctx context.Context, subjectID string) (*models.Subject, error) {
	doc, err := r.store.Get(ctx, docstore.Join(CollectionSubjects, subjectID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject %s: %w", subjectID, err)
	}
	var raw struct {
		Name        string `mapstructure:"name"`
		SubjectName string `mapstructure:"subjectName"`
		Title       string `mapstructure:"title"`
	}
	if err := decode(doc.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode subject %s: %w", subjectID, err)
	}
	name := raw.Name
	if name == "" {
		name = raw.SubjectName
	}
	if name == "" {
		name = raw.Title
	}
	return &models.Subject{ID: doc.ID, Name: name}, nil
}
