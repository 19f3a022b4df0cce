package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

// StudentRepository manages the student profile document and the school id counter.
type StudentRepository struct {
	store docstore.Store
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(store docstore.Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// FindByID returns the profile or nil when the student document is missing.
func (r *StudentRepository) FindByID(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	doc, err := r.store.Get(ctx, StudentProfilePath(studentID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student %s: %w", studentID, err)
	}
	var raw struct {
		SchoolStudentID string              `mapstructure:"schoolStudentId"`
		PersonalInfo    models.PersonalInfo `mapstructure:"personalInfo"`
	}
	if err := decode(doc.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode student %s: %w", studentID, err)
	}
	return &models.StudentProfile{ID: doc.ID, SchoolStudentID: raw.SchoolStudentID, PersonalInfo: raw.PersonalInfo}, nil
}

// SetSchoolStudentID merges the issued school id into the profile, creating
// the document when needed.
func (r *StudentRepository) SetSchoolStudentID(ctx context.Context, studentID, schoolStudentID string) error {
	err := r.store.Merge(ctx, StudentProfilePath(studentID), docstore.Data{
		"schoolStudentId": schoolStudentID,
		FieldUpdatedAt:    docstore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("update student %s: %w", studentID, err)
	}
	return nil
}

// LatestStudentID returns the last issued school id, empty when none was issued.
func (r *StudentRepository) LatestStudentID(ctx context.Context) (string, error) {
	doc, err := r.store.Get(ctx, StudentIDCounterPath)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get latest student id: %w", err)
	}
	var counter struct {
		LatestID string `mapstructure:"latestId"`
	}
	if err := decode(doc.Data, &counter); err != nil {
		return "", fmt.Errorf("decode latest student id: %w", err)
	}
	return counter.LatestID, nil
}

// SetLatestStudentID records the last issued school id.
func (r *StudentRepository) SetLatestStudentID(ctx context.Context, latestID string) error {
	err := r.store.Merge(ctx, StudentIDCounterPath, docstore.Data{
		"latestId":     latestID,
		FieldUpdatedAt: docstore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("set latest student id: %w", err)
	}
	return nil
}
