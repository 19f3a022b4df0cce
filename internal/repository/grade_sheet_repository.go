package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

var gradeSheetMetaKeys = map[string]bool{
	"studentId":   true,
	"studentName": true,
	"sectionName": true,
	"level":       true,
	"semester":    true,
	"schoolYear":  true,
	"updatedAt":   true,
}

// IsGradeSheetMetaKey reports whether key holds sheet metadata rather than a subject.
func IsGradeSheetMetaKey(key string) bool {
	return gradeSheetMetaKeys[key]
}

// GradeSheetRepository persists students/{id}/studentGrades/{key}.
type GradeSheetRepository struct {
	store docstore.Store
}

// NewGradeSheetRepository constructs the repository.
func NewGradeSheetRepository(store docstore.Store) *GradeSheetRepository {
	return &GradeSheetRepository{store: store}
}

// Get returns the sheet or nil when it does not exist.
func (r *GradeSheetRepository) Get(ctx context.Context, studentID, key string) (*models.GradeSheet, error) {
	path := GradeSheetPath(studentID, key)
	doc, err := r.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get grade sheet %s: %w", path, err)
	}
	return decodeGradeSheet(doc.Data)
}

// Create writes a new sheet with metadata and the given subject stubs.
func (r *GradeSheetRepository) Create(ctx context.Context, studentID, key string, meta models.GradeSheetMeta, subjects map[string]string) error {
	data := gradeSheetMetaData(studentID, meta)
	data["updatedAt"] = docstore.ServerTimestamp
	for id, name := range subjects {
		data[id] = GradeStub(name)
	}
	path := GradeSheetPath(studentID, key)
	if err := r.store.Set(ctx, path, data); err != nil {
		return fmt.Errorf("create grade sheet %s: %w", path, err)
	}
	return nil
}

// Patch applies top-level field updates. Grade stubs carry explicit nulls and
// are written as given.
func (r *GradeSheetRepository) Patch(ctx context.Context, studentID, key string, updates docstore.Data) error {
	path := GradeSheetPath(studentID, key)
	if err := r.store.Update(ctx, path, updates); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return fmt.Errorf("patch grade sheet %s: %w", path, err)
	}
	return nil
}

// SetSectionName updates the denormalised section label of an existing sheet.
// Missing sheets are left alone and reported with found=false.
func (r *GradeSheetRepository) SetSectionName(ctx context.Context, studentID, key, sectionName string) (bool, error) {
	err := r.Patch(ctx, studentID, key, docstore.Data{
		"sectionName": sectionName,
		"updatedAt":   docstore.ServerTimestamp,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// GradeStub is a subject entry with the four period slots empty.
func GradeStub(subjectName string) docstore.Data {
	return docstore.Data{
		"subjectName":  subjectName,
		"firstPeriod":  nil,
		"secondPeriod": nil,
		"thirdPeriod":  nil,
		"fourthPeriod": nil,
	}
}

func gradeSheetMetaData(studentID string, meta models.GradeSheetMeta) docstore.Data {
	return docstore.Data{
		"studentId":   studentID,
		"studentName": meta.StudentName,
		"sectionName": meta.SectionName,
		"level":       meta.Level,
		"semester":    meta.Semester,
		"schoolYear":  meta.SchoolYear,
	}
}

// MetaUpdates returns the metadata fields as a patch.
func MetaUpdates(studentID string, meta models.GradeSheetMeta) docstore.Data {
	data := gradeSheetMetaData(studentID, meta)
	data["updatedAt"] = docstore.ServerTimestamp
	return data
}

func decodeGradeSheet(data docstore.Data) (*models.GradeSheet, error) {
	sheet := &models.GradeSheet{Subjects: map[string]models.SubjectGrades{}}
	meta := map[string]interface{}{}
	for key, value := range data {
		if IsGradeSheetMetaKey(key) {
			meta[key] = value
			continue
		}
		entry, ok := value.(map[string]interface{})
		if !ok {
			// Malformed entries are still subject keys so a sync can remove them.
			sheet.Subjects[key] = models.SubjectGrades{}
			continue
		}
		var grades models.SubjectGrades
		if err := decode(entry, &grades); err != nil {
			return nil, fmt.Errorf("decode subject %s: %w", key, err)
		}
		sheet.Subjects[key] = grades
	}
	var header struct {
		StudentID   string `mapstructure:"studentId"`
		StudentName string `mapstructure:"studentName"`
		SectionName string `mapstructure:"sectionName"`
		Level       string `mapstructure:"level"`
		Semester    string `mapstructure:"semester"`
		SchoolYear  string `mapstructure:"schoolYear"`
	}
	if err := decode(meta, &header); err != nil {
		return nil, fmt.Errorf("decode grade sheet metadata: %w", err)
	}
	sheet.StudentID = header.StudentID
	sheet.StudentName = header.StudentName
	sheet.SectionName = header.SectionName
	sheet.Level = header.Level
	sheet.Semester = header.Semester
	sheet.SchoolYear = header.SchoolYear
	return sheet, nil
}

// Delete removes the sheet. Missing sheets are ignored.
func (r *GradeSheetRepository) Delete(ctx context.Context, studentID, key string) error {
	path := GradeSheetPath(studentID, key)
	if err := r.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete grade sheet %s: %w", path, err)
	}
	return nil
}
