package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

type rosterWriter interface {
	AddStudent(ctx context.Context, sectionID, studentID string) error
	RemoveStudent(ctx context.Context, sectionID, studentID string) error
}

// replicaRepairs builds repair tasks that read the primary enrollment when
// they run and rebuild one secondary replica from it. A repair queued before
// a later transition converges on that transition.
type replicaRepairs struct {
	repo     enrollmentStore
	grades   gradeSheetSyncer
	students studentProfileWriter
	sections sectionReader
	rosters  rosterWriter
	logger   *zap.Logger
}

func (r replicaRepairs) primary(ctx context.Context, path string) (*models.EnrollmentRecord, error) {
	stored, err := r.repo.Load(ctx, path)
	if err != nil || stored == nil {
		return nil, err
	}
	rec := stored.Record
	return &rec, nil
}

// topLevel mirrors the primary onto the top-level copy. The copy is removed
// when the primary is gone and recreated when only the copy is missing.
func (r replicaRepairs) topLevel(primary, top string) func(context.Context) error {
	return func(ctx context.Context) error {
		rec, err := r.primary(ctx, primary)
		if err != nil {
			return err
		}
		if rec == nil {
			return r.repo.Delete(ctx, top)
		}
		err = r.repo.Patch(ctx, top, mirroredFields(*rec))
		if errors.Is(err, docstore.ErrNotFound) {
			return r.repo.Write(ctx, top, *rec, docstore.Data{repository.FieldUpdatedAt: docstore.ServerTimestamp})
		}
		return err
	}
}

// gradeSheet keeps the sheet in step with the primary: synced while the
// record is enrolled, absent otherwise.
func (r replicaRepairs) gradeSheet(studentID, primary, key string) func(context.Context) error {
	return func(ctx context.Context) error {
		rec, err := r.primary(ctx, primary)
		if err != nil {
			return err
		}
		if rec == nil || rec.EnrollmentInfo.Status != models.EnrollmentStatusEnrolled {
			return r.grades.Delete(ctx, studentID, key)
		}
		meta := gradeSheetMeta(*rec, lookupSectionName(ctx, r.sections, r.logger, rec.EnrollmentInfo.SectionID))
		_, err = r.grades.Sync(ctx, studentID, key, meta, rec.SelectedSubjects)
		return err
	}
}

func (r replicaRepairs) profile(studentID, primary string) func(context.Context) error {
	return func(ctx context.Context) error {
		rec, err := r.primary(ctx, primary)
		if err != nil || rec == nil || rec.EnrollmentInfo.SchoolStudentID == "" {
			return err
		}
		return r.students.SetSchoolStudentID(ctx, studentID, rec.EnrollmentInfo.SchoolStudentID)
	}
}

// roster lists the student on sectionID exactly when the primary names that section.
func (r replicaRepairs) roster(studentID, primary, sectionID string) func(context.Context) error {
	return func(ctx context.Context) error {
		rec, err := r.primary(ctx, primary)
		if err != nil {
			return err
		}
		if rec != nil && rec.EnrollmentInfo.SectionID == sectionID {
			return r.rosters.AddStudent(ctx, sectionID, studentID)
		}
		err = r.rosters.RemoveStudent(ctx, sectionID, studentID)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return err
	}
}

// mirroredFields are the enrollment fields transitions change after
// submission. Absent values are deleted so the copy matches exactly.
func mirroredFields(rec models.EnrollmentRecord) docstore.Data {
	info := rec.EnrollmentInfo
	fields := docstore.Data{
		repository.FieldStatus:         string(info.Status),
		repository.FieldEnrollmentDate: docstore.DeleteField,
		repository.FieldSectionID:      docstore.DeleteField,
		"selectedSubjects":             toInterfaces(rec.SelectedSubjects),
		repository.FieldUpdatedAt:      docstore.ServerTimestamp,
	}
	if info.EnrollmentDate != nil {
		fields[repository.FieldEnrollmentDate] = *info.EnrollmentDate
	}
	if info.SectionID != "" {
		fields[repository.FieldSectionID] = info.SectionID
	}
	optional := map[string]string{
		"enrollmentInfo.orNumber":        info.ORNumber,
		"enrollmentInfo.scholarship":     info.Scholarship,
		"enrollmentInfo.schoolStudentId": info.SchoolStudentID,
		"enrollmentInfo.studentType":     string(info.StudentType),
	}
	for field, value := range optional {
		if value != "" {
			fields[field] = value
		}
	}
	return fields
}

func gradeSheetMeta(rec models.EnrollmentRecord, sectionName string) models.GradeSheetMeta {
	return models.GradeSheetMeta{
		StudentName: rec.PersonalInfo.FullName(),
		SectionName: sectionName,
		Level:       LevelLabel(rec.EnrollmentInfo),
		Semester:    string(rec.EnrollmentInfo.Semester()),
		SchoolYear:  rec.EnrollmentInfo.SchoolYear,
	}
}

func lookupSectionName(ctx context.Context, sections sectionReader, logger *zap.Logger, sectionID string) string {
	if sectionID == "" || sections == nil {
		return ""
	}
	section, err := sections.Get(ctx, sectionID)
	if err != nil {
		logger.Warn("load section for grade sheet", zap.String("section_id", sectionID), zap.Error(err))
		return ""
	}
	if section == nil {
		return ""
	}
	return section.Name
}
