package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

type systemConfigReader interface {
	Get(ctx context.Context) (models.SystemConfig, error)
}

type subjectResolver interface {
	ResolveAssignedSubjects(ctx context.Context, info models.EnrollmentInfo, fallback []string) ([]string, bool, error)
}

type gradeSheetSyncer interface {
	Sync(ctx context.Context, studentID, key string, meta models.GradeSheetMeta, assigned []string) (GradeSheetSync, error)
	SetSectionName(ctx context.Context, studentID, key, sectionName string) error
	Delete(ctx context.Context, studentID, key string) error
}

type studentProfileWriter interface {
	SetSchoolStudentID(ctx context.Context, studentID, schoolStudentID string) error
}

type sectionReader interface {
	Get(ctx context.Context, sectionID string) (*models.SectionRoster, error)
}

// EnrollmentServiceParams groups the collaborators of EnrollmentService.
type EnrollmentServiceParams struct {
	Enrollments enrollmentStore
	Resolver    *EnrollmentResolver
	Config      systemConfigReader
	Subjects    subjectResolver
	GradeSheets gradeSheetSyncer
	Students    studentProfileWriter
	Sections    sectionReader
	Repairs     repairScheduler
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Now         func() time.Time
}

// SubmitResult describes where a submitted enrollment was written.
type SubmitResult struct {
	CohortKey     string                  `json:"cohortKey"`
	Subcollection string                  `json:"subcollectionPath"`
	TopLevel      string                  `json:"topLevelPath"`
	Record        models.EnrollmentRecord `json:"record"`
}

// EnrollResult describes a completed enrollment.
type EnrollResult struct {
	Record           models.EnrollmentRecord `json:"record"`
	Subcollection    string                  `json:"subcollectionPath"`
	TopLevel         string                  `json:"topLevelPath"`
	SubjectsAssigned bool                    `json:"subjectsFromAssignment"`
	GradeSheet       *GradeSheetSync         `json:"gradeSheet,omitempty"`
}

// DeleteResult lists the documents a delete removed.
type DeleteResult struct {
	Deleted []string `json:"deleted"`
}

// EnrollmentService coordinates enrollment lifecycle transitions across every
// replica of the record. Writes are sequential and not transactional: the
// subcollection copy is primary and other replicas are best effort.
type EnrollmentService struct {
	repo      enrollmentStore
	locator   enrollmentLocator
	config    systemConfigReader
	subjects  subjectResolver
	grades    gradeSheetSyncer
	students  studentProfileWriter
	sections  sectionReader
	replicas  replicaWriter
	repairs   replicaRepairs
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(p EnrollmentServiceParams) *EnrollmentService {
	if p.Validator == nil {
		p.Validator = NewValidator()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	repairs := replicaRepairs{
		repo:     p.Enrollments,
		grades:   p.GradeSheets,
		students: p.Students,
		sections: p.Sections,
		logger:   p.Logger,
	}
	return &EnrollmentService{
		repo:      p.Enrollments,
		locator:   enrollmentLocator{repo: p.Enrollments, resolver: p.Resolver},
		config:    p.Config,
		subjects:  p.Subjects,
		grades:    p.GradeSheets,
		students:  p.Students,
		sections:  p.Sections,
		replicas:  replicaWriter{logger: p.Logger, metrics: p.Metrics, repairs: p.Repairs},
		repairs:   repairs,
		validator: p.Validator,
		logger:    p.Logger,
		now:       p.Now,
	}
}

// Submit records a new pending enrollment in both replicas.
func (s *EnrollmentService) Submit(ctx context.Context, studentID string, req dto.SubmitEnrollmentRequest) dto.OperationResult {
	if strings.TrimSpace(studentID) == "" {
		return dto.Failed(appErrors.Clone(appErrors.ErrValidation, "student id is required"))
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.Failed(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload"))
	}
	semester, ok := models.ParseSemester(req.Semester)
	if !ok {
		return dto.Failed(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid semester %q", req.Semester)))
	}
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return dto.Failed(err)
	}

	ay := req.SchoolYear
	if ay == "" {
		ay = cfg.AcademicYear
	}
	info := buildEnrollmentInfo(req, semester, ay)
	if (info.IsCollege() || info.IsSHS()) && info.Semester() == "" {
		// Semestered cohorts are only resolvable by semester.
		return dto.Failed(appErrors.Clone(appErrors.ErrValidation, "semester is required for college and senior high school enrollments"))
	}
	if window := cfg.Windows.For(info.Level); window != nil && !window.Contains(s.now()) {
		return dto.Failed(appErrors.Clone(appErrors.ErrValidation, "enrollment closed"))
	}

	cohortKey, err := CohortKey(ay, info)
	if err != nil {
		return dto.Failed(err)
	}
	rec := models.EnrollmentRecord{
		StudentID:        studentID,
		PersonalInfo:     req.PersonalInfo,
		EnrollmentInfo:   info,
		SelectedSubjects: uniqueIDs(req.SelectedSubjects),
	}
	subPath := repository.SubcollectionPath(studentID, cohortKey)
	topPath := repository.TopLevelPath(joinKey(studentID, cohortKey))
	stamps := docstore.Data{
		"submittedAt":             docstore.ServerTimestamp,
		repository.FieldUpdatedAt: docstore.ServerTimestamp,
	}

	if err := s.repo.Write(ctx, subPath, rec, stamps); err != nil {
		return dto.Failed(appErrors.StoreFailure(err, "failed to submit enrollment"))
	}
	var warnings warningList
	topErr := s.repo.Write(ctx, topPath, rec, stamps)
	warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaTopLevel, topPath, topErr, s.repairs.topLevel(subPath, topPath)))

	s.logger.Info("enrollment submitted",
		zap.String("student_id", studentID),
		zap.String("cohort_key", cohortKey),
		zap.Int("warnings", len(warnings)))
	return dto.Succeeded(SubmitResult{CohortKey: cohortKey, Subcollection: subPath, TopLevel: topPath, Record: rec}, warnings)
}

func buildEnrollmentInfo(req dto.SubmitEnrollmentRequest, semester models.Semester, ay string) models.EnrollmentInfo {
	info := models.EnrollmentInfo{
		Level:       models.Level(req.Level),
		SchoolYear:  ay,
		Status:      models.EnrollmentStatusPending,
		StudentType: models.StudentType(req.StudentType),
	}
	switch info.Level {
	case models.LevelCollege:
		info.College = &models.CollegeInfo{
			Department: req.Department,
			CourseCode: strings.TrimSpace(req.CourseCode),
			CourseName: req.CourseName,
			YearLevel:  req.YearLevel,
			Semester:   semester,
		}
	case models.LevelHighSchool:
		department := strings.ToUpper(strings.TrimSpace(req.Department))
		if department == "" {
			department = models.DepartmentJHS
			if req.GradeLevel >= 11 {
				department = models.DepartmentSHS
			}
		}
		hs := &models.HighSchoolInfo{Department: department, GradeLevel: req.GradeLevel}
		if department == models.DepartmentSHS {
			hs.Strand = strings.TrimSpace(req.Strand)
			hs.Semester = semester
		}
		info.HighSchool = hs
	}
	return info
}

// Get resolves a student's enrollment. The academic year defaults to the
// configured one.
func (s *EnrollmentService) Get(ctx context.Context, studentID string, query dto.EnrollmentQuery) (*Resolution, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment query")
	}
	semester, ok := models.ParseSemester(query.Semester)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid semester %q", query.Semester))
	}
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	ay := query.AcademicYear
	if ay == "" {
		ay = cfg.AcademicYear
	}
	return s.locator.current(ctx, studentID, cfg, ay, semester)
}

// ListAll returns every top-level enrollment, optionally for one academic year.
func (s *EnrollmentService) ListAll(ctx context.Context, academicYear string) ([]models.StoredEnrollment, error) {
	if academicYear != "" && !ValidAcademicYear(academicYear) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid academic year")
	}
	records, err := s.repo.ListTopLevel(ctx, academicYear)
	if err != nil {
		return nil, appErrors.StoreFailure(err, "failed to list enrollments")
	}
	return records, nil
}

// ListEnrolled returns every top-level enrollment in the enrolled state.
func (s *EnrollmentService) ListEnrolled(ctx context.Context) ([]models.StoredEnrollment, error) {
	records, err := s.repo.ListTopLevelByStatus(ctx, models.EnrollmentStatusEnrolled)
	if err != nil {
		return nil, appErrors.StoreFailure(err, "failed to list enrolled students")
	}
	return records, nil
}

// Enroll moves the current pending enrollment to enrolled, assigns subjects
// and builds the grade sheet.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID string, req dto.EnrollStudentRequest) dto.OperationResult {
	if err := s.validator.Struct(req); err != nil {
		return dto.Failed(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enroll payload"))
	}
	semester, ok := models.ParseSemester(req.Semester)
	if !ok {
		return dto.Failed(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid semester %q", req.Semester)))
	}
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return dto.Failed(err)
	}
	res, err := s.locator.current(ctx, studentID, cfg, cfg.AcademicYear, semester)
	if err != nil {
		return dto.Failed(err)
	}
	rec := res.Record
	if req.Level != "" && !strings.EqualFold(string(rec.EnrollmentInfo.Level), req.Level) {
		return dto.Failed(appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no %s enrollment found", req.Level)))
	}
	located, err := s.locator.replicas(ctx, res)
	if err != nil {
		return dto.Failed(err)
	}
	if rec.StudentID == "" {
		rec.StudentID = studentID
	}

	if located.Subcollection == "" {
		located.Subcollection = repository.SubcollectionPath(studentID, located.CohortKey)
		if err := s.repo.Write(ctx, located.Subcollection, rec, docstore.Data{repository.FieldUpdatedAt: docstore.ServerTimestamp}); err != nil {
			return dto.Failed(appErrors.StoreFailure(err, "failed to restore enrollment"))
		}
		s.logger.Info("restored missing subcollection enrollment",
			zap.String("student_id", studentID), zap.String("path", located.Subcollection))
	}

	fallback := req.SubjectIDs
	if len(fallback) == 0 {
		fallback = rec.SelectedSubjects
	}
	subjects, fromAssignment, err := s.subjects.ResolveAssignedSubjects(ctx, rec.EnrollmentInfo, fallback)
	if err != nil {
		return dto.Failed(appErrors.StoreFailure(err, "failed to resolve assigned subjects"))
	}

	now := s.now().UTC()
	rec.EnrollmentInfo.Status = models.EnrollmentStatusEnrolled
	rec.EnrollmentInfo.EnrollmentDate = &now
	rec.SelectedSubjects = subjects
	updates := docstore.Data{
		repository.FieldStatus:         string(models.EnrollmentStatusEnrolled),
		repository.FieldEnrollmentDate: now,
		"selectedSubjects":             toInterfaces(subjects),
		repository.FieldUpdatedAt:      docstore.ServerTimestamp,
	}
	setIfPresent(updates, "enrollmentInfo.orNumber", req.ORNumber, &rec.EnrollmentInfo.ORNumber)
	setIfPresent(updates, "enrollmentInfo.scholarship", req.Scholarship, &rec.EnrollmentInfo.Scholarship)
	setIfPresent(updates, "enrollmentInfo.schoolStudentId", req.SchoolStudentID, &rec.EnrollmentInfo.SchoolStudentID)
	if req.StudentType != "" {
		updates["enrollmentInfo.studentType"] = req.StudentType
		rec.EnrollmentInfo.StudentType = models.StudentType(req.StudentType)
	}

	if err := s.repo.Patch(ctx, located.Subcollection, updates); err != nil {
		return dto.Failed(appErrors.StoreFailure(err, "failed to enroll student"))
	}

	var warnings warningList
	if req.SchoolStudentID != "" {
		profileErr := s.students.SetSchoolStudentID(ctx, studentID, req.SchoolStudentID)
		warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaProfile, repository.StudentProfilePath(studentID), profileErr,
			s.repairs.profile(studentID, located.Subcollection)))
	}

	gradeKey := located.GradeKey()
	meta := gradeSheetMeta(rec, lookupSectionName(ctx, s.sections, s.logger, rec.EnrollmentInfo.SectionID))
	var sync *GradeSheetSync
	synced, syncErr := s.grades.Sync(ctx, studentID, gradeKey, meta, subjects)
	if syncErr == nil {
		sync = &synced
	}
	warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaGradeSheet, repository.GradeSheetPath(studentID, gradeKey), syncErr,
		s.repairs.gradeSheet(studentID, located.Subcollection, gradeKey)))

	topPath := located.TopLevel
	var topErr error
	if topPath != "" {
		topErr = s.repo.Patch(ctx, topPath, updates)
	} else {
		topPath = repository.TopLevelPath(joinKey(studentID, located.CohortKey))
		topErr = s.repo.Write(ctx, topPath, rec, docstore.Data{repository.FieldUpdatedAt: docstore.ServerTimestamp})
	}
	warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaTopLevel, topPath, topErr, s.repairs.topLevel(located.Subcollection, topPath)))

	s.logger.Info("student enrolled",
		zap.String("student_id", studentID),
		zap.String("path", located.Subcollection),
		zap.Int("subjects", len(subjects)),
		zap.Bool("from_assignment", fromAssignment),
		zap.Int("warnings", len(warnings)))
	return dto.Succeeded(EnrollResult{
		Record:           rec,
		Subcollection:    located.Subcollection,
		TopLevel:         topPath,
		SubjectsAssigned: fromAssignment,
		GradeSheet:       sync,
	}, warnings)
}

// Revoke returns the current enrollment to pending and removes its grade
// sheet once the primary copy is pending.
func (s *EnrollmentService) Revoke(ctx context.Context, studentID string) dto.OperationResult {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return dto.Failed(err)
	}
	res, err := s.locator.current(ctx, studentID, cfg, cfg.AcademicYear, "")
	if err != nil {
		return dto.Failed(err)
	}
	located, err := s.locator.replicas(ctx, res)
	if err != nil {
		return dto.Failed(err)
	}

	updates := docstore.Data{
		repository.FieldStatus:         string(models.EnrollmentStatusPending),
		repository.FieldEnrollmentDate: docstore.DeleteField,
		repository.FieldUpdatedAt:      docstore.ServerTimestamp,
	}
	primary := located.Primary()
	if err := s.repo.Patch(ctx, primary, updates); err != nil {
		return dto.Failed(appErrors.StoreFailure(err, "failed to revoke enrollment"))
	}

	var warnings warningList
	if located.TopLevel != "" && located.TopLevel != primary {
		topErr := s.repo.Patch(ctx, located.TopLevel, updates)
		warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaTopLevel, located.TopLevel, topErr, s.repairs.topLevel(primary, located.TopLevel)))
	}
	gradeKey := located.GradeKey()
	gradeErr := s.grades.Delete(ctx, studentID, gradeKey)
	warnings.add(s.replicas.settle(ctx, studentID, models.ReplicaGradeSheet, repository.GradeSheetPath(studentID, gradeKey), gradeErr,
		s.repairs.gradeSheet(studentID, primary, gradeKey)))

	rec := res.Record
	rec.EnrollmentInfo.Status = models.EnrollmentStatusPending
	rec.EnrollmentInfo.EnrollmentDate = nil
	s.logger.Info("enrollment revoked", zap.String("student_id", studentID), zap.String("path", primary))
	return dto.Succeeded(rec, warnings)
}

// Delete removes both replicas of the resolved enrollment. Deleting an
// enrollment that no longer exists succeeds without removing anything.
func (s *EnrollmentService) Delete(ctx context.Context, studentID string, req dto.DeleteEnrollmentRequest) dto.OperationResult {
	if err := s.validator.Struct(req); err != nil {
		return dto.Failed(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete request"))
	}
	semester, ok := models.ParseSemester(req.Semester)
	if !ok {
		return dto.Failed(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid semester %q", req.Semester)))
	}
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return dto.Failed(err)
	}
	res, err := s.locator.current(ctx, studentID, cfg, cfg.AcademicYear, semester)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			return dto.Succeeded(DeleteResult{Deleted: []string{}}, nil)
		}
		return dto.Failed(err)
	}
	if req.Level != "" && !strings.EqualFold(string(res.Record.EnrollmentInfo.Level), req.Level) {
		return dto.Succeeded(DeleteResult{Deleted: []string{}}, nil)
	}
	located, err := s.locator.replicas(ctx, res)
	if err != nil {
		return dto.Failed(err)
	}

	deleted := []string{}
	for _, p := range []string{located.Subcollection, located.TopLevel} {
		if p == "" {
			continue
		}
		if err := s.repo.Delete(ctx, p); err != nil {
			s.logger.Warn("enrollment delete failed", zap.String("student_id", studentID), zap.String("path", p), zap.Error(err))
			continue
		}
		deleted = append(deleted, p)
	}
	s.logger.Info("enrollment deleted", zap.String("student_id", studentID), zap.Strings("paths", deleted))
	return dto.Succeeded(DeleteResult{Deleted: deleted}, nil)
}

func setIfPresent(updates docstore.Data, field, value string, target *string) {
	if value == "" {
		return
	}
	updates[field] = value
	*target = value
}

func toInterfaces(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
