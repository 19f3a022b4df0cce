package service

import (
	"context"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

type enrollmentReader interface {
	GetSubcollection(ctx context.Context, studentID, key string) (*models.StoredEnrollment, error)
	GetTopLevel(ctx context.Context, key string) (*models.StoredEnrollment, error)
	ListSubcollection(ctx context.Context, studentID string) ([]models.StoredEnrollment, error)
	QueryTopLevel(ctx context.Context, studentID, academicYear string) ([]models.StoredEnrollment, error)
}

// ResolveRequest identifies the enrollment being looked up. An empty
// Semester asks for a semester-less (JHS or legacy) record.
type ResolveRequest struct {
	StudentID    string
	AcademicYear string
	Semester     models.Semester
}

// Resolution is a resolved enrollment and the tier that found it.
type Resolution struct {
	models.StoredEnrollment
	Tier int `json:"tier"`
}

type resolutionTier struct {
	name    string
	applies func(ResolveRequest) bool
	lookup  func(context.Context, ResolveRequest) (*models.StoredEnrollment, error)
}

// EnrollmentResolver finds a student's enrollment across the key schemes used
// over time. Cheap direct lookups are tried before scans.
type EnrollmentResolver struct {
	repo    enrollmentReader
	metrics *MetricsService
	logger  *zap.Logger
	tiers   []resolutionTier
}

// NewEnrollmentResolver constructs the resolver.
func NewEnrollmentResolver(repo enrollmentReader, metrics *MetricsService, logger *zap.Logger) *EnrollmentResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &EnrollmentResolver{repo: repo, metrics: metrics, logger: logger}
	r.tiers = []resolutionTier{
		{name: "semester-key", applies: withSemester, lookup: r.semesterKey},
		{name: "subcollection-scan", applies: withSemester, lookup: r.subcollectionScan},
		{name: "legacy-key", applies: always, lookup: r.legacyKey},
		{name: "legacy-subcollection", applies: withoutSemester, lookup: r.legacySubcollection},
		{name: "collection-query", applies: always, lookup: r.collectionQuery},
	}
	return r
}

func withSemester(req ResolveRequest) bool    { return req.Semester != "" }
func withoutSemester(req ResolveRequest) bool { return req.Semester == "" }
func always(ResolveRequest) bool              { return true }

// Resolve walks the tiers in order and returns the first match.
func (r *EnrollmentResolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	if req.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if !ValidAcademicYear(req.AcademicYear) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid academic year")
	}
	for i, tier := range r.tiers {
		if !tier.applies(req) {
			continue
		}
		found, err := tier.lookup(ctx, req)
		if err != nil {
			return nil, appErrors.StoreFailure(err, "failed to resolve enrollment")
		}
		if found == nil {
			continue
		}
		r.metrics.RecordResolution(i + 1)
		r.logger.Debug("enrollment resolved",
			zap.String("student_id", req.StudentID),
			zap.String("tier", tier.name),
			zap.String("path", found.Path))
		return &Resolution{StoredEnrollment: *found, Tier: i + 1}, nil
	}
	r.metrics.RecordResolution(0)
	return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
}

func (r *EnrollmentResolver) semesterKey(ctx context.Context, req ResolveRequest) (*models.StoredEnrollment, error) {
	stored, err := r.repo.GetTopLevel(ctx, SemesterKey(req.StudentID, req.AcademicYear, req.Semester))
	if err != nil || stored == nil {
		return nil, err
	}
	info := stored.Record.EnrollmentInfo
	if info.IsCollege() && info.SchoolYear == req.AcademicYear && info.Semester() == req.Semester {
		return stored, nil
	}
	return nil, nil
}

func (r *EnrollmentResolver) subcollectionScan(ctx context.Context, req ResolveRequest) (*models.StoredEnrollment, error) {
	docs, err := r.repo.ListSubcollection(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		info := docs[i].Record.EnrollmentInfo
		if !info.IsCollege() && !info.IsSHS() {
			continue
		}
		if info.SchoolYear == req.AcademicYear && info.Semester() == req.Semester {
			return &docs[i], nil
		}
	}
	return nil, nil
}

func (r *EnrollmentResolver) legacyKey(ctx context.Context, req ResolveRequest) (*models.StoredEnrollment, error) {
	stored, err := r.repo.GetTopLevel(ctx, LegacyKey(req.StudentID, req.AcademicYear))
	if err != nil || stored == nil {
		return nil, err
	}
	if MatchesRequest(stored.Record.EnrollmentInfo, req) {
		return stored, nil
	}
	return nil, nil
}

func (r *EnrollmentResolver) legacySubcollection(ctx context.Context, req ResolveRequest) (*models.StoredEnrollment, error) {
	stored, err := r.repo.GetSubcollection(ctx, req.StudentID, req.AcademicYear)
	if err != nil {
		return nil, err
	}
	if stored != nil && MatchesRequest(stored.Record.EnrollmentInfo, req) {
		return stored, nil
	}
	docs, err := r.repo.ListSubcollection(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	prefix := JHSKeyPrefix(req.AcademicYear)
	for i := range docs {
		if strings.HasPrefix(path.Base(docs[i].Path), prefix) && MatchesRequest(docs[i].Record.EnrollmentInfo, req) {
			return &docs[i], nil
		}
	}
	return nil, nil
}

func (r *EnrollmentResolver) collectionQuery(ctx context.Context, req ResolveRequest) (*models.StoredEnrollment, error) {
	docs, err := r.repo.QueryTopLevel(ctx, req.StudentID, req.AcademicYear)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if MatchesRequest(docs[i].Record.EnrollmentInfo, req) {
			return &docs[i], nil
		}
	}
	return nil, nil
}

// MatchesRequest applies the identity rule shared by the fallback tiers:
// college and SHS records need a semester match, other records must not be
// SHS and only satisfy semester-less requests.
func MatchesRequest(info models.EnrollmentInfo, req ResolveRequest) bool {
	if info.SchoolYear != req.AcademicYear {
		return false
	}
	if info.IsCollege() || info.IsSHS() {
		return req.Semester != "" && info.Semester() == req.Semester
	}
	return req.Semester == "" && !strings.EqualFold(info.Department(), models.DepartmentSHS)
}
