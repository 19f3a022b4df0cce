package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

// FallbackAcademicYear is used when neither the store nor configuration
// provides a valid academic year.
const FallbackAcademicYear = "AY2526"

const systemConfigCacheKey = "registrar:config:system"

type systemConfigRepository interface {
	Get(ctx context.Context) (*repository.SystemConfigDocument, error)
	Merge(ctx context.Context, fields docstore.Data) error
}

// SystemConfigServiceConfig tunes runtime behaviour.
type SystemConfigServiceConfig struct {
	DefaultAcademicYear string
	CacheTTL            time.Duration
}

// SystemConfigService reads and writes config/system.
type SystemConfigService struct {
	repo      systemConfigRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SystemConfigServiceConfig
}

// NewSystemConfigService constructs the service. cache may be nil.
func NewSystemConfigService(repo systemConfigRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg SystemConfigServiceConfig) *SystemConfigService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !ValidAcademicYear(cfg.DefaultAcademicYear) {
		cfg.DefaultAcademicYear = FallbackAcademicYear
	}
	return &SystemConfigService{repo: repo, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// Get returns the current snapshot. A missing document or a malformed
// academic year falls back to the default academic year.
func (s *SystemConfigService) Get(ctx context.Context) (models.SystemConfig, error) {
	var cached models.SystemConfig
	if s.cache.Get(ctx, systemConfigCacheKey, &cached) {
		return cached, nil
	}

	doc, err := s.repo.Get(ctx)
	if err != nil {
		return models.SystemConfig{}, appErrors.StoreFailure(err, "failed to load system config")
	}
	snapshot := s.snapshot(doc)
	s.cache.Set(ctx, systemConfigCacheKey, snapshot, s.cfg.CacheTTL)
	return snapshot, nil
}

func (s *SystemConfigService) snapshot(doc *repository.SystemConfigDocument) models.SystemConfig {
	if doc == nil {
		return models.SystemConfig{AcademicYear: s.cfg.DefaultAcademicYear, Defaulted: true}
	}
	snapshot := models.SystemConfig{AcademicYear: doc.AcademicYear}
	if !ValidAcademicYear(doc.AcademicYear) {
		s.logger.Warn("stored academic year is malformed, using default",
			zap.String("stored", doc.AcademicYear), zap.String("default", s.cfg.DefaultAcademicYear))
		snapshot.AcademicYear = s.cfg.DefaultAcademicYear
		snapshot.Defaulted = true
	}
	if semester, ok := models.ParseSemester(doc.Semester); ok {
		snapshot.Semester = semester
	}
	if w := doc.Windows.College; w != nil {
		snapshot.Windows.College = &models.EnrollmentWindow{OpensAt: w.OpensAt, ClosesAt: w.ClosesAt}
	}
	if w := doc.Windows.HighSchool; w != nil {
		snapshot.Windows.HighSchool = &models.EnrollmentWindow{OpensAt: w.OpensAt, ClosesAt: w.ClosesAt}
	}
	return snapshot
}

// Update validates and merge-writes the active period.
func (s *SystemConfigService) Update(ctx context.Context, req dto.UpdateSystemConfigRequest) dto.OperationResult {
	if err := s.validator.Struct(req); err != nil {
		return dto.Failed(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid system config payload"))
	}

	fields := docstore.Data{"academicYear": req.AcademicYear}
	if req.Semester != "" {
		fields["semester"] = req.Semester
	}
	if req.Windows != nil {
		windows := docstore.Data{}
		for name, w := range map[string]*dto.EnrollmentWindowRequest{"college": req.Windows.College, "high-school": req.Windows.HighSchool} {
			if w == nil {
				continue
			}
			if w.OpensAt != nil && w.ClosesAt != nil && !w.ClosesAt.After(*w.OpensAt) {
				return dto.Failed(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s enrollment window closes before it opens", name)))
			}
			window := docstore.Data{}
			if w.OpensAt != nil {
				window["opensAt"] = w.OpensAt.UTC()
			}
			if w.ClosesAt != nil {
				window["closesAt"] = w.ClosesAt.UTC()
			}
			windows[name] = window
		}
		fields["enrollmentWindows"] = windows
	}

	if err := s.repo.Merge(ctx, fields); err != nil {
		return dto.Failed(appErrors.StoreFailure(err, "failed to update system config"))
	}
	s.cache.Invalidate(ctx, systemConfigCacheKey)
	s.logger.Info("system config updated", zap.String("academic_year", req.AcademicYear), zap.String("semester", req.Semester))

	snapshot, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("reload system config after update", zap.Error(err))
		return dto.Succeeded(nil, nil)
	}
	return dto.Succeeded(snapshot, nil)
}
