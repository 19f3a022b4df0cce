package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

type studentIDCounter interface {
	LatestStudentID(ctx context.Context) (string, error)
	SetLatestStudentID(ctx context.Context, latestID string) error
}

// StudentIDService tracks the last issued school student id.
type StudentIDService struct {
	repo      studentIDCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentIDService constructs the service.
func NewStudentIDService(repo studentIDCounter, validate *validator.Validate, logger *zap.Logger) *StudentIDService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentIDService{repo: repo, validator: validate, logger: logger}
}

// Latest returns the last issued id, empty when none was recorded.
func (s *StudentIDService) Latest(ctx context.Context) (dto.LatestStudentIDResponse, error) {
	id, err := s.repo.LatestStudentID(ctx)
	if err != nil {
		return dto.LatestStudentIDResponse{}, appErrors.StoreFailure(err, "failed to load latest student id")
	}
	return dto.LatestStudentIDResponse{LatestID: id}, nil
}

// Update records id as the last issued one.
func (s *StudentIDService) Update(ctx context.Context, req dto.UpdateLatestStudentIDRequest) dto.OperationResult {
	req.LatestID = strings.TrimSpace(req.LatestID)
	if err := s.validator.Struct(req); err != nil {
		return dto.Failed(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student id payload"))
	}
	if err := s.repo.SetLatestStudentID(ctx, req.LatestID); err != nil {
		return dto.Failed(appErrors.StoreFailure(err, "failed to update latest student id"))
	}
	s.logger.Info("latest student id updated", zap.String("latest_id", req.LatestID))
	return dto.Succeeded(dto.LatestStudentIDResponse{LatestID: req.LatestID}, nil)
}
