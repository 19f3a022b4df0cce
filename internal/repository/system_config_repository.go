package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

// SystemConfigDocument is the raw content of config/system. Values are
// validated by the service layer.
type SystemConfigDocument struct {
	AcademicYear string               `mapstructure:"academicYear"`
	Semester     string               `mapstructure:"semester"`
	Windows      EnrollmentWindowsDoc `mapstructure:"enrollmentWindows"`
}

// EnrollmentWindowsDoc mirrors the stored window settings.
type EnrollmentWindowsDoc struct {
	College    *EnrollmentWindowDoc `mapstructure:"college"`
	HighSchool *EnrollmentWindowDoc `mapstructure:"high-school"`
}

// EnrollmentWindowDoc is one stored window.
type EnrollmentWindowDoc struct {
	OpensAt  *time.Time `mapstructure:"opensAt"`
	ClosesAt *time.Time `mapstructure:"closesAt"`
}

// SystemConfigRepository reads and writes config/system.
type SystemConfigRepository struct {
	store docstore.Store
}

// NewSystemConfigRepository constructs the repository.
func NewSystemConfigRepository(store docstore.Store) *SystemConfigRepository {
	return &SystemConfigRepository{store: store}
}

// Get returns the stored document or nil when it does not exist.
func (r *SystemConfigRepository) Get(ctx context.Context) (*SystemConfigDocument, error) {
	doc, err := r.store.Get(ctx, SystemConfigPath)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get system config: %w", err)
	}
	var raw SystemConfigDocument
	if err := decode(doc.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode system config: %w", err)
	}
	return &raw, nil
}

// Merge writes the given fields, leaving the others untouched.
func (r *SystemConfigRepository) Merge(ctx context.Context, fields docstore.Data) error {
	fields["updatedAt"] = docstore.ServerTimestamp
	if err := r.store.Merge(ctx, SystemConfigPath, docstore.Compact(fields)); err != nil {
		return fmt.Errorf("merge system config: %w", err)
	}
	return nil
}
