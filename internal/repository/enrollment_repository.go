package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

// EnrollmentRepository reads and writes the two enrollment replicas:
// students/{id}/enrollment/{key} and enrollments/{key}.
type EnrollmentRepository struct {
	store docstore.Store
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(store docstore.Store) *EnrollmentRepository {
	return &EnrollmentRepository{store: store}
}

// GetSubcollection loads students/{id}/enrollment/{key}. A missing document
// yields nil without error.
func (r *EnrollmentRepository) GetSubcollection(ctx context.Context, studentID, key string) (*models.StoredEnrollment, error) {
	return r.get(ctx, SubcollectionPath(studentID, key), models.ReplicaSubcollection)
}

// GetTopLevel loads enrollments/{key}. A missing document yields nil without error.
func (r *EnrollmentRepository) GetTopLevel(ctx context.Context, key string) (*models.StoredEnrollment, error) {
	return r.get(ctx, TopLevelPath(key), models.ReplicaTopLevel)
}

// Load reads the enrollment at path from whichever replica it names. A missing
// document yields nil without error.
func (r *EnrollmentRepository) Load(ctx context.Context, path string) (*models.StoredEnrollment, error) {
	replica := models.ReplicaSubcollection
	if strings.HasPrefix(path, CollectionEnrollments+"/") {
		replica = models.ReplicaTopLevel
	}
	return r.get(ctx, path, replica)
}

func (r *EnrollmentRepository) get(ctx context.Context, path string, replica models.ReplicaKind) (*models.StoredEnrollment, error) {
	doc, err := r.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment %s: %w", path, err)
	}
	return toStored(*doc, replica)
}

// ListSubcollection returns every enrollment document of a student.
func (r *EnrollmentRepository) ListSubcollection(ctx context.Context, studentID string) ([]models.StoredEnrollment, error) {
	docs, err := r.store.List(ctx, StudentEnrollmentCollection(studentID))
	if err != nil {
		return nil, fmt.Errorf("list enrollments of %s: %w", studentID, err)
	}
	return toStoredList(docs, models.ReplicaSubcollection)
}

// QueryTopLevel returns top-level documents of a student for an academic year.
func (r *EnrollmentRepository) QueryTopLevel(ctx context.Context, studentID, academicYear string) ([]models.StoredEnrollment, error) {
	docs, err := r.store.Query(ctx, CollectionEnrollments,
		docstore.Where(FieldStudentID, studentID),
		docstore.Where(FieldSchoolYear, academicYear),
	)
	if err != nil {
		return nil, fmt.Errorf("query enrollments of %s: %w", studentID, err)
	}
	return toStoredList(docs, models.ReplicaTopLevel)
}

// ListTopLevel returns top-level documents, restricted to one academic year
// when academicYear is not empty.
func (r *EnrollmentRepository) ListTopLevel(ctx context.Context, academicYear string) ([]models.StoredEnrollment, error) {
	var filters []docstore.Filter
	if academicYear != "" {
		filters = append(filters, docstore.Where(FieldSchoolYear, academicYear))
	}
	docs, err := r.store.Query(ctx, CollectionEnrollments, filters...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return toStoredList(docs, models.ReplicaTopLevel)
}

// ListTopLevelByStatus returns top-level documents in the given status.
func (r *EnrollmentRepository) ListTopLevelByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.StoredEnrollment, error) {
	docs, err := r.store.Query(ctx, CollectionEnrollments, docstore.Where(FieldStatus, string(status)))
	if err != nil {
		return nil, fmt.Errorf("list %s enrollments: %w", status, err)
	}
	return toStoredList(docs, models.ReplicaTopLevel)
}

// Write overwrites the document at path with the encoded record. Fields set in
// extra are added verbatim, which lets callers use store sentinels.
func (r *EnrollmentRepository) Write(ctx context.Context, path string, rec models.EnrollmentRecord, extra docstore.Data) error {
	data := EncodeEnrollment(rec)
	for k, v := range extra {
		data[k] = v
	}
	if err := r.store.Set(ctx, path, docstore.Compact(data)); err != nil {
		return fmt.Errorf("write enrollment %s: %w", path, err)
	}
	return nil
}

// Patch applies dotted-path updates to an existing document.
func (r *EnrollmentRepository) Patch(ctx context.Context, path string, updates docstore.Data) error {
	if err := r.store.Update(ctx, path, docstore.Compact(updates)); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return fmt.Errorf("patch enrollment %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a document exists at path.
func (r *EnrollmentRepository) Exists(ctx context.Context, path string) (bool, error) {
	_, err := r.store.Get(ctx, path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("get enrollment %s: %w", path, err)
}

// Delete removes the document at path. Missing documents are ignored.
func (r *EnrollmentRepository) Delete(ctx context.Context, path string) error {
	if err := r.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete enrollment %s: %w", path, err)
	}
	return nil
}

func toStored(doc docstore.Document, replica models.ReplicaKind) (*models.StoredEnrollment, error) {
	rec, err := DecodeEnrollment(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("decode enrollment %s: %w", doc.Path, err)
	}
	return &models.StoredEnrollment{Path: doc.Path, Replica: replica, Record: rec}, nil
}

func toStoredList(docs []docstore.Document, replica models.ReplicaKind) ([]models.StoredEnrollment, error) {
	result := make([]models.StoredEnrollment, 0, len(docs))
	for _, doc := range docs {
		stored, err := toStored(doc, replica)
		if err != nil {
			return nil, err
		}
		result = append(result, *stored)
	}
	return result, nil
}
