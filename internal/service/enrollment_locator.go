package service

import (
	"context"
	"path"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

type enrollmentStore interface {
	enrollmentReader
	Load(ctx context.Context, path string) (*models.StoredEnrollment, error)
	ListTopLevel(ctx context.Context, academicYear string) ([]models.StoredEnrollment, error)
	ListTopLevelByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.StoredEnrollment, error)
	Write(ctx context.Context, path string, rec models.EnrollmentRecord, extra docstore.Data) error
	Patch(ctx context.Context, path string, updates docstore.Data) error
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}

// enrollmentReplicas are the located copies of one enrollment. Empty paths
// mean the copy does not exist.
type enrollmentReplicas struct {
	CohortKey     string
	Subcollection string
	TopLevel      string
}

// Primary is the copy treated as the source of truth.
func (r enrollmentReplicas) Primary() string {
	if r.Subcollection != "" {
		return r.Subcollection
	}
	return r.TopLevel
}

// GradeKey is the key of the grade sheet paired with this enrollment.
func (r enrollmentReplicas) GradeKey() string {
	if r.Subcollection != "" {
		return path.Base(r.Subcollection)
	}
	return r.CohortKey
}

type enrollmentLocator struct {
	repo     enrollmentStore
	resolver *EnrollmentResolver
}

// current resolves the enrollment for a period. Without an explicit semester
// a semester-less record is tried first, then the configured semester.
func (l enrollmentLocator) current(ctx context.Context, studentID string, cfg models.SystemConfig, academicYear string, semester models.Semester) (*Resolution, error) {
	req := ResolveRequest{StudentID: studentID, AcademicYear: academicYear, Semester: semester}
	res, err := l.resolver.Resolve(ctx, req)
	if err == nil || semester != "" || cfg.Semester == "" || !appErrors.Is(err, appErrors.ErrNotFound) {
		return res, err
	}
	req.Semester = cfg.Semester
	return l.resolver.Resolve(ctx, req)
}

// replicas finds the existing copies of a resolved enrollment by probing
// each key scheme the copy may have been written under.
func (l enrollmentLocator) replicas(ctx context.Context, res *Resolution) (enrollmentReplicas, error) {
	rec := res.Record
	ay := rec.EnrollmentInfo.SchoolYear
	if !ValidAcademicYear(ay) {
		// Records without a usable year can only be addressed where they were found.
		out := enrollmentReplicas{CohortKey: path.Base(res.Path)}
		switch res.Replica {
		case models.ReplicaSubcollection:
			out.Subcollection = res.Path
		case models.ReplicaTopLevel:
			out.TopLevel = res.Path
		}
		return out, nil
	}
	cohortKey, err := CohortKey(ay, rec.EnrollmentInfo)
	if err != nil {
		return enrollmentReplicas{}, err
	}
	out := enrollmentReplicas{CohortKey: cohortKey}

	if res.Replica == models.ReplicaSubcollection {
		out.Subcollection = res.Path
	} else {
		out.Subcollection, err = l.firstExisting(ctx, l.subcollectionCandidates(rec.StudentID, ay, cohortKey))
		if err != nil {
			return enrollmentReplicas{}, err
		}
	}
	if res.Replica == models.ReplicaTopLevel {
		out.TopLevel = res.Path
	} else {
		out.TopLevel, err = l.firstExisting(ctx, topLevelCandidates(rec.StudentID, ay, cohortKey, rec.EnrollmentInfo.Semester()))
		if err != nil {
			return enrollmentReplicas{}, err
		}
	}
	return out, nil
}

func (l enrollmentLocator) subcollectionCandidates(studentID, ay, cohortKey string) []string {
	return uniqueIDs([]string{
		repository.SubcollectionPath(studentID, cohortKey),
		repository.SubcollectionPath(studentID, ay),
	})
}

// topLevelCandidates lists top-level keys in the order they are tried.
func topLevelCandidates(studentID, ay, cohortKey string, semester models.Semester) []string {
	candidates := []string{
		repository.TopLevelPath(joinKey(studentID, cohortKey)),
		repository.TopLevelPath(LegacyKey(studentID, ay)),
	}
	if semester != "" {
		candidates = append(candidates, repository.TopLevelPath(SemesterKey(studentID, ay, semester)))
	}
	return uniqueIDs(candidates)
}

func (l enrollmentLocator) firstExisting(ctx context.Context, paths []string) (string, error) {
	for _, p := range paths {
		ok, err := l.repo.Exists(ctx, p)
		if err != nil {
			return "", appErrors.StoreFailure(err, "failed to locate enrollment replica")
		}
		if ok {
			return p, nil
		}
	}
	return "", nil
}
