package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

func TestResolverSemesterKeyTier(t *testing.T) {
	f := newRegistrarFixture(t)
	f.put(t, repository.TopLevelPath("u1_AY2526_first_semester"), docstore.Data{
		"studentId": "u1", "enrollmentInfo": collegeInfoDoc("first-sem"),
	})

	res, err := f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526", Semester: models.SemesterFirst})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tier)
	assert.Equal(t, models.ReplicaTopLevel, res.Replica)
}

func TestResolverSubcollectionScanTier(t *testing.T) {
	f := newRegistrarFixture(t)
	f.put(t, repository.SubcollectionPath("u1", "AY2526_second_semester_STEM_11"), docstore.Data{
		"studentId": "u1",
		"enrollmentInfo": docstore.Data{
			"level": "high-school", "department": "SHS", "strand": "STEM", "gradeLevel": 11,
			"semester": "second-sem", "schoolYear": "AY2526", "status": "pending",
		},
	})

	res, err := f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526", Semester: models.SemesterSecond})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tier)
	assert.True(t, res.Record.EnrollmentInfo.IsSHS())

	_, err = f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526", Semester: models.SemesterFirst})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestResolverLegacyTopLevelTier(t *testing.T) {
	f := newRegistrarFixture(t)
	f.put(t, repository.TopLevelPath("u1_AY2526"), docstore.Data{
		"studentId": "u1", "enrollmentInfo": collegeInfoDoc("first-sem"),
	})

	res, err := f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526", Semester: models.SemesterFirst})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Tier)
	assert.Equal(t, "enrollments/u1_AY2526", res.Path)

	_, err = f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526", Semester: models.SemesterSecond})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestResolverJHSSubcollectionTier(t *testing.T) {
	f := newRegistrarFixture(t)
	f.put(t, repository.SubcollectionPath("u1", "AY2526_JHS_8"), docstore.Data{
		"studentId": "u1",
		"enrollmentInfo": docstore.Data{
			"level": "high-school", "department": "JHS", "gradeLevel": 8, "schoolYear": "AY2526", "status": "pending",
		},
	})

	res, err := f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Tier)
	assert.True(t, res.Record.EnrollmentInfo.IsJHS())
}

func TestResolverCollectionQueryTier(t *testing.T) {
	f := newRegistrarFixture(t)
	f.put(t, repository.TopLevelPath("legacy-import-42"), docstore.Data{
		"studentId": "u1",
		"enrollmentInfo": docstore.Data{
			"gradeLevel": "Grade 9", "department": "JHS", "schoolYear": "AY2526", "status": "enrolled",
		},
	})

	res, err := f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Tier)
	assert.Equal(t, 9, res.Record.EnrollmentInfo.HighSchool.GradeLevel)
}

func TestResolverSkipsMismatchedIdentity(t *testing.T) {
	f := newRegistrarFixture(t)
	info := collegeInfoDoc("first-sem")
	info["schoolYear"] = "AY2425"
	f.put(t, repository.TopLevelPath("u1_AY2526_first_semester"), docstore.Data{"studentId": "u1", "enrollmentInfo": info})

	_, err := f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526", Semester: models.SemesterFirst})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestResolverRejectsSHSForSemesterlessRequest(t *testing.T) {
	f := newRegistrarFixture(t)
	f.put(t, repository.TopLevelPath("u1_AY2526"), docstore.Data{
		"studentId": "u1",
		"enrollmentInfo": docstore.Data{
			"level": "high-school", "department": "SHS", "strand": "STEM", "gradeLevel": 11, "schoolYear": "AY2526",
		},
	})
	_, err := f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "AY2526"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestResolverTierIndependence(t *testing.T) {
	req := ResolveRequest{StudentID: "u1", AcademicYear: "AY2526", Semester: models.SemesterFirst}
	body := docstore.Data{"studentId": "u1", "enrollmentInfo": collegeInfoDoc("first-sem")}
	paths := []string{
		repository.TopLevelPath("u1_AY2526_first_semester"),
		repository.SubcollectionPath("u1", "AY2526_first_semester_BSIT_1"),
		repository.TopLevelPath("u1_AY2526"),
		repository.TopLevelPath("u1_AY2526_first_semester_BSIT_1"),
	}
	var first *models.EnrollmentRecord
	for _, p := range paths {
		f := newRegistrarFixture(t)
		f.put(t, p, body)
		res, err := f.resolver.Resolve(context.Background(), req)
		require.NoError(t, err, p)
		if first == nil {
			first = &res.Record
			continue
		}
		assert.Equal(t, *first, res.Record, p)
	}
}

func TestResolverRecordsTierMetric(t *testing.T) {
	f := newRegistrarFixture(t)
	_, _ = f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "nobody", AcademicYear: "AY2526"})
	assert.Equal(t, uint64(1), f.metrics.Snapshot().Resolutions["miss"])
}

func TestResolverValidatesInput(t *testing.T) {
	f := newRegistrarFixture(t)
	_, err := f.resolver.Resolve(context.Background(), ResolveRequest{StudentID: "u1", AcademicYear: "2526"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
