package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore/memstore"
)

func collegeRecord(studentID, ay string) models.EnrollmentRecord {
	return models.EnrollmentRecord{
		StudentID: studentID,
		EnrollmentInfo: models.EnrollmentInfo{
			Level:      models.LevelCollege,
			College:    &models.CollegeInfo{CourseCode: "BSIT", YearLevel: 1, Semester: models.SemesterFirst},
			SchoolYear: ay,
			Status:     models.EnrollmentStatusPending,
		},
	}
}

func TestEnrollmentRepositoryWriteAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentRepository(memstore.New())

	rec := collegeRecord("u1", "AY2526")
	require.NoError(t, repo.Write(ctx, SubcollectionPath("u1", "AY2526_first_semester_BSIT_1"), rec, docstore.Data{
		"submittedAt": docstore.ServerTimestamp,
	}))

	stored, err := repo.GetSubcollection(ctx, "u1", "AY2526_first_semester_BSIT_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.ReplicaSubcollection, stored.Replica)
	assert.Equal(t, "students/u1/enrollment/AY2526_first_semester_BSIT_1", stored.Path)
	assert.NotNil(t, stored.Record.SubmittedAt)

	missing, err := repo.GetTopLevel(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEnrollmentRepositoryQueryTopLevel(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentRepository(memstore.New())

	require.NoError(t, repo.Write(ctx, TopLevelPath("u1_AY2526"), collegeRecord("u1", "AY2526"), nil))
	require.NoError(t, repo.Write(ctx, TopLevelPath("u1_AY2425"), collegeRecord("u1", "AY2425"), nil))
	require.NoError(t, repo.Write(ctx, TopLevelPath("u2_AY2526"), collegeRecord("u2", "AY2526"), nil))

	found, err := repo.QueryTopLevel(ctx, "u1", "AY2526")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "enrollments/u1_AY2526", found[0].Path)

	all, err := repo.ListTopLevel(ctx, "AY2526")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEnrollmentRepositoryPatchMissing(t *testing.T) {
	repo := NewEnrollmentRepository(memstore.New())
	err := repo.Patch(context.Background(), TopLevelPath("nope"), docstore.Data{FieldStatus: "enrolled"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestEnrollmentRepositoryListByStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentRepository(memstore.New())

	require.NoError(t, repo.Write(ctx, TopLevelPath("u1_AY2526"), collegeRecord("u1", "AY2526"), nil))
	require.NoError(t, repo.Write(ctx, TopLevelPath("u2_AY2526"), collegeRecord("u2", "AY2526"), nil))
	require.NoError(t, repo.Patch(ctx, TopLevelPath("u2_AY2526"), docstore.Data{FieldStatus: "enrolled"}))

	enrolled, err := repo.ListTopLevelByStatus(ctx, models.EnrollmentStatusEnrolled)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	assert.Equal(t, "u2", enrolled[0].Record.StudentID)
}

func TestEnrollmentRepositoryLoadInfersReplica(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentRepository(memstore.New())
	rec := collegeRecord("u1", "AY2526")
	require.NoError(t, repo.Write(ctx, TopLevelPath("u1_AY2526"), rec, nil))
	require.NoError(t, repo.Write(ctx, SubcollectionPath("u1", "AY2526"), rec, nil))

	top, err := repo.Load(ctx, TopLevelPath("u1_AY2526"))
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, models.ReplicaTopLevel, top.Replica)

	sub, err := repo.Load(ctx, SubcollectionPath("u1", "AY2526"))
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.ReplicaSubcollection, sub.Replica)

	missing, err := repo.Load(ctx, TopLevelPath("u2_AY2526"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}
