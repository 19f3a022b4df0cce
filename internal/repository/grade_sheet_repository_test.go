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

func TestGradeSheetRepositoryCreateKeepsNullSlots(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	repo := NewGradeSheetRepository(store)

	meta := models.GradeSheetMeta{StudentName: "Ana Cruz", SectionName: "Rizal", Level: "BSIT 1", Semester: "first-sem", SchoolYear: "AY2526"}
	require.NoError(t, repo.Create(ctx, "u1", "AY2526_first_semester_BSIT_1", meta, map[string]string{"math": "Mathematics"}))

	doc, err := store.Get(ctx, GradeSheetPath("u1", "AY2526_first_semester_BSIT_1"))
	require.NoError(t, err)
	entry := doc.Data["math"].(map[string]interface{})
	assert.Contains(t, entry, "firstPeriod")
	assert.Nil(t, entry["firstPeriod"])

	sheet, err := repo.Get(ctx, "u1", "AY2526_first_semester_BSIT_1")
	require.NoError(t, err)
	assert.Equal(t, "Rizal", sheet.SectionName)
	assert.Equal(t, []string{"math"}, sheet.SubjectIDs())
	assert.Equal(t, "Mathematics", sheet.Subjects["math"].SubjectName)
	assert.Nil(t, sheet.Subjects["math"].FirstPeriod)
}

func TestGradeSheetRepositorySetSectionNameMissing(t *testing.T) {
	repo := NewGradeSheetRepository(memstore.New())
	found, err := repo.SetSectionName(context.Background(), "u1", "AY2526", "Rizal")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGradeSheetRepositoryPatchRemovesSubject(t *testing.T) {
	ctx := context.Background()
	repo := NewGradeSheetRepository(memstore.New())
	require.NoError(t, repo.Create(ctx, "u1", "k", models.GradeSheetMeta{}, map[string]string{"math": "Math", "pe": "PE"}))

	require.NoError(t, repo.Patch(ctx, "u1", "k", docstore.Data{"pe": docstore.DeleteField}))

	sheet, err := repo.Get(ctx, "u1", "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"math"}, sheet.SubjectIDs())
}

func TestGradeSheetRepositoryCountsMalformedSubjects(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Set(ctx, GradeSheetPath("u1", "k"), docstore.Data{
		"studentName": "Ana Cruz",
		"math":        docstore.Data{"subjectName": "Math"},
		"legacy":      "A+",
		"empty":       nil,
	}))

	sheet, err := NewGradeSheetRepository(store).Get(ctx, "u1", "k")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"math", "legacy", "empty"}, sheet.SubjectIDs())
	assert.Equal(t, "Ana Cruz", sheet.StudentName)
}
