package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore/memstore"
)

func TestStudentRepositoryProfile(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	repo := NewStudentRepository(store)

	profile, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, profile)

	require.NoError(t, store.Set(ctx, StudentProfilePath("u1"), docstore.Data{
		"personalInfo": docstore.Data{"firstName": "Ana", "lastName": "Cruz"},
		"email":        "ana@example.com",
	}))
	require.NoError(t, repo.SetSchoolStudentID(ctx, "u1", "2025-0001"))

	profile, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, "2025-0001", profile.SchoolStudentID)
	assert.Equal(t, "Ana Cruz", profile.PersonalInfo.FullName())

	doc, err := store.Get(ctx, StudentProfilePath("u1"))
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", doc.Data["email"], "merge keeps unrelated fields")
}

func TestStudentRepositoryLatestID(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(memstore.New())

	latest, err := repo.LatestStudentID(ctx)
	require.NoError(t, err)
	assert.Empty(t, latest)

	require.NoError(t, repo.SetLatestStudentID(ctx, "2025-0042"))
	latest, err = repo.LatestStudentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-0042", latest)
}
