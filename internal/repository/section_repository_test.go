package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore/memstore"
)

func TestSectionRepositoryRosterMembership(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Set(ctx, SectionPath("sec-a"), docstore.Data{"sectionName": "Rizal", "students": []interface{}{}}))
	require.NoError(t, store.Set(ctx, SectionPath("sec-b"), docstore.Data{"name": "Bonifacio", "students": []interface{}{"u1"}}))
	repo := NewSectionRepository(store)

	require.NoError(t, repo.AddStudent(ctx, "sec-a", "u1"))
	require.NoError(t, repo.AddStudent(ctx, "sec-a", "u1"))

	section, err := repo.Get(ctx, "sec-a")
	require.NoError(t, err)
	assert.Equal(t, "Rizal", section.Name)
	assert.Equal(t, []string{"u1"}, section.Students)

	containing, err := repo.FindContaining(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, containing, 2)
	assert.Equal(t, "sec-a", containing[0].ID)
	assert.Equal(t, "sec-b", containing[1].ID)

	require.NoError(t, repo.RemoveStudent(ctx, "sec-b", "u1"))
	section, err = repo.Get(ctx, "sec-b")
	require.NoError(t, err)
	assert.False(t, section.HasStudent("u1"))

	assert.ErrorIs(t, repo.RemoveStudent(ctx, "missing", "u1"), docstore.ErrNotFound)
}
