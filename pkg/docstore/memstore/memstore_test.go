package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	store := New().WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "students/u1/enrollment/AY2526", docstore.Data{"status": "pending", "submittedAt": docstore.ServerTimestamp}))
	doc, err := store.Get(ctx, "students/u1/enrollment/AY2526")
	require.NoError(t, err)
	assert.Equal(t, "AY2526", doc.ID)
	assert.Equal(t, now, doc.Data["submittedAt"])

	require.NoError(t, store.Update(ctx, "students/u1/enrollment/AY2526", docstore.Data{"status": "enrolled"}))
	err = store.Update(ctx, "students/u1/enrollment/missing", docstore.Data{"status": "enrolled"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "students/u1/enrollment/AY2526"))
	require.NoError(t, store.Delete(ctx, "students/u1/enrollment/AY2526"))
	_, err = store.Get(ctx, "students/u1/enrollment/AY2526")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStoreQueryOnlyDirectChildren(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Set(ctx, "enrollments/u1_AY2526", docstore.Data{"studentId": "u1"}))
	require.NoError(t, store.Set(ctx, "enrollments/u2_AY2526", docstore.Data{"studentId": "u2"}))
	require.NoError(t, store.Set(ctx, "students/u1/enrollment/AY2526", docstore.Data{"studentId": "u1"}))

	docs, err := store.Query(ctx, "enrollments", docstore.Where("studentId", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "enrollments/u1_AY2526", docs[0].Path)

	all, err := store.List(ctx, "enrollments")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Set(ctx, "sections/s1", docstore.Data{"students": []interface{}{"u1"}}))
	doc, err := store.Get(ctx, "sections/s1")
	require.NoError(t, err)
	doc.Data["students"] = []interface{}{"tampered"}

	again, err := store.Get(ctx, "sections/s1")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"u1"}, again.Data["students"])
}
