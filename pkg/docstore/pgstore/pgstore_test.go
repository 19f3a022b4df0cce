package pgstore

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return New(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestStoreGet(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"path", "data"}).
		AddRow("enrollments/u1_AY2526", []byte(`{"studentId":"u1","enrollmentInfo":{"yearLevel":1}}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT path, data FROM documents WHERE path = $1")).
		WithArgs("enrollments/u1_AY2526").
		WillReturnRows(rows)

	doc, err := store.Get(context.Background(), "enrollments/u1_AY2526")
	require.NoError(t, err)
	assert.Equal(t, "u1_AY2526", doc.ID)
	assert.Equal(t, "u1", doc.Data["studentId"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetNotFound(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT path, data FROM documents WHERE path = $1")).
		WithArgs("config/system").
		WillReturnRows(sqlmock.NewRows([]string{"path", "data"}))

	_, err := store.Get(context.Background(), "config/system")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStoreUpdate(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents WHERE path = $1 FOR UPDATE")).
		WithArgs("sections/s1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"students":["u1"]}`)))
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("sections/s1", "sections", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Update(context.Background(), "sections/s1", docstore.Data{"students": docstore.ArrayUnion("u2")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateMissingRollsBack(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents WHERE path = $1 FOR UPDATE")).
		WithArgs("sections/missing").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))
	mock.ExpectRollback()

	err := store.Update(context.Background(), "sections/missing", docstore.Data{"name": "A"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDelete(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE path = $1")).
		WithArgs("enrollments/u1_AY2526").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "enrollments/u1_AY2526"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreQuery(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"path", "data"}).
		AddRow("enrollments/u1_AY2526", []byte(`{"studentId":"u1"}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT path, data FROM documents WHERE collection = $1 AND data #>> $2 = $3 ORDER BY path")).
		WithArgs("enrollments", sqlmock.AnyArg(), "u1").
		WillReturnRows(rows)

	docs, err := store.Query(context.Background(), "enrollments", docstore.Where("studentId", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildQueryArrayContains(t *testing.T) {
	query, args, err := buildQuery("sections", []docstore.Filter{docstore.ArrayContains("students", "u1")})
	require.NoError(t, err)
	assert.Equal(t, "SELECT path, data FROM documents WHERE collection = $1 AND data #> $2 @> $3::jsonb ORDER BY path", query)
	require.Len(t, args, 3)
	assert.Equal(t, `["u1"]`, args[2])
}
