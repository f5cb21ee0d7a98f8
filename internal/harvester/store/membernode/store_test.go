package membernode

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dverbeek84/oaibridge/internal/common"
	"github.com/dverbeek84/oaibridge/internal/harvester/store"
	"github.com/dverbeek84/oaibridge/internal/logging"
)

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (noopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (n noopLogger) With(args ...any) logging.Logger                  { return n }

// fakeObjects records payload writes.
type fakeObjects struct {
	keys []string
	err  error
}

func (f *fakeObjects) Put(ctx context.Context, key string, content []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

// fixedClock always returns the same instant.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var versionCols = []string{
	"pid", "series_id", "format_id", "checksum", "checksum_algorithm", "size",
	"date_uploaded", "date_sys_metadata_modified",
	"submitter", "rights_holder", "authoritative_mn", "origin_mn", "access_policy",
	"obsoletes", "obsoleted_by", "archived", "is_current",
}

func versionRow(mock sqlmock.Sqlmock, pid, seriesID string, modified time.Time, archived, current bool) *sqlmock.Rows {
	return mock.NewRows(versionCols).AddRow(
		pid, seriesID, "fmt", "sum", "MD5", int64(10),
		modified, modified,
		"sub", "rh", "amn", "omn", PublicReadAccessPolicy,
		"", "", archived, current,
	)
}

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, *fakeObjects) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	objects := &fakeObjects{}
	clock := fixedClock{now: time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)}
	st := New(db, objects, clock, Settings{
		FormatID:         "fmt",
		DefaultWatermark: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}, noopLogger{})
	return st, mock, objects
}

func TestExists_Found(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)
	modified := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM versions WHERE series_id = \$1 AND is_current`).
		WithArgs("s1").
		WillReturnRows(versionRow(mock, "s1_v1", "s1", modified, false, true))

	ex := st.Exists(context.Background(), "s1")
	assert.Equal(t, store.ExistenceFound, ex.Kind)
	assert.Equal(t, "s1_v1", ex.CurrentVersionID)
	assert.True(t, ex.LastModified.Equal(modified))
}

func TestExists_Missing(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)

	mock.ExpectQuery(`FROM versions WHERE series_id = \$1 AND is_current`).
		WithArgs("s1").
		WillReturnError(sql.ErrNoRows)

	ex := st.Exists(context.Background(), "s1")
	assert.Equal(t, store.ExistenceMissing, ex.Kind)
}

func TestExists_CheckFailed(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)

	mock.ExpectQuery(`FROM versions WHERE series_id = \$1 AND is_current`).
		WithArgs("s1").
		WillReturnError(errors.New("catalog down"))

	ex := st.Exists(context.Background(), "s1")
	assert.Equal(t, store.ExistenceCheckFailed, ex.Kind)
	assert.Error(t, ex.Err)
}

func TestCreate_WritesPayloadThenCatalogRow(t *testing.T) {
	st, mock, objects := newStoreWithMock(t)
	ts := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO versions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pid, err := st.Create(context.Background(), "s1", []byte("<doc/>"), ts)
	require.NoError(t, err)

	assert.Equal(t, MintVersionPID("s1", st.clock.Now()), pid)
	require.Len(t, objects.keys, 1)
	assert.Contains(t, objects.keys[0], pid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_PayloadFailureSkipsCatalog(t *testing.T) {
	st, _, objects := newStoreWithMock(t)
	objects.err = errors.New("bucket unreachable")

	_, err := st.Create(context.Background(), "s1", []byte("<doc/>"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store payload")
}

func TestUpdate_ChainsVersionsInOneTransaction(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	oldModified := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)
	newPID := MintVersionPID("s1", st.clock.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM versions WHERE pid = \$1`).
		WithArgs("s1_v1").
		WillReturnRows(versionRow(mock, "s1_v1", "s1", oldModified, false, true))
	mock.ExpectExec(`UPDATE versions SET is_current = FALSE, obsoleted_by = \$2 WHERE pid = \$1 AND is_current`).
		WithArgs("s1_v1", newPID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO versions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pid, err := st.Update(context.Background(), "s1", []byte("<doc2/>"), ts, "s1_v1")
	require.NoError(t, err)
	assert.Equal(t, newPID, pid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_VanishedCurrentIsConsistencyViolation(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM versions WHERE pid = \$1`).
		WithArgs("s1_v1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := st.Update(context.Background(), "s1", []byte("<doc2/>"), time.Now(), "s1_v1")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorConsistency)
}

func TestUpdate_ArchivedCurrentIsConsistencyViolation(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)
	oldModified := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM versions WHERE pid = \$1`).
		WithArgs("s1_v1").
		WillReturnRows(versionRow(mock, "s1_v1", "s1", oldModified, true, false))
	mock.ExpectRollback()

	_, err := st.Update(context.Background(), "s1", []byte("<doc2/>"), time.Now(), "s1_v1")
	assert.ErrorIs(t, err, common.ErrorConsistency)
}

func TestArchive_RetiresVersion(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE versions SET archived = TRUE, is_current = FALSE WHERE pid = \$1 AND NOT archived`).
		WithArgs("s1_v1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, st.Archive(context.Background(), "s1_v1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchive_SecondCallIsNoOp(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE versions SET archived = TRUE, is_current = FALSE WHERE pid = \$1 AND NOT archived`).
		WithArgs("s1_v1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("s1_v1").
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	require.NoError(t, st.Archive(context.Background(), "s1_v1"))
}

func TestArchive_UnknownVersionIsError(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE versions SET archived = TRUE, is_current = FALSE WHERE pid = \$1 AND NOT archived`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ghost").
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := st.Archive(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLastWatermark_EmptyCatalogFallsBackToDefault(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)

	mock.ExpectQuery(`SELECT MAX\(date_sys_metadata_modified\) FROM versions;`).
		WillReturnRows(mock.NewRows([]string{"max"}).AddRow(nil))

	wm, err := st.LastWatermark(context.Background())
	require.NoError(t, err)
	assert.True(t, wm.Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLastWatermark_UsesMaxModified(t *testing.T) {
	st, mock, _ := newStoreWithMock(t)
	latest := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT MAX\(date_sys_metadata_modified\) FROM versions;`).
		WillReturnRows(mock.NewRows([]string{"max"}).AddRow(latest))

	wm, err := st.LastWatermark(context.Background())
	require.NoError(t, err)
	assert.True(t, wm.Equal(latest))
}
