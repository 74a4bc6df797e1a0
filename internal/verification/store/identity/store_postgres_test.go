package identity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/sentinel"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identityRowColumns = []string{"id", "subject_id", "fingerprint", "source_address", "components", "user_agent", "client", "recorded_at"}

func newPostgresWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgres(db), mock
}

func TestPostgresStore_FindEarliestByFingerprint(t *testing.T) {
	recorded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("decodes metadata", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		mock.ExpectQuery(`SELECT .* FROM identities WHERE fingerprint = \$1 ORDER BY recorded_at, id LIMIT 1`).
			WithArgs("fp-A").
			WillReturnRows(sqlmock.NewRows(identityRowColumns).AddRow(
				"01J0000000000000000000000A", "u1", "fp-A", "1.2.3.4",
				[]byte(`{"screen":"1920x1080"}`), "Mozilla/5.0", []byte(`{"browser":"Chrome","mobile":false,"bot":false}`),
				recorded,
			))

		found, err := store.FindEarliestByFingerprint(context.Background(), "fp-A")
		require.NoError(t, err)
		assert.Equal(t, "u1", found.SubjectID)
		assert.Equal(t, "Chrome", found.Metadata.Client.Browser)
		assert.JSONEq(t, `{"screen":"1920x1080"}`, string(found.Metadata.Components))
		assert.Equal(t, recorded, found.RecordedAt)
	})

	t.Run("no row is not found", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		mock.ExpectQuery(`FROM identities WHERE fingerprint`).
			WithArgs("fp-missing").
			WillReturnRows(sqlmock.NewRows(identityRowColumns))

		_, err := store.FindEarliestByFingerprint(context.Background(), "fp-missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestPostgresStore_RunInTx(t *testing.T) {
	ident, err := models.NewIdentity("u1", models.Candidate{
		Fingerprint:   "fp-A",
		SourceAddress: "1.2.3.4",
		Metadata:      models.NewMetadata(json.RawMessage(`{"tz":"UTC"}`), ""),
	}, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	t.Run("commits after lock and writes", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
			WithArgs(writerLockKey).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`FROM identities WHERE fingerprint`).
			WithArgs("fp-A").
			WillReturnRows(sqlmock.NewRows(identityRowColumns))
		mock.ExpectExec(`INSERT INTO identities`).
			WithArgs(ident.ID, "u1", "fp-A", "1.2.3.4", sqlmock.AnyArg(), "", sqlmock.AnyArg(), ident.RecordedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.RunInTx(context.Background(), func(ctx context.Context) error {
			if _, err := store.FindEarliestByFingerprint(ctx, "fp-A"); !errors.Is(err, sentinel.ErrNotFound) {
				return err
			}
			return store.Create(ctx, ident)
		})
		require.NoError(t, err)
	})

	t.Run("rolls back when the callback fails", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := store.RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("duplicate id is a conflict", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		mock.ExpectExec(`INSERT INTO identities`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, store.Create(context.Background(), ident), sentinel.ErrConflict)
	})
}

func TestPostgresStore_ListBySubjects(t *testing.T) {
	t.Run("empty input skips the query", func(t *testing.T) {
		store, _ := newPostgresWithMock(t)
		out, err := store.ListBySubjects(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("filters with array parameter", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		recorded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`WHERE subject_id = ANY\(\$1\)`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(identityRowColumns).
				AddRow("id-1", "u1", "fp-1", "1.1.1.1", nil, "", nil, recorded).
				AddRow("id-2", "u2", "fp-2", "2.2.2.2", nil, "", nil, recorded.Add(time.Minute)))

		out, err := store.ListBySubjects(context.Background(), []string{"u1", "u2"})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "u1", out[0].SubjectID)
		assert.Nil(t, out[0].Metadata.Components)
	})
}
