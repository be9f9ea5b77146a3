package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

var accessLogColumns = []string{"id", "short_link_id", "connection_info", "created_at"}

func setupAccessLogRepository(t testing.TB) (*AccessLogRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewAccessLogRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestAccessLogRepository_Append(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupAccessLogRepository(t)

		mock.ExpectExec(`INSERT INTO access_logs`).
			WithArgs(int64(1), "ua=test").
			WillReturnError(errUnknown)

		err := repo.Append(context.TODO(), 1, "ua=test")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupAccessLogRepository(t)

		mock.ExpectExec(`INSERT INTO access_logs`).
			WithArgs(int64(1), "ua=test").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Append(context.TODO(), 1, "ua=test")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccessLogRepository_ListByLink(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupAccessLogRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM access_logs`).
			WithArgs(int64(1), 0, 10).
			WillReturnError(errUnknown)

		logs, err := repo.ListByLink(context.TODO(), 1, 0, 10)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, logs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty page", func(t *testing.T) {
		repo, mock := setupAccessLogRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM access_logs`).
			WithArgs(int64(1), 100, 10).
			WillReturnRows(sqlmock.NewRows(accessLogColumns))

		logs, err := repo.ListByLink(context.TODO(), 1, 100, 10)

		assert.NoError(t, err)
		assert.Empty(t, logs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupAccessLogRepository(t)

		rows := sqlmock.NewRows(accessLogColumns).
			AddRow(1, 1, "ua=first", time.Time{}).
			AddRow(2, 1, "ua=second", time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM access_logs`).
			WithArgs(int64(1), 0, 10).
			WillReturnRows(rows)

		logs, err := repo.ListByLink(context.TODO(), 1, 0, 10)

		assert.NoError(t, err)
		assert.Len(t, logs, 2)
		assert.Equal(t, int64(1), logs[0].ID)
		assert.Equal(t, "ua=second", logs[1].ConnectionInfo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccessLogRepository_CountByLink(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupAccessLogRepository(t)

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(int64(1)).
			WillReturnError(errUnknown)

		count, err := repo.CountByLink(context.TODO(), 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Zero(t, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupAccessLogRepository(t)

		rows := sqlmock.NewRows([]string{"count"}).AddRow(42)

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		count, err := repo.CountByLink(context.TODO(), 1)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
