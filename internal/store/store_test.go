package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sensor-dashboard-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_AddMeasurementReadings(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "measurements" SET "readings_count"=readings_count + $1 WHERE id = $2`)).
		WithArgs(5, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.AddMeasurementReadings(context.Background(), 7, 5)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_AddMeasurementErrors(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "measurements" SET "error_count"=error_count + $1 WHERE id = $2`)).
		WithArgs(2, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.AddMeasurementErrors(context.Background(), 7, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PurgeBackgroundReadings(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB)

	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "sensor_readings" WHERE timestamp < $1 AND measurement_id IS NULL`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	purged, err := store.PurgeBackgroundReadings(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ActiveMeasurement(t *testing.T) {
	t.Run("none active", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		store := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "measurements" WHERE status IN ($1,$2)`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

		m, err := store.ActiveMeasurement(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, m)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("active with bindings", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		store := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "measurements" WHERE status IN ($1,$2)`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "status"}).
				AddRow(7, "abc-123", "running"))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "measurement_sensors"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "measurement_id", "sensor_id"}).
				AddRow(1, 7, 3).
				AddRow(2, 7, 4))

		m, err := store.ActiveMeasurement(context.Background())
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, int64(7), m.ID)
		assert.Equal(t, model.StatusRunning, m.Status)
		assert.Len(t, m.Sensors, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_CreateMeasurement(t *testing.T) {
	t.Run("refuses while another is active", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		store := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "measurements" WHERE status IN ($1,$2)`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		err := store.CreateMeasurement(context.Background(), &model.Measurement{
			SessionID: "abc-123",
			Title:     "Vibration test",
			Status:    model.StatusStarting,
		})
		assert.ErrorIs(t, err, ErrActiveMeasurementExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates when none active", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		store := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "measurements" WHERE status IN ($1,$2)`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "measurements"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		m := &model.Measurement{
			SessionID: "abc-123",
			Title:     "Vibration test",
			Status:    model.StatusStarting,
		}
		err := store.CreateMeasurement(context.Background(), m)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), m.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_TransitionMeasurement(t *testing.T) {
	t.Run("row changed", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		store := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "measurements" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := store.TransitionMeasurement(context.Background(), 7,
			model.ActiveStatuses, model.StatusCompleted,
			map[string]any{"ended_at": time.Now().UTC()})
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already finished", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		store := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "measurements" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		ok, err := store.TransitionMeasurement(context.Background(), 7,
			model.ActiveStatuses, model.StatusCompleted, nil)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
