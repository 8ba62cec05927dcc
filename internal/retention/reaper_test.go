package retention

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sensor-dashboard-backend/internal/model"
	"sensor-dashboard-backend/internal/store"
)

func newReaperDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(
		&model.HardwareConfig{},
		&model.Measurement{}, &model.MeasurementSensor{},
		&model.SensorReading{},
	))
	return testDB
}

func TestReaper_Sweep(t *testing.T) {
	testDB := newReaperDB(t)

	// Retention window of one hour.
	cfg := model.DefaultHardwareConfig()
	cfg.GraphDataRetentionMs = 3600000
	require.NoError(t, testDB.Create(&cfg).Error)

	measurement := model.Measurement{
		SessionID: "abc-123",
		Title:     "Long run",
		Status:    model.StatusCompleted,
	}
	require.NoError(t, testDB.Create(&measurement).Error)

	now := time.Now().UTC()
	readings := []model.SensorReading{
		// Stale background reading: swept.
		{EntityID: 1, Value: 20.0, Quality: 1, Timestamp: now.Add(-2 * time.Hour)},
		// Fresh background reading: kept.
		{EntityID: 1, Value: 21.0, Quality: 1, Timestamp: now.Add(-time.Minute)},
		// Stale but attached to a measurement: kept regardless of age.
		{EntityID: 1, Value: 22.0, Quality: 1, Timestamp: now.Add(-2 * time.Hour), MeasurementID: &measurement.ID},
	}
	require.NoError(t, testDB.Create(&readings).Error)

	removed, err := NewReaper(store.NewGormStore(testDB)).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var remaining []model.SensorReading
	require.NoError(t, testDB.Order("value").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, 21.0, remaining[0].Value)
	assert.Nil(t, remaining[0].MeasurementID)
	assert.Equal(t, 22.0, remaining[1].Value)
	require.NotNil(t, remaining[1].MeasurementID)
	assert.Equal(t, measurement.ID, *remaining[1].MeasurementID)

	// A second sweep finds nothing left to remove.
	removed, err = NewReaper(store.NewGormStore(testDB)).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestReaper_Sweep_EmptyTable(t *testing.T) {
	testDB := newReaperDB(t)
	require.NoError(t, testDB.Create(&model.HardwareConfig{
		ID:                        model.HardwareConfigID,
		BoardType:                 model.BoardGPIO,
		DashboardUpdateIntervalMs: 5000,
		GraphDataRetentionMs:      3600000,
	}).Error)

	removed, err := NewReaper(store.NewGormStore(testDB)).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}
