package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(now time.Time) *reportDataset {
	stores := map[string]*storeData{
		"store-c": {Observations: []Observation{{Timestamp: now.Add(-time.Hour), Status: StatusActive}}},
		"store-a": {Observations: []Observation{{Timestamp: now.Add(-time.Hour), Status: StatusInactive}}},
		"store-b": {Observations: []Observation{{Timestamp: now.Add(-time.Hour), Status: StatusActive}}},
	}
	return &reportDataset{
		StoreIDs: []string{"store-a", "store-b", "store-c"},
		Stores:   stores,
		Now:      now,
	}
}

func TestBuildReportDeterministicOrder(t *testing.T) {
	now := utc(2023, time.January, 25, 12, 0)
	ds := testDataset(now)

	first, err := buildReport(context.Background(), ds, 4, midpointPolicy{}, "America/Chicago")
	require.NoError(t, err)
	second, err := buildReport(context.Background(), ds, 4, midpointPolicy{}, "America/Chicago")
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, "store-a", first[0].StoreID)
	assert.Equal(t, "store-b", first[1].StoreID)
	assert.Equal(t, "store-c", first[2].StoreID)
	// Parallelism must not affect ordering or values.
	assert.Equal(t, first, second)

	assert.Equal(t, 60.0, first[0].DowntimeLastHour)
	assert.Equal(t, 60.0, first[1].UptimeLastHour)
}

func TestBuildReportBadTimezoneYieldsZeroRow(t *testing.T) {
	now := utc(2023, time.January, 25, 12, 0)
	ds := testDataset(now)
	ds.Stores["store-b"].Timezone = "Not/AZone"

	rows, err := buildReport(context.Background(), ds, 2, midpointPolicy{}, "America/Chicago")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, StoreReport{StoreID: "store-b"}, rows[1])
	// Neighbouring stores are unaffected.
	assert.Equal(t, 60.0, rows[2].UptimeLastHour)
}

func TestBuildReportCancelled(t *testing.T) {
	now := utc(2023, time.January, 25, 12, 0)
	ds := testDataset(now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, err := buildReport(ctx, ds, 2, midpointPolicy{}, "America/Chicago")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rows)
}

func TestWriteReportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_test.csv")
	rows := []StoreReport{
		{StoreID: "s1", UptimeLastHour: 45, UptimeLastDay: 12.5, UptimeLastWeek: 100.25, DowntimeLastHour: 15, DowntimeLastDay: 1.5, DowntimeLastWeek: 2.75},
	}

	require.NoError(t, writeReportCSV(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, reportCSVHeader, records[0])
	assert.Equal(t, []string{"s1", "45.00", "12.50", "100.25", "15.00", "1.50", "2.75"}, records[1])
}

func TestLoadReportDataset(t *testing.T) {
	gdb := openTestDB(t)

	latest := utc(2023, time.January, 25, 12, 0)
	statuses := []StoreStatus{
		{StoreID: "store-b", TimestampUTC: latest.Add(-2 * time.Hour), Status: StatusActive},
		{StoreID: "store-a", TimestampUTC: latest, Status: StatusInactive},
		{StoreID: "store-a", TimestampUTC: latest.Add(-time.Hour), Status: StatusActive},
	}
	require.NoError(t, gdb.Create(&statuses).Error)
	require.NoError(t, gdb.Create(&BusinessHours{StoreID: "store-a", DayOfWeek: 0, StartTimeLocal: "09:00:00", EndTimeLocal: "17:00:00"}).Error)
	// Hours for a store with no observations must not create a store.
	require.NoError(t, gdb.Create(&BusinessHours{StoreID: "store-x", DayOfWeek: 0, StartTimeLocal: "09:00:00", EndTimeLocal: "17:00:00"}).Error)
	require.NoError(t, gdb.Create(&StoreTimezone{StoreID: "store-b", TimezoneStr: "America/Denver"}).Error)

	ds, err := loadReportDataset(gdb)
	require.NoError(t, err)

	assert.Equal(t, []string{"store-a", "store-b"}, ds.StoreIDs)
	assert.True(t, ds.Now.Equal(latest), "now must be the max observation instant")
	assert.Len(t, ds.Stores["store-a"].Observations, 2)
	assert.Len(t, ds.Stores["store-a"].Hours, 1)
	assert.Equal(t, "", ds.Stores["store-a"].Timezone)
	assert.Equal(t, "America/Denver", ds.Stores["store-b"].Timezone)
}

func TestRunReportJobCompletes(t *testing.T) {
	gdb := openTestDB(t)
	conf := defaultConfig()
	conf.ReportDir = t.TempDir()
	conf.Workers = 2

	now := utc(2023, time.January, 25, 12, 0)
	statuses := []StoreStatus{
		{StoreID: "store-a", TimestampUTC: now.Add(-time.Hour), Status: StatusActive},
		{StoreID: "store-a", TimestampUTC: now, Status: StatusInactive},
		{StoreID: "store-b", TimestampUTC: now, Status: StatusActive},
	}
	require.NoError(t, gdb.Create(&statuses).Error)

	report, err := startReportJob(gdb)
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)

	runReportJob(context.Background(), gdb, conf, report.ID)

	var updated Report
	require.NoError(t, gdb.First(&updated, "id = ?", report.ID).Error)
	assert.Equal(t, ReportComplete, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, reportFilePath(conf.ReportDir, report.ID), updated.FilePath)

	f, err := os.Open(updated.FilePath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + two stores
	assert.Equal(t, "store-a", records[1][0])
	assert.Equal(t, "store-b", records[2][0])
}

func TestRunReportJobEmptyDataset(t *testing.T) {
	gdb := openTestDB(t)
	conf := defaultConfig()
	conf.ReportDir = t.TempDir()

	report, err := startReportJob(gdb)
	require.NoError(t, err)

	runReportJob(context.Background(), gdb, conf, report.ID)

	var updated Report
	require.NoError(t, gdb.First(&updated, "id = ?", report.ID).Error)
	assert.Equal(t, ReportComplete, updated.Status)

	data, err := os.ReadFile(updated.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "store_id,uptime_last_hour,uptime_last_day,uptime_last_week,downtime_last_hour,downtime_last_day,downtime_last_week\n", string(data))
}
