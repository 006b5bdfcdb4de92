package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// reportCSVHeader is the fixed column order of the report artifact.
var reportCSVHeader = []string{
	"store_id",
	"uptime_last_hour",
	"uptime_last_day",
	"uptime_last_week",
	"downtime_last_hour",
	"downtime_last_day",
	"downtime_last_week",
}

// reportDataset is the fully materialized input of one report run. Now is
// the maximum observation instant across the whole dataset, so a report is
// reproducible from static data and never reads the wall clock.
type reportDataset struct {
	StoreIDs []string
	Stores   map[string]*storeData
	Now      time.Time
}

// loadReportDataset pulls the three source tables into memory, grouped by
// store. The store universe is the set of stores with at least one
// observation. Observations are left in insertion order; the timeline sorts
// its own copy.
func loadReportDataset(gdb *gorm.DB) (*reportDataset, error) {
	ds := &reportDataset{Stores: make(map[string]*storeData)}

	storeFor := func(id string) *storeData {
		sd, ok := ds.Stores[id]
		if !ok {
			sd = &storeData{}
			ds.Stores[id] = sd
		}
		return sd
	}

	var batch []StoreStatus
	err := gdb.Model(&StoreStatus{}).
		FindInBatches(&batch, 10000, func(_ *gorm.DB, _ int) error {
			for _, row := range batch {
				sd := storeFor(row.StoreID)
				sd.Observations = append(sd.Observations, Observation{
					Timestamp: row.TimestampUTC.UTC(),
					Status:    row.Status,
				})
				if row.TimestampUTC.After(ds.Now) {
					ds.Now = row.TimestampUTC.UTC()
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("load store status: %w", err)
	}

	for id := range ds.Stores {
		ds.StoreIDs = append(ds.StoreIDs, id)
	}
	sort.Strings(ds.StoreIDs)

	var hours []BusinessHours
	if err := gdb.Find(&hours).Error; err != nil {
		return nil, fmt.Errorf("load business hours: %w", err)
	}
	for _, row := range hours {
		if sd, ok := ds.Stores[row.StoreID]; ok {
			sd.Hours = append(sd.Hours, row)
		}
	}

	var zones []StoreTimezone
	if err := gdb.Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("load timezones: %w", err)
	}
	for _, row := range zones {
		if sd, ok := ds.Stores[row.StoreID]; ok {
			sd.Timezone = row.TimezoneStr
		}
	}

	log.Info().Int("stores", len(ds.StoreIDs)).Time("now", ds.Now).Msg("[Report] Dataset loaded")
	return ds, nil
}

// buildReport computes every store's row with a bounded worker pool and
// collects them in store-id-ascending order. Each worker writes only its
// own result slot, so the output order never depends on scheduling. Stores
// that fail (unknown timezone, malformed hours) are logged and emitted as
// all-zero rows. A cancelled context stops dispatching and discards the
// partial result.
func buildReport(ctx context.Context, ds *reportDataset, workers int, policy ExtrapolationPolicy, defaultTZ string) ([]StoreReport, error) {
	if workers < 1 {
		workers = 1
	}
	rows := make([]StoreReport, len(ds.StoreIDs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				storeID := ds.StoreIDs[idx]
				row, err := buildStoreReport(storeID, *ds.Stores[storeID], ds.Now, policy, defaultTZ)
				if err != nil {
					log.Error().Err(err).Str("store_id", storeID).Msg("[Report] Store aggregation failed, emitting zero row")
					row = StoreReport{StoreID: storeID}
				}
				rows[idx] = row
			}
		}()
	}

	var cancelled error
dispatch:
	for idx := range ds.StoreIDs {
		if cancelled = ctx.Err(); cancelled != nil {
			break
		}
		select {
		case jobs <- idx:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, fmt.Errorf("report cancelled: %w", cancelled)
	}
	return rows, nil
}

// writeReportCSV writes the rows as the downloadable artifact.
func writeReportCSV(path string, rows []StoreReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportCSVHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.StoreID,
			formatMetric(row.UptimeLastHour),
			formatMetric(row.UptimeLastDay),
			formatMetric(row.UptimeLastWeek),
			formatMetric(row.DowntimeLastHour),
			formatMetric(row.DowntimeLastDay),
			formatMetric(row.DowntimeLastWeek),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// reportFilePath returns the artifact location for a report id.
func reportFilePath(reportDir, reportID string) string {
	return filepath.Join(reportDir, fmt.Sprintf("report_%s.csv", reportID))
}

// startReportJob creates the report record and returns it; the caller is
// expected to launch runReportJob in the background.
func startReportJob(gdb *gorm.DB) (*Report, error) {
	report := &Report{
		ID:     uuid.NewString(),
		Status: ReportRunning,
	}
	if err := gdb.Create(report).Error; err != nil {
		return nil, fmt.Errorf("create report record: %w", err)
	}
	log.Info().Str("report_id", report.ID).Msg("[Report] Report triggered")
	return report, nil
}

// runReportJob executes one full report run and records the outcome on the
// report row.
func runReportJob(ctx context.Context, gdb *gorm.DB, conf *Config, reportID string) {
	started := time.Now()

	fail := func(err error) {
		log.Error().Err(err).Str("report_id", reportID).Msg("[Report] Report generation failed")
		gdb.Model(&Report{}).Where("id = ?", reportID).
			Updates(map[string]interface{}{"status": ReportFailed, "error": err.Error()})
	}

	ds, err := loadReportDataset(gdb)
	if err != nil {
		fail(err)
		return
	}

	rows, err := buildReport(ctx, ds, conf.Workers, policyByName(conf.InterpolationPolicy), conf.DefaultTimezone)
	if err != nil {
		fail(err)
		return
	}

	path := reportFilePath(conf.ReportDir, reportID)
	if err := writeReportCSV(path, rows); err != nil {
		fail(err)
		return
	}

	completed := time.Now()
	err = gdb.Model(&Report{}).Where("id = ?", reportID).
		Updates(map[string]interface{}{
			"status":       ReportComplete,
			"completed_at": &completed,
			"file_path":    path,
		}).Error
	if err != nil {
		fail(err)
		return
	}

	log.Info().Str("report_id", reportID).Int("stores", len(rows)).
		Dur("elapsed", time.Since(started)).Msg("[Report] Report complete")
}
