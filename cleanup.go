package main

import (
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// cleanOldReports removes report rows and their CSV artifacts older than
// the retention period.
func cleanOldReports(gdb *gorm.DB, retentionDays int) {
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	log.Info().Time("cutoff", cutoff).Msg("[Cleanup] Starting cleanup of old reports")

	var reports []Report
	if err := gdb.Where("created_at < ?", cutoff).Find(&reports).Error; err != nil {
		log.Error().Err(err).Msg("[Cleanup] Failed to list old reports")
		return
	}

	removed := 0
	for _, report := range reports {
		if report.FilePath != "" {
			if err := os.Remove(report.FilePath); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Str("file", report.FilePath).Msg("[Cleanup] Could not remove report file")
			}
		}
		if err := gdb.Delete(&Report{}, "id = ?", report.ID).Error; err != nil {
			log.Error().Err(err).Str("report_id", report.ID).Msg("[Cleanup] Failed to delete report")
			continue
		}
		removed++
	}

	log.Info().Int("deleted", removed).Msg("[Cleanup] Successfully deleted old reports")
}

// startCleanupScheduler runs the report retention job daily at midnight.
func startCleanupScheduler(gdb *gorm.DB, conf *Config) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			cleanOldReports(gdb, conf.ReportRetentionDays)
		}),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	log.Info().Int("retention_days", conf.ReportRetentionDays).Msg("[Cleanup] Cleanup scheduler started")
	return scheduler, nil
}
