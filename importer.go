package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// importChunkSize is how many rows are buffered before a bulk insert.
const importChunkSize = 10000

// timestampFormats are the layouts seen in store_status.csv. The source
// exports "2023-01-25 18:13:22.47922 UTC"; RFC3339 is accepted as well.
var timestampFormats = []string{
	"2006-01-02 15:04:05.999999999 UTC",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseTimestampUTC parses an observation timestamp into a UTC instant.
func parseTimestampUTC(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// csvColumns maps header names to their positions, so column order in the
// source files does not matter.
func csvColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

// importAll loads the three source CSV files into the database. Each file
// is optional; an empty path is skipped.
func importAll(gdb *gorm.DB, statusPath, hoursPath, tzPath string) error {
	log.Info().Msg("[Import] Starting data import")

	if statusPath != "" {
		count, err := importStoreStatus(gdb, statusPath)
		if err != nil {
			return fmt.Errorf("import store status: %w", err)
		}
		log.Info().Int("rows", count).Str("file", statusPath).Msg("[Import] Imported store status")
	}

	if hoursPath != "" {
		count, err := importBusinessHours(gdb, hoursPath)
		if err != nil {
			return fmt.Errorf("import business hours: %w", err)
		}
		log.Info().Int("rows", count).Str("file", hoursPath).Msg("[Import] Imported business hours")
	}

	if tzPath != "" {
		count, err := importTimezones(gdb, tzPath)
		if err != nil {
			return fmt.Errorf("import timezones: %w", err)
		}
		log.Info().Int("rows", count).Str("file", tzPath).Msg("[Import] Imported timezones")
	}

	log.Info().Msg("[Import] ✅ Data import completed")
	return nil
}

// importStoreStatus loads store_status.csv (store_id, timestamp_utc,
// status). Rows with an unparseable timestamp or unknown status are logged
// and skipped so the core only ever sees well-typed input.
func importStoreStatus(gdb *gorm.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := csvColumns(header)
	for _, name := range []string{"store_id", "timestamp_utc", "status"} {
		if _, ok := cols[name]; !ok {
			return 0, fmt.Errorf("missing column %q in %s", name, path)
		}
	}

	total := 0
	skipped := 0
	chunk := make([]StoreStatus, 0, importChunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := gdb.CreateInBatches(chunk, 1000).Error; err != nil {
			return err
		}
		total += len(chunk)
		chunk = chunk[:0]
		log.Debug().Int("imported", total).Msg("[Import] Status chunk written")
		return nil
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read record: %w", err)
		}

		ts, err := parseTimestampUTC(record[cols["timestamp_utc"]])
		if err != nil {
			skipped++
			log.Warn().Err(err).Str("store_id", record[cols["store_id"]]).Msg("[Import] Skipping status row")
			continue
		}
		status := strings.TrimSpace(record[cols["status"]])
		if status != StatusActive && status != StatusInactive {
			skipped++
			log.Warn().Str("status", status).Str("store_id", record[cols["store_id"]]).Msg("[Import] Skipping row with unknown status")
			continue
		}

		chunk = append(chunk, StoreStatus{
			StoreID:      strings.TrimSpace(record[cols["store_id"]]),
			TimestampUTC: ts,
			Status:       status,
		})
		if len(chunk) >= importChunkSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("[Import] Some status rows were malformed")
	}
	return total, nil
}

// importBusinessHours loads business_hours.csv. The day column appears as
// either day_of_week or dayOfWeek depending on the export.
func importBusinessHours(gdb *gorm.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := csvColumns(header)
	dayCol, ok := cols["day_of_week"]
	if !ok {
		dayCol, ok = cols["dayOfWeek"]
	}
	if !ok {
		return 0, fmt.Errorf("missing day of week column in %s", path)
	}
	for _, name := range []string{"store_id", "start_time_local", "end_time_local"} {
		if _, ok := cols[name]; !ok {
			return 0, fmt.Errorf("missing column %q in %s", name, path)
		}
	}

	skipped := 0
	rows := make([]BusinessHours, 0, importChunkSize)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read record: %w", err)
		}

		day, err := strconv.Atoi(strings.TrimSpace(record[dayCol]))
		if err != nil || day < 0 || day > 6 {
			skipped++
			log.Warn().Str("day", record[dayCol]).Str("store_id", record[cols["store_id"]]).Msg("[Import] Skipping hours row with bad day of week")
			continue
		}
		start := strings.TrimSpace(record[cols["start_time_local"]])
		end := strings.TrimSpace(record[cols["end_time_local"]])
		if _, err := parseTimeOfDay(start); err != nil {
			skipped++
			log.Warn().Err(err).Str("store_id", record[cols["store_id"]]).Msg("[Import] Skipping hours row")
			continue
		}
		if _, err := parseTimeOfDay(end); err != nil {
			skipped++
			log.Warn().Err(err).Str("store_id", record[cols["store_id"]]).Msg("[Import] Skipping hours row")
			continue
		}

		rows = append(rows, BusinessHours{
			StoreID:        strings.TrimSpace(record[cols["store_id"]]),
			DayOfWeek:      day,
			StartTimeLocal: start,
			EndTimeLocal:   end,
		})
	}

	if len(rows) > 0 {
		if err := gdb.CreateInBatches(rows, 1000).Error; err != nil {
			return 0, err
		}
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("[Import] Some business hours rows were malformed")
	}
	return len(rows), nil
}

// importTimezones loads timezones.csv (store_id, timezone_str). Zone names
// are validated against the IANA database up front so bad zones surface at
// import time instead of report time.
func importTimezones(gdb *gorm.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := csvColumns(header)
	for _, name := range []string{"store_id", "timezone_str"} {
		if _, ok := cols[name]; !ok {
			return 0, fmt.Errorf("missing column %q in %s", name, path)
		}
	}

	skipped := 0
	rows := make([]StoreTimezone, 0, importChunkSize)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read record: %w", err)
		}

		zone := strings.TrimSpace(record[cols["timezone_str"]])
		if _, err := time.LoadLocation(zone); err != nil {
			skipped++
			log.Warn().Str("timezone", zone).Str("store_id", record[cols["store_id"]]).Msg("[Import] Skipping row with unknown timezone")
			continue
		}

		rows = append(rows, StoreTimezone{
			StoreID:     strings.TrimSpace(record[cols["store_id"]]),
			TimezoneStr: zone,
		})
	}

	if len(rows) > 0 {
		if err := gdb.CreateInBatches(rows, 1000).Error; err != nil {
			return 0, err
		}
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("[Import] Some timezone rows were skipped")
	}
	return len(rows), nil
}
