package main

import (
	"fmt"
	"math"
	"time"
)

// ReportWindow identifies one of the three trailing report intervals.
type ReportWindow int

const (
	LastHour ReportWindow = iota
	LastDay
	LastWeek
)

// reportWindows is the fixed output order of the windows.
var reportWindows = [...]ReportWindow{LastHour, LastDay, LastWeek}

func (w ReportWindow) String() string {
	switch w {
	case LastHour:
		return "last_hour"
	case LastDay:
		return "last_day"
	case LastWeek:
		return "last_week"
	}
	return "unknown"
}

// Length returns the window's trailing duration.
func (w ReportWindow) Length() time.Duration {
	switch w {
	case LastHour:
		return time.Hour
	case LastDay:
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// interval resolves the window to an absolute range ending at the dataset's
// frozen reference instant.
func (w ReportWindow) interval(now time.Time) Interval {
	return Interval{Start: now.Add(-w.Length()), End: now}
}

// WindowResult is the open-and-up / open-and-down time of one store over
// one report window.
type WindowResult struct {
	Uptime   time.Duration
	Downtime time.Duration
}

// aggregateWindow computes one store's uptime and downtime within a report
// window, counting only time inside the store's business hours. A store
// with no observations has no reconstructible status and yields zero for
// both fields, as does a store scheduled closed for the whole window.
func aggregateWindow(tl StatusTimeline, sched StoreSchedule, w ReportWindow, now time.Time) WindowResult {
	var res WindowResult
	if !tl.hasData() {
		return res
	}
	for _, open := range clipToBusinessHours(sched, w.interval(now)) {
		active, inactive := tl.integrate(open)
		res.Uptime += active
		res.Downtime += inactive
	}
	return res
}

// storeData is the fully materialized working set of one store: its
// observations, raw business-hour rows and timezone name. It is read-only
// during aggregation.
type storeData struct {
	Observations []Observation
	Hours        []BusinessHours
	Timezone     string
}

// buildStoreReport computes the full report row for one store. It is a pure
// function of the store's data, the frozen reference instant and the
// interpolation policy, which keeps per-store aggregation trivially
// parallelizable. An unresolvable timezone fails the store rather than
// silently falling back to the default zone.
func buildStoreReport(storeID string, data storeData, now time.Time, policy ExtrapolationPolicy, defaultTZ string) (StoreReport, error) {
	tzName := data.Timezone
	if tzName == "" {
		tzName = defaultTZ
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return StoreReport{}, fmt.Errorf("store %s: unknown timezone %q: %w", storeID, tzName, err)
	}

	sched, err := newStoreSchedule(data.Hours, loc)
	if err != nil {
		return StoreReport{}, err
	}
	tl := newStatusTimeline(data.Observations, policy)

	row := StoreReport{StoreID: storeID}
	for _, w := range reportWindows {
		res := aggregateWindow(tl, sched, w, now)
		switch w {
		case LastHour:
			row.UptimeLastHour = roundMetric(res.Uptime.Minutes())
			row.DowntimeLastHour = roundMetric(res.Downtime.Minutes())
		case LastDay:
			row.UptimeLastDay = roundMetric(res.Uptime.Hours())
			row.DowntimeLastDay = roundMetric(res.Downtime.Hours())
		case LastWeek:
			row.UptimeLastWeek = roundMetric(res.Uptime.Hours())
			row.DowntimeLastWeek = roundMetric(res.Downtime.Hours())
		}
	}
	return row, nil
}

// roundMetric rounds an output value to two decimal places.
func roundMetric(v float64) float64 {
	return math.Round(v*100) / 100
}
