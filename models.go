package main

import "time"

// Observation statuses as they appear in the source data.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Report lifecycle states.
const (
	ReportRunning  = "running"
	ReportComplete = "complete"
	ReportFailed   = "failed"
)

// StoreStatus is a single polled observation: a store was seen active or
// inactive at one UTC instant.
type StoreStatus struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StoreID      string    `gorm:"size:100;not null;index:idx_store_timestamp" json:"storeId"`
	TimestampUTC time.Time `gorm:"not null;index:idx_store_timestamp" json:"timestampUtc"`
	Status       string    `gorm:"size:10;not null" json:"status"`
}

// BusinessHours is one scheduled-open span for a store on a single weekday.
// Day numbering follows the source data: 0=Monday .. 6=Sunday. Local times
// are stored as HH:MM:SS strings, validated at import time.
type BusinessHours struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	StoreID        string `gorm:"size:100;not null;index:idx_hours_store" json:"storeId"`
	DayOfWeek      int    `gorm:"not null" json:"dayOfWeek"`
	StartTimeLocal string `gorm:"size:8;not null" json:"startTimeLocal"`
	EndTimeLocal   string `gorm:"size:8;not null" json:"endTimeLocal"`
}

// StoreTimezone maps a store to its IANA timezone name. Stores without a
// row fall back to the configured default zone.
type StoreTimezone struct {
	StoreID     string `gorm:"primaryKey;size:100" json:"storeId"`
	TimezoneStr string `gorm:"size:100;not null" json:"timezoneStr"`
}

// Report tracks one report generation run and its CSV artifact.
type Report struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Status      string     `gorm:"size:10;not null;default:running;index" json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FilePath    string     `gorm:"size:255" json:"filePath,omitempty"`
	Error       string     `gorm:"size:255" json:"error,omitempty"`
}

// StoreReport is one output row of the report: uptime/downtime in minutes
// for the last hour and in hours for the last day and week.
type StoreReport struct {
	StoreID          string  `json:"store_id"`
	UptimeLastHour   float64 `json:"uptime_last_hour"`
	UptimeLastDay    float64 `json:"uptime_last_day"`
	UptimeLastWeek   float64 `json:"uptime_last_week"`
	DowntimeLastHour float64 `json:"downtime_last_hour"`
	DowntimeLastDay  float64 `json:"downtime_last_day"`
	DowntimeLastWeek float64 `json:"downtime_last_week"`
}

// TriggerReportResponse is the body returned by POST /api/trigger_report.
type TriggerReportResponse struct {
	ReportID string `json:"report_id"`
}

// ReportStatusResponse is the body returned by GET /api/get_report while a
// report is not being downloaded.
type ReportStatusResponse struct {
	Status   string `json:"status"`
	ReportID string `json:"report_id,omitempty"`
	Error    string `json:"error,omitempty"`
}
