package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"
)

// apiTriggerReport handles POST requests to start report generation.
// Returns 202 with the report id; the computation runs in the background.
func apiTriggerReport(w http.ResponseWriter, r *http.Request) {
	log.Printf("[API] %s %s", r.Method, r.URL.Path)

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		log.Printf("[API] OPTIONS /api/trigger_report: CORS preflight")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		log.Printf("[API] ERROR %s /api/trigger_report: Method not allowed", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := startReportJob(db)
	if err != nil {
		log.Printf("[API] ERROR POST /api/trigger_report: %v", err)
		http.Error(w, "Failed to create report", http.StatusInternalServerError)
		return
	}

	go runReportJob(context.Background(), db, cfg, report.ID)

	log.Printf("[API] POST /api/trigger_report: started report %s", report.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(TriggerReportResponse{ReportID: report.ID})
}

// apiGetReport handles GET requests for report status. With ?download=true
// on a completed report it streams the CSV artifact instead.
func apiGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	log.Printf("[API] %s %s?id=%s", r.Method, r.URL.Path, id)

	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != http.MethodGet {
		log.Printf("[API] ERROR %s /api/get_report: Method not allowed", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if id == "" {
		log.Printf("[API] ERROR GET /api/get_report: Missing id parameter")
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	var report Report
	if err := db.First(&report, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Printf("[API] ERROR GET /api/get_report?id=%s: Report not found", id)
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		log.Printf("[API] ERROR GET /api/get_report?id=%s: %v", id, err)
		http.Error(w, "Failed to fetch report", http.StatusInternalServerError)
		return
	}

	switch report.Status {
	case ReportRunning:
		log.Printf("[API] GET /api/get_report?id=%s: still running", id)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ReportStatusResponse{Status: "Running", ReportID: report.ID})

	case ReportComplete:
		if strings.EqualFold(r.URL.Query().Get("download"), "true") {
			serveReportFile(w, r, &report)
			return
		}
		log.Printf("[API] GET /api/get_report?id=%s: complete", id)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ReportStatusResponse{Status: "Complete", ReportID: report.ID})

	default: // failed
		log.Printf("[API] GET /api/get_report?id=%s: failed (%s)", id, report.Error)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ReportStatusResponse{Status: "Failed", ReportID: report.ID, Error: "Report generation failed"})
	}
}

// serveReportFile streams a completed report's CSV artifact as a download.
func serveReportFile(w http.ResponseWriter, r *http.Request, report *Report) {
	if report.FilePath == "" {
		log.Printf("[API] ERROR GET /api/get_report?id=%s: no file path recorded", report.ID)
		http.Error(w, "Report file not found", http.StatusNotFound)
		return
	}
	f, err := os.Open(report.FilePath)
	if err != nil {
		log.Printf("[API] ERROR GET /api/get_report?id=%s: %v", report.ID, err)
		http.Error(w, "Report file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	log.Printf("[API] GET /api/get_report?id=%s: serving %s", report.ID, report.FilePath)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(report.FilePath)))
	http.ServeContent(w, r, filepath.Base(report.FilePath), report.CreatedAt, f)
}

// apiReports handles GET requests listing the most recent reports.
func apiReports(w http.ResponseWriter, r *http.Request) {
	log.Printf("[API] %s %s", r.Method, r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != http.MethodGet {
		log.Printf("[API] ERROR %s /api/reports: Method not allowed", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var reports []Report
	if err := db.Order("created_at DESC").Limit(50).Find(&reports).Error; err != nil {
		log.Printf("[API] ERROR GET /api/reports: %v", err)
		http.Error(w, "Failed to fetch reports", http.StatusInternalServerError)
		return
	}

	log.Printf("[API] GET /api/reports: returned %d reports", len(reports))
	json.NewEncoder(w).Encode(reports)
}
