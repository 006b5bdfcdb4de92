package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "Path to the YAML configuration file")
	runImport := flag.Bool("import", false, "Import the CSV source files before serving")
	statusFile := flag.String("status-file", "store_status.csv", "Path to the store status CSV file")
	hoursFile := flag.String("hours-file", "business_hours.csv", "Path to the business hours CSV file")
	timezoneFile := flag.String("timezone-file", "timezones.csv", "Path to the timezones CSV file")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_LEVEL") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var err error
	cfg, err = loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initDB(cfg)

	if *runImport {
		if err := importAll(db, *statusFile, *hoursFile, *timezoneFile); err != nil {
			log.Fatal().Err(err).Msg("Data import failed")
		}
	}

	scheduler, err := startCleanupScheduler(db, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start cleanup scheduler")
	}
	defer func() { _ = scheduler.Shutdown() }()

	// API routes
	http.HandleFunc("/api/trigger_report", apiTriggerReport)
	http.HandleFunc("/api/get_report", apiGetReport)
	http.HandleFunc("/api/reports", apiReports)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // report downloads can be large
	}

	log.Info().Str("port", cfg.Port).Msg("🚀 Server starting")
	log.Info().Msg("   POST /api/trigger_report - Start report generation")
	log.Info().Msg("   GET  /api/get_report?id=<id> - Report status (&download=true for the CSV)")
	log.Info().Msg("   GET  /api/reports - List recent reports")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
