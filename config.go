package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds the service configuration, loaded from an optional YAML file
// with per-field defaults. PORT and DB_PATH environment variables override
// the file.
type Config struct {
	Port                string `yaml:"port"`
	DBPath              string `yaml:"dbPath"`
	ReportDir           string `yaml:"reportDir"`
	Workers             int    `yaml:"workers"`
	DefaultTimezone     string `yaml:"defaultTimezone"`
	InterpolationPolicy string `yaml:"interpolationPolicy"`
	ReportRetentionDays int    `yaml:"reportRetentionDays"`
}

var cfg *Config

// defaultConfig returns the configuration used when no file is present.
func defaultConfig() *Config {
	return &Config{
		Port:                "8080",
		DBPath:              "./monitoring.db",
		ReportDir:           "./reports",
		Workers:             runtime.NumCPU(),
		DefaultTimezone:     "America/Chicago",
		InterpolationPolicy: PolicyMidpoint,
		ReportRetentionDays: 30,
	}
}

// loadConfig reads the YAML config file if it exists and fills in defaults
// for anything unset. A missing file is not an error.
func loadConfig(configPath string) (*Config, error) {
	conf := defaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Debug().Str("config_path", configPath).Msg("[Config] Configuration file not found, using defaults")
		} else {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, conf); err != nil {
				return nil, fmt.Errorf("failed to parse YAML: %w", err)
			}
			log.Info().Str("config_path", configPath).Msg("[Config] Loaded configuration")
		}
	}

	// Environment overrides.
	if envPort := os.Getenv("PORT"); envPort != "" {
		conf.Port = envPort
	}
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		conf.DBPath = envDB
	}

	if conf.Workers <= 0 {
		conf.Workers = runtime.NumCPU()
	}
	if conf.DefaultTimezone == "" {
		conf.DefaultTimezone = "America/Chicago"
	}
	if conf.InterpolationPolicy == "" {
		conf.InterpolationPolicy = PolicyMidpoint
	}
	if conf.InterpolationPolicy != PolicyMidpoint && conf.InterpolationPolicy != PolicyCarriedForward {
		return nil, fmt.Errorf("unknown interpolation policy %q", conf.InterpolationPolicy)
	}
	if conf.ReportRetentionDays <= 0 {
		conf.ReportRetentionDays = 30
	}

	return conf, nil
}
