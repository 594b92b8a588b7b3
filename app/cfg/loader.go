package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath         string `long:"db-path" env:"DB_PATH" default:"./hilltally.db" description:"Path to the SQLite database file"`
	UseMemoryStore bool   `long:"use-memory-store" env:"USE_MEMORY_STORE" description:"Run against an in-memory store instead of SQLite (development/testing)"`

	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`
	PortalsDir    string `long:"portals-dir" env:"PORTALS_DIR" default:"./portals" description:"Directory containing portal definition files"`
	PortalID      string `long:"portal-id" env:"PORTAL_ID" default:"three_rivers" description:"Portal definition used for badge-in ingestion"`
	EncryptionKey string `long:"encryption-key" env:"ENCRYPTION_KEY" description:"Secret used to encrypt stored portal credentials (required)" required:"true"`

	// Ingestion configuration
	SyncMaxAttempts     int `long:"sync-max-attempts" env:"SYNC_MAX_ATTEMPTS" default:"3" description:"Maximum ingestion attempts per sync run"`
	SyncRetryDelay      int `long:"sync-retry-delay" env:"SYNC_RETRY_DELAY" default:"10" description:"Delay between ingestion attempts in seconds"`
	SeasonBoundaryMonth int `long:"season-boundary-month" env:"SEASON_BOUNDARY_MONTH" default:"7" description:"Calendar month (1-12) on whose 1st day a new season starts"`

	// Background scheduler configuration
	WorkerCount       int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for sync tasks"`
	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Scheduler interval in seconds"`

	// Weather configuration
	WeatherLatitude  float64 `long:"weather-lat" env:"WEATHER_LAT" default:"44.93" description:"Latitude for historical weather lookups"`
	WeatherLongitude float64 `long:"weather-lon" env:"WEATHER_LON" default:"-93.37" description:"Longitude for historical weather lookups"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36" description:"User agent string for portal sessions and HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/Chicago)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.SeasonBoundaryMonth < 1 || raw.SeasonBoundaryMonth > 12 {
		return nil, fmt.Errorf("invalid season boundary month: %d", raw.SeasonBoundaryMonth)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		UseMemoryStore:      raw.UseMemoryStore,
		Port:                raw.Port,
		APIAccessKey:        raw.APIAccessKey,
		PortalsDir:          raw.PortalsDir,
		PortalID:            raw.PortalID,
		EncryptionKey:       raw.EncryptionKey,
		SyncMaxAttempts:     raw.SyncMaxAttempts,
		SyncRetryDelay:      raw.SyncRetryDelay,
		SeasonBoundaryMonth: raw.SeasonBoundaryMonth,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		WeatherLatitude:     raw.WeatherLatitude,
		WeatherLongitude:    raw.WeatherLongitude,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
