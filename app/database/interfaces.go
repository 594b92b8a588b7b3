package database

import (
	"errors"
	"time"
)

// ErrNotFound is returned by update/delete operations that matched no row.
var ErrNotFound = errors.New("record not found")

type SeasonRepository interface {
	GetSeasonByName(name string) (*Season, error)
	GetSeasonByID(id int64) (*Season, error)
	GetActiveSeason() (*Season, error)
	InsertSeason(season Season) (int64, error)
	UpdateSeasonStatus(id int64, status string) error
	SetActualEndDate(id int64, endDate string) error
}

type VisitRepository interface {
	// InsertVisitIfAbsent inserts a visit unless one already exists for the
	// (season, date, time, manual) key. Returns true when a row was actually
	// inserted, false on a duplicate key. Duplicates are not errors.
	InsertVisitIfAbsent(visit Visit) (bool, error)

	GetVisitsBySeason(seasonID int64) ([]Visit, error)
	GetManualVisits(seasonID int64) ([]Visit, error)
	GetVisitCount(seasonID int64) (int, error)

	// UpdateManualVisit and DeleteManualVisit only touch rows with
	// is_manual set; automated visits are immutable.
	UpdateManualVisit(id int64, visitTime, notes string) error
	DeleteManualVisit(id int64) error
}

type LogRepository interface {
	InsertLog(log ScrapingLog) (int64, error)
	UpdateLog(id int64, patch LogPatch) error
	GetRecentLogs(credentialID int64, limit int) ([]ScrapingLog, error)
}

type CredentialRepository interface {
	GetCredential(id int64) (*Credential, error)
	GetActiveCredential(accountType string) (*Credential, error)
	UpsertCredential(credential Credential) (int64, error)
	UpdateLastSyncedAt(id int64, syncedAt time.Time) error
}

type WeatherRepository interface {
	UpsertWeatherDay(day WeatherDay) error
	GetWeatherRange(startDay, endDay string) ([]WeatherDay, error)
}

// Store bundles the repository interfaces behind a single handle so the
// SQLite and in-memory implementations are interchangeable at startup.
type Store interface {
	Seasons() SeasonRepository
	Visits() VisitRepository
	Logs() LogRepository
	Credentials() CredentialRepository
	Weather() WeatherRepository
	Close() error
}
