package database

import (
	"time"
)

const (
	SeasonStatusActive    = "active"
	SeasonStatusCompleted = "completed"
	SeasonStatusUpcoming  = "upcoming"
)

const (
	LogStatusPending = "pending"
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
	LogStatusPartial = "partial"
)

// Season is a one-year bucket of visits with a fixed calendar boundary.
// Dates are stored as YYYY-MM-DD strings.
type Season struct {
	ID               int64
	Name             string
	StartDate        string
	EstimatedEndDate string
	ActualEndDate    string
	Status           string
	VisitGoal        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Visit is a single recorded hill attendance, either scraped (IsManual=false)
// or user-entered (IsManual=true). VisitTime is an empty string rather than
// NULL when absent so the (season, date, time, manual) uniqueness key is total.
type Visit struct {
	ID        int64
	SeasonID  int64
	VisitDate string
	VisitTime string
	PassType  string
	IsManual  bool
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeatherDay is a cached historical weather record, upserted by day.
type WeatherDay struct {
	ID         int64
	Day        string
	TempHigh   float64
	TempLow    float64
	Snowfall   float64
	Conditions string
	Source     string
	CreatedAt  time.Time
}

// ScrapingLog is an append-mostly audit record for one ingestion run.
type ScrapingLog struct {
	ID           int64
	CredentialID int64
	Status       string
	VisitsFound  int
	VisitsAdded  int
	ErrorMessage string
	CreatedAt    time.Time
}

// LogPatch carries the fields updated on a scraping log at run completion.
type LogPatch struct {
	Status       string
	VisitsFound  int
	VisitsAdded  int
	ErrorMessage string
}

// Credential holds vault-encrypted portal credentials, one per user per
// account type.
type Credential struct {
	ID                int64
	UserID            int64
	EncryptedUsername string
	EncryptedPassword string
	AccountType       string
	IsActive          bool
	LastSyncedAt      *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
