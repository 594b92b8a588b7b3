package season

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lwestby/hilltally/app/database"
)

// Resolver maps calendar dates onto season records, creating seasons on
// demand. A season boundary is the 1st of the configured month: dates on or
// after the boundary belong to the season labelled with their own year,
// earlier dates to the previous year's season.
type Resolver struct {
	seasons       database.SeasonRepository
	boundaryMonth time.Month
}

func NewResolver(seasons database.SeasonRepository, boundaryMonth time.Month) *Resolver {
	return &Resolver{seasons: seasons, boundaryMonth: boundaryMonth}
}

// Info is the deterministic identity of the season a date belongs to.
type Info struct {
	Name      string
	StartDate string
	StartYear int
}

// InfoForDate derives the season identity for a date without touching
// storage. Example with a July boundary: 2025-12-15 belongs to
// "2025/2026 Season" (start 2025-07-01), 2025-03-20 to "2024/2025 Season".
func (r *Resolver) InfoForDate(date time.Time) Info {
	startYear := date.Year()
	if date.Month() < r.boundaryMonth {
		startYear--
	}

	return Info{
		Name:      fmt.Sprintf("%d/%d Season", startYear, startYear+1),
		StartDate: fmt.Sprintf("%d-%02d-01", startYear, r.boundaryMonth),
		StartYear: startYear,
	}
}

// ResolveSeasonID returns the id of the season owning the date, inserting a
// new active season if none exists yet. The lookup is by canonical name, so
// repeated calls are idempotent; a previously completed season is returned
// as-is rather than reactivated. Seasons are never deleted or merged here.
func (r *Resolver) ResolveSeasonID(date time.Time) (int64, error) {
	info := r.InfoForDate(date)

	existing, err := r.seasons.GetSeasonByName(info.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to look up season %q: %w", info.Name, err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	id, err := r.seasons.InsertSeason(database.Season{
		Name:      info.Name,
		StartDate: info.StartDate,
		Status:    database.SeasonStatusActive,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create season %q: %w", info.Name, err)
	}

	slog.Info("Created season", "name", info.Name, "start_date", info.StartDate)

	return id, nil
}
