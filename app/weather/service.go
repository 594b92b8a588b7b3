package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lwestby/hilltally/app/database"
)

// Fetcher is the slice of Client the service needs, separated for tests.
type Fetcher interface {
	FetchRange(ctx context.Context, startDay, endDay string) ([]Day, error)
}

// Service keeps the weather_days cache current for the active season.
type Service struct {
	fetcher Fetcher
	seasons database.SeasonRepository
	weather database.WeatherRepository
	now     func() time.Time
}

func NewService(fetcher Fetcher, store database.Store) *Service {
	return &Service{
		fetcher: fetcher,
		seasons: store.Seasons(),
		weather: store.Weather(),
		now:     time.Now,
	}
}

// SyncActiveSeason fetches weather for the active season from its start date
// through yesterday and upserts each day. The archive API lags a day or two
// behind real time, so today is never requested.
func (s *Service) SyncActiveSeason(ctx context.Context) (int, error) {
	season, err := s.seasons.GetActiveSeason()
	if err != nil {
		return 0, fmt.Errorf("failed to get active season: %w", err)
	}
	if season == nil {
		slog.Debug("No active season, skipping weather sync")
		return 0, nil
	}

	endDay := s.now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	if season.StartDate > endDay {
		return 0, nil
	}

	days, err := s.fetcher.FetchRange(ctx, season.StartDate, endDay)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch weather for season %q: %w", season.Name, err)
	}

	stored := 0
	for _, day := range days {
		err := s.weather.UpsertWeatherDay(database.WeatherDay{
			Day:        day.Date,
			TempHigh:   day.TempHigh,
			TempLow:    day.TempLow,
			Snowfall:   day.Snowfall,
			Conditions: day.Conditions,
			Source:     "open-meteo",
		})
		if err != nil {
			return stored, fmt.Errorf("failed to store weather for %s: %w", day.Date, err)
		}
		stored++
	}

	slog.Info("Weather sync completed", "season", season.Name, "days", stored)

	return stored, nil
}
