package database

import (
	"fmt"
)

// WeatherSQLRepository handles database operations for cached weather days
type WeatherSQLRepository struct {
	db *DB
}

func NewWeatherRepository(db *DB) *WeatherSQLRepository {
	return &WeatherSQLRepository{db: db}
}

// UpsertWeatherDay inserts or refreshes the cache entry for a day. Entries
// are never deleted.
func (r *WeatherSQLRepository) UpsertWeatherDay(day WeatherDay) error {
	_, err := r.db.Exec(`
		INSERT INTO weather_days (day, temp_high, temp_low, snowfall, conditions, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (day) DO UPDATE SET
			temp_high = excluded.temp_high,
			temp_low = excluded.temp_low,
			snowfall = excluded.snowfall,
			conditions = excluded.conditions,
			source = excluded.source
	`, day.Day, day.TempHigh, day.TempLow, day.Snowfall, day.Conditions, day.Source)
	if err != nil {
		return fmt.Errorf("failed to upsert weather day: %w", err)
	}

	return nil
}

func (r *WeatherSQLRepository) GetWeatherRange(startDay, endDay string) ([]WeatherDay, error) {
	rows, err := r.db.Query(`
		SELECT id, day, COALESCE(temp_high, 0), COALESCE(temp_low, 0),
		       COALESCE(snowfall, 0), conditions, source, created_at
		FROM weather_days
		WHERE day >= ? AND day <= ?
		ORDER BY day
	`, startDay, endDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather days: %w", err)
	}
	defer rows.Close()

	var days []WeatherDay
	for rows.Next() {
		var d WeatherDay
		err := rows.Scan(&d.ID, &d.Day, &d.TempHigh, &d.TempLow, &d.Snowfall,
			&d.Conditions, &d.Source, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weather row: %w", err)
		}
		days = append(days, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weather rows: %w", err)
	}

	return days, nil
}
