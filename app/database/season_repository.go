package database

import (
	"database/sql"
	"fmt"
)

// SeasonSQLRepository handles database operations for seasons
type SeasonSQLRepository struct {
	db *DB
}

func NewSeasonRepository(db *DB) *SeasonSQLRepository {
	return &SeasonSQLRepository{db: db}
}

const seasonColumns = `id, name, start_date, COALESCE(estimated_end_date, ''),
	COALESCE(actual_end_date, ''), status, visit_goal, created_at, updated_at`

func (r *SeasonSQLRepository) scanSeason(row *sql.Row) (*Season, error) {
	var s Season
	err := row.Scan(&s.ID, &s.Name, &s.StartDate, &s.EstimatedEndDate,
		&s.ActualEndDate, &s.Status, &s.VisitGoal, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan season row: %w", err)
	}
	return &s, nil
}

func (r *SeasonSQLRepository) GetSeasonByName(name string) (*Season, error) {
	row := r.db.QueryRow(`SELECT `+seasonColumns+` FROM seasons WHERE name = ?`, name)
	return r.scanSeason(row)
}

func (r *SeasonSQLRepository) GetSeasonByID(id int64) (*Season, error) {
	row := r.db.QueryRow(`SELECT `+seasonColumns+` FROM seasons WHERE id = ?`, id)
	return r.scanSeason(row)
}

// GetActiveSeason returns the newest active season. At most one season should
// be active at a time; the newest wins if that invariant has been violated.
func (r *SeasonSQLRepository) GetActiveSeason() (*Season, error) {
	row := r.db.QueryRow(`SELECT ` + seasonColumns + ` FROM seasons
		WHERE status = 'active' ORDER BY start_date DESC LIMIT 1`)
	return r.scanSeason(row)
}

func (r *SeasonSQLRepository) InsertSeason(season Season) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO seasons (name, start_date, estimated_end_date, status, visit_goal)
		VALUES (?, ?, NULLIF(?, ''), ?, ?)
	`, season.Name, season.StartDate, season.EstimatedEndDate, season.Status, season.VisitGoal)
	if err != nil {
		return 0, fmt.Errorf("failed to insert season: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get season id: %w", err)
	}

	return id, nil
}

func (r *SeasonSQLRepository) UpdateSeasonStatus(id int64, status string) error {
	result, err := r.db.Exec(`
		UPDATE seasons SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update season status: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetActualEndDate freezes a season: the end date is recorded and the status
// moves to completed in the same statement.
func (r *SeasonSQLRepository) SetActualEndDate(id int64, endDate string) error {
	result, err := r.db.Exec(`
		UPDATE seasons SET actual_end_date = ?, status = 'completed', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, endDate, id)
	if err != nil {
		return fmt.Errorf("failed to set season end date: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}
