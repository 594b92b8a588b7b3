package database

import (
	"fmt"
)

// VisitSQLRepository handles database operations for visits
type VisitSQLRepository struct {
	db *DB
}

func NewVisitRepository(db *DB) *VisitSQLRepository {
	return &VisitSQLRepository{db: db}
}

const visitColumns = `id, season_id, visit_date, visit_time, pass_type,
	is_manual, notes, created_at, updated_at`

// InsertVisitIfAbsent inserts a visit, treating a duplicate
// (season, date, time, manual) key as a silent no-op. The returned bool
// reports whether a new row was actually written, so callers can count
// confirmed inserts rather than attempts.
func (r *VisitSQLRepository) InsertVisitIfAbsent(visit Visit) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO visits (season_id, visit_date, visit_time, pass_type, is_manual, notes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (season_id, visit_date, visit_time, is_manual) DO NOTHING
	`, visit.SeasonID, visit.VisitDate, visit.VisitTime, visit.PassType,
		boolToInt(visit.IsManual), visit.Notes)
	if err != nil {
		return false, fmt.Errorf("failed to insert visit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}

	return affected > 0, nil
}

func (r *VisitSQLRepository) GetVisitsBySeason(seasonID int64) ([]Visit, error) {
	return r.queryVisits(`
		SELECT `+visitColumns+` FROM visits
		WHERE season_id = ?
		ORDER BY visit_date DESC, visit_time DESC
	`, seasonID)
}

func (r *VisitSQLRepository) GetManualVisits(seasonID int64) ([]Visit, error) {
	return r.queryVisits(`
		SELECT `+visitColumns+` FROM visits
		WHERE season_id = ? AND is_manual = 1
		ORDER BY visit_date DESC, visit_time DESC
	`, seasonID)
}

func (r *VisitSQLRepository) queryVisits(query string, args ...interface{}) ([]Visit, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var isManual int
		err := rows.Scan(&v.ID, &v.SeasonID, &v.VisitDate, &v.VisitTime,
			&v.PassType, &isManual, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit row: %w", err)
		}
		v.IsManual = isManual != 0
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visit rows: %w", err)
	}

	return visits, nil
}

func (r *VisitSQLRepository) GetVisitCount(seasonID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM visits WHERE season_id = ?", seasonID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get visit count: %w", err)
	}
	return count, nil
}

func (r *VisitSQLRepository) UpdateManualVisit(id int64, visitTime, notes string) error {
	result, err := r.db.Exec(`
		UPDATE visits SET visit_time = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_manual = 1
	`, visitTime, notes, id)
	if err != nil {
		return fmt.Errorf("failed to update manual visit: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *VisitSQLRepository) DeleteManualVisit(id int64) error {
	result, err := r.db.Exec(`DELETE FROM visits WHERE id = ? AND is_manual = 1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete manual visit: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
