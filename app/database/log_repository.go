package database

import (
	"fmt"
)

// LogSQLRepository handles database operations for scraping logs
type LogSQLRepository struct {
	db *DB
}

func NewLogRepository(db *DB) *LogSQLRepository {
	return &LogSQLRepository{db: db}
}

func (r *LogSQLRepository) InsertLog(log ScrapingLog) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO scraping_logs (credential_id, status, visits_found, visits_added, error_message)
		VALUES (?, ?, ?, ?, ?)
	`, log.CredentialID, log.Status, log.VisitsFound, log.VisitsAdded, log.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scraping log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scraping log id: %w", err)
	}

	return id, nil
}

// UpdateLog moves a pending log row to its terminal state. Logs are never
// deleted; the table is an append-mostly audit trail.
func (r *LogSQLRepository) UpdateLog(id int64, patch LogPatch) error {
	result, err := r.db.Exec(`
		UPDATE scraping_logs
		SET status = ?, visits_found = ?, visits_added = ?, error_message = ?
		WHERE id = ?
	`, patch.Status, patch.VisitsFound, patch.VisitsAdded, patch.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update scraping log: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *LogSQLRepository) GetRecentLogs(credentialID int64, limit int) ([]ScrapingLog, error) {
	rows, err := r.db.Query(`
		SELECT id, credential_id, status, visits_found, visits_added, error_message, created_at
		FROM scraping_logs
		WHERE credential_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, credentialID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scraping logs: %w", err)
	}
	defer rows.Close()

	var logs []ScrapingLog
	for rows.Next() {
		var l ScrapingLog
		err := rows.Scan(&l.ID, &l.CredentialID, &l.Status, &l.VisitsFound,
			&l.VisitsAdded, &l.ErrorMessage, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scraping log row: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scraping log rows: %w", err)
	}

	return logs, nil
}
