package database

import (
	"database/sql"
	"fmt"
	"time"
)

// CredentialSQLRepository handles database operations for portal credentials
type CredentialSQLRepository struct {
	db *DB
}

func NewCredentialRepository(db *DB) *CredentialSQLRepository {
	return &CredentialSQLRepository{db: db}
}

const credentialColumns = `id, user_id, encrypted_username, encrypted_password,
	account_type, is_active, last_synced_at, created_at, updated_at`

func (r *CredentialSQLRepository) scanCredential(row *sql.Row) (*Credential, error) {
	var c Credential
	var isActive int
	err := row.Scan(&c.ID, &c.UserID, &c.EncryptedUsername, &c.EncryptedPassword,
		&c.AccountType, &isActive, &c.LastSyncedAt, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential row: %w", err)
	}
	c.IsActive = isActive != 0
	return &c, nil
}

func (r *CredentialSQLRepository) GetCredential(id int64) (*Credential, error) {
	row := r.db.QueryRow(`SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id)
	return r.scanCredential(row)
}

func (r *CredentialSQLRepository) GetActiveCredential(accountType string) (*Credential, error) {
	row := r.db.QueryRow(`SELECT `+credentialColumns+` FROM credentials
		WHERE account_type = ? AND is_active = 1 LIMIT 1`, accountType)
	return r.scanCredential(row)
}

// UpsertCredential inserts or replaces the ciphertexts for the
// (user, account type) pair and returns the row id.
func (r *CredentialSQLRepository) UpsertCredential(credential Credential) (int64, error) {
	_, err := r.db.Exec(`
		INSERT INTO credentials (user_id, encrypted_username, encrypted_password, account_type, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, account_type) DO UPDATE SET
			encrypted_username = excluded.encrypted_username,
			encrypted_password = excluded.encrypted_password,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP
	`, credential.UserID, credential.EncryptedUsername, credential.EncryptedPassword,
		credential.AccountType, boolToInt(credential.IsActive))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert credential: %w", err)
	}

	var id int64
	err = r.db.QueryRow(`SELECT id FROM credentials WHERE user_id = ? AND account_type = ?`,
		credential.UserID, credential.AccountType).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get credential id: %w", err)
	}

	return id, nil
}

func (r *CredentialSQLRepository) UpdateLastSyncedAt(id int64, syncedAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE credentials SET last_synced_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, syncedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update credential sync time: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}
