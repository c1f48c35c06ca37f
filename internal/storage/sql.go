package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps values in the kv_entries table, scoped by the device id on
// the request context.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *SQLStore) q(query string) string { return s.db.Rebind(query) }

func (s *SQLStore) Read(ctx context.Context, key string) (string, bool, error) {
	device := DeviceFromContext(ctx)
	if device == "" {
		return "", false, ErrUnavailable
	}
	var raw string
	err := s.db.GetContext(ctx, &raw, s.q(`
		SELECT value FROM kv_entries WHERE device_id = ? AND entry_key = ?
	`), device, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

func (s *SQLStore) Write(ctx context.Context, key, raw string) error {
	device := DeviceFromContext(ctx)
	if device == "" {
		return ErrUnavailable
	}
	now := time.Now().UTC()

	// MySQL lacks ON CONFLICT; sqlite and postgres share the standard form.
	query := `
		INSERT INTO kv_entries (device_id, entry_key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (device_id, entry_key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if s.db.DriverName() == "mysql" {
		query = `
		INSERT INTO kv_entries (device_id, entry_key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)
	`
	}
	_, err := s.db.ExecContext(ctx, s.q(query), device, key, raw, now)
	return err
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	device := DeviceFromContext(ctx)
	if device == "" {
		return ErrUnavailable
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM kv_entries WHERE device_id = ? AND entry_key = ?
	`), device, key)
	return err
}
