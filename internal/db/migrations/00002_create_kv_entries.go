package migrations

// kv_entries backs the indefinite ("local") storage scope. Rows are keyed by
// the device cookie, not by user, so values survive sign-out.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateKVEntries, downCreateKVEntries)
}

var kvEntriesDDL = map[string]string{
	"postgres": `CREATE TABLE IF NOT EXISTS kv_entries (
    device_id  TEXT NOT NULL,
    entry_key  TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (device_id, entry_key)
)`,
	"mysql": `CREATE TABLE IF NOT EXISTS kv_entries (
    device_id  VARCHAR(36) NOT NULL,
    entry_key  VARCHAR(191) NOT NULL,
    value      MEDIUMTEXT NOT NULL,
    updated_at TIMESTAMP(6) NOT NULL,
    PRIMARY KEY (device_id, entry_key)
)`,
	"sqlite3": `CREATE TABLE IF NOT EXISTS kv_entries (
    device_id  TEXT NOT NULL,
    entry_key  TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at DATETIME NOT NULL,
    PRIMARY KEY (device_id, entry_key)
)`,
}

func upCreateKVEntries(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, dialectDDL(kvEntriesDDL)); err != nil {
		return fmt.Errorf("create kv_entries table: %w", err)
	}
	return nil
}

func downCreateKVEntries(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS kv_entries`)
	return err
}
