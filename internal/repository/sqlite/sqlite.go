// Package sqlite implements the repository interfaces using SQLite as the
// storage backend. It is selected with STORE=sqlite; the default store is
// in memory.
//
// WHAT IS DURABLE HERE?
// Accounts and advertisements. Workspaces are not: they live in memory and
// are rebuilt from the session cookie after a restart, under the same id.
// Advertisements are keyed by that id, so a returning browser that signs
// in again sees the ads it created before the restart.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without a C
// compiler and cross-compiles like any other Go program.
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The driver registers itself with database/sql as "sqlite" in its
	// init function. We never call it directly.
	_ "modernc.org/sqlite"

	"github.com/sakif/hoverspeak/internal/repository"
)

// Compile-time check that *DB satisfies both repository interfaces.
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool. Note that sql.DB is a pool, not a
// single connection: it is safe for concurrent use and opens connections
// on demand.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and applies migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (write-ahead logging) lets readers keep going while a write is in
	// progress. The default rollback journal blocks every reader for the
	// duration of each write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close releases the pool. database/sql makes a second Close a no-op.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Every statement is idempotent (IF NOT EXISTS,
// addColumnIfNotExists), so it runs on every start without a version table.
//
// ADVERTISEMENT KEYS:
// "seq" is an internal rowid that gives a stable creation order. The public
// ad id is only unique within its workspace, hence UNIQUE (workspace_id, id)
// rather than a primary key on id alone. That unique index also serves the
// "WHERE workspace_id = ?" lookups, since workspace_id is its first column.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id                TEXT PRIMARY KEY,
			first_name        TEXT NOT NULL DEFAULT '',
			last_name         TEXT NOT NULL DEFAULT '',
			email             TEXT NOT NULL DEFAULT '',
			company           TEXT NOT NULL DEFAULT '',
			subscription_plan TEXT NOT NULL DEFAULT '',
			password_hash     TEXT NOT NULL DEFAULT '',
			street_address1   TEXT NOT NULL DEFAULT '',
			street_address2   TEXT NOT NULL DEFAULT '',
			city              TEXT NOT NULL DEFAULT '',
			state             TEXT NOT NULL DEFAULT '',
			zip_code          TEXT NOT NULL DEFAULT '',
			country           TEXT NOT NULL DEFAULT '',
			phone_number      TEXT NOT NULL DEFAULT '',
			business_website  TEXT NOT NULL DEFAULT '',
			billing_frequency TEXT NOT NULL DEFAULT '',
			agree_terms       INTEGER NOT NULL DEFAULT 0,
			agree_privacy     INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS advertisements (
			seq                      INTEGER PRIMARY KEY AUTOINCREMENT,
			workspace_id             TEXT NOT NULL,
			id                       TEXT NOT NULL,
			text_message             TEXT NOT NULL DEFAULT '',
			audio_file_url           TEXT NOT NULL DEFAULT '',
			image_template_url       TEXT NOT NULL DEFAULT '',
			primary_language         TEXT NOT NULL DEFAULT 'en-US',
			translate_to_local       INTEGER NOT NULL DEFAULT 0,
			translation_text         TEXT NOT NULL DEFAULT '',
			local_language_tts_voice TEXT NOT NULL DEFAULT '',
			speech_voice             TEXT NOT NULL DEFAULT 'default',
			receiving_sites          TEXT NOT NULL DEFAULT '[]',
			display_until_date       TEXT NOT NULL DEFAULT '',
			is_active                INTEGER NOT NULL DEFAULT 1,
			created_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (workspace_id, id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating advertisements table: %w", err)
	}

	if err := db.addColumnIfNotExists("advertisements", "receiving_sites_file_url",
		"TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding receiving_sites_file_url to advertisements: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column unless a previous run already did.
//
// SQLite has no "ADD COLUMN IF NOT EXISTS", so we ask pragma_table_info
// first. The table and column names come from our own constants, never from
// input, which is why building the ALTER statement with Sprintf is fine here
// (identifiers can't be bound as ? parameters anyway).
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
