package fixture

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (fixtures table)
const currentSchemaVersion = 1

// Catalog indexes stored fixtures in SQLite.
// Uses WAL mode for concurrent read access.
type Catalog struct {
	db *sql.DB
}

// FixtureRecord is one catalog row.
type FixtureRecord struct {
	// ID is the UUIDv7 run identifier assigned when recorded.
	ID string

	// Name is the fixture name; unique within a catalog.
	Name string

	// Digest is the domain-separated SHA-256 of the document bytes.
	Digest string

	// FormatVersion is the wire format version the document carries.
	FormatVersion string

	// SizeBytes is the document size.
	SizeBytes int64

	// Seq is the logical clock stamp.
	Seq int64
}

// OpenCatalog creates or opens a catalog database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent, safe to call multiple times.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution, prefer Catalog methods when available.
func (c *Catalog) DB() *sql.DB {
	return c.db
}

// RecordFixture inserts or updates a fixture row.
//
// One row per name: re-recording an existing name updates its digest,
// format version, size and seq, keeping the original run ID. This keeps
// the catalog describing the current state of the store.
func (c *Catalog) RecordFixture(ctx context.Context, rec FixtureRecord) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO fixtures
		(id, name, digest, format_version, size_bytes, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			digest = excluded.digest,
			format_version = excluded.format_version,
			size_bytes = excluded.size_bytes,
			seq = excluded.seq
	`,
		rec.ID,
		rec.Name,
		rec.Digest,
		rec.FormatVersion,
		rec.SizeBytes,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("record fixture: %w", err)
	}
	return nil
}

// FixtureByName retrieves a single catalog row by fixture name.
// Returns sql.ErrNoRows if not found.
func (c *Catalog) FixtureByName(ctx context.Context, name string) (FixtureRecord, error) {
	var rec FixtureRecord
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, digest, format_version, size_bytes, seq
		FROM fixtures
		WHERE name = ?
	`, name).Scan(
		&rec.ID, &rec.Name, &rec.Digest, &rec.FormatVersion, &rec.SizeBytes, &rec.Seq,
	)
	if err != nil {
		return FixtureRecord{}, err
	}
	return rec, nil
}

// ListFixtures returns all catalog rows with deterministic ordering:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) for an empty catalog.
func (c *Catalog) ListFixtures(ctx context.Context) ([]FixtureRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, digest, format_version, size_bytes, seq
		FROM fixtures
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query fixtures: %w", err)
	}
	defer rows.Close()

	var records []FixtureRecord
	for rows.Next() {
		var rec FixtureRecord
		if err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Digest, &rec.FormatVersion, &rec.SizeBytes, &rec.Seq,
		); err != nil {
			return nil, fmt.Errorf("scan fixture: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixtures: %w", err)
	}

	if records == nil {
		records = []FixtureRecord{}
	}
	return records, nil
}

// MaxSeq returns the highest seq recorded, 0 for an empty catalog.
// Used with NewClockAt to resume numbering over an existing catalog.
func (c *Catalog) MaxSeq(ctx context.Context) (int64, error) {
	var max int64
	err := c.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM fixtures
	`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return max, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Refuses databases written by a newer schema. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("catalog schema version %d is newer than supported %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (c *Catalog) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := c.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
