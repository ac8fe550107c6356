package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opencommotion/scenekit/internal/scene"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (scenes + snapshots index)
const currentSchemaVersion = 1

// Catalog is the SQLite index over the JSON documents on disk.
// Uses WAL mode for concurrent read access.
type Catalog struct {
	db *sql.DB
}

// SceneRow is one scene as recorded in the catalog.
type SceneRow struct {
	SceneID       string    `json:"scene_id"`
	Revision      int64     `json:"revision"`
	EntityCount   int       `json:"entity_count"`
	MaterialCount int       `json:"material_count"`
	BehaviorCount int       `json:"behavior_count"`
	SavedAt       time.Time `json:"saved_at"`
}

// SnapshotRow is one snapshot as recorded in the catalog.
type SnapshotRow struct {
	SceneID    string    `json:"scene_id"`
	SnapshotID string    `json:"snapshot_id"`
	Path       string    `json:"path"`
	Revision   int64     `json:"revision"`
	SavedAt    time.Time `json:"saved_at"`
}

// OpenCatalog creates or opens the catalog database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
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

// Close closes the catalog connection.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RecordScene upserts the scene row after a successful autosave.
func (c *Catalog) RecordScene(ctx context.Context, summary scene.Summary, savedAt time.Time) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO scenes
		(scene_id, revision, entity_count, material_count, behavior_count, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scene_id) DO UPDATE SET
			revision = excluded.revision,
			entity_count = excluded.entity_count,
			material_count = excluded.material_count,
			behavior_count = excluded.behavior_count,
			saved_at = excluded.saved_at
	`,
		summary.SceneID,
		summary.Revision,
		summary.EntityCount,
		summary.MaterialCount,
		summary.BehaviorCount,
		savedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record scene: %w", err)
	}
	return nil
}

// RecordSnapshot upserts the snapshot row after a snapshot file is written.
// Restoring over an existing snapshot id reuses the row.
func (c *Catalog) RecordSnapshot(ctx context.Context, row SnapshotRow) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(scene_id, snapshot_id, path, revision, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(scene_id, snapshot_id) DO UPDATE SET
			path = excluded.path,
			revision = excluded.revision,
			saved_at = excluded.saved_at
	`,
		row.SceneID,
		row.SnapshotID,
		row.Path,
		row.Revision,
		row.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// Scenes lists every scene the catalog knows about, ordered by scene id.
func (c *Catalog) Scenes(ctx context.Context) ([]SceneRow, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT scene_id, revision, entity_count, material_count, behavior_count, saved_at
		FROM scenes
		ORDER BY scene_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	var out []SceneRow
	for rows.Next() {
		var row SceneRow
		var savedAt string
		if err := rows.Scan(&row.SceneID, &row.Revision, &row.EntityCount, &row.MaterialCount, &row.BehaviorCount, &savedAt); err != nil {
			return nil, fmt.Errorf("scan scene row: %w", err)
		}
		row.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	return out, nil
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

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// No incremental migrations yet; v1 databases are created whole
	// from schema.sql.

	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}
