package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DreamCats/idxdiag/internal/searchsvc"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

const (
	// CurrentSchemaVersion is the version of the database schema
	CurrentSchemaVersion = 1
)

// Snapshot is one recorded stats reading for an index.
type Snapshot struct {
	ID              int64
	IndexName       string
	DocumentCount   int64
	StorageSize     int64
	VectorIndexSize int64
	TakenAt         time.Time
}

// SnapshotStore keeps a local history of index statistics so runs can be
// compared over time.
type SnapshotStore struct {
	sqlDB *sql.DB
	path  string
}

// Open opens or creates a snapshot database at the given path
func Open(path string) (*SnapshotStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode=WAL&_pragma=synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SnapshotStore{
		sqlDB: sqlDB,
		path:  path,
	}

	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SnapshotStore) Close() error {
	return s.sqlDB.Close()
}

// Record appends a snapshot row for the given index.
func (s *SnapshotStore) Record(ctx context.Context, index string, stats searchsvc.IndexStats) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO snapshots (index_name, document_count, storage_size, vector_index_size, taken_at)
		VALUES (?, ?, ?, ?, ?)`,
		index, stats.DocumentCount, stats.StorageSize, stats.VectorIndexSize, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for an index. The boolean is
// false when no snapshot has been recorded yet.
func (s *SnapshotStore) Latest(ctx context.Context, index string) (Snapshot, bool, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, index_name, document_count, storage_size, vector_index_size, taken_at
		FROM snapshots
		WHERE index_name = ?
		ORDER BY taken_at DESC, id DESC
		LIMIT 1`, index)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return snap, true, nil
}

// Recent returns up to limit snapshots for an index, most recent first.
func (s *SnapshotStore) Recent(ctx context.Context, index string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, index_name, document_count, storage_size, vector_index_size, taken_at
		FROM snapshots
		WHERE index_name = ?
		ORDER BY taken_at DESC, id DESC
		LIMIT ?`, index, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snaps, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	err := row.Scan(
		&snap.ID,
		&snap.IndexName,
		&snap.DocumentCount,
		&snap.StorageSize,
		&snap.VectorIndexSize,
		&snap.TakenAt,
	)
	return snap, err
}

// migrate runs schema migrations
func (s *SnapshotStore) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version >= CurrentSchemaVersion {
		return nil
	}

	tx, err := s.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version == 0 {
		schema, err := schemaFS.ReadFile("schema.sql")
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		if _, err := tx.Exec(string(schema)); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SnapshotStore) getSchemaVersion() (int, error) {
	var exists int
	err := s.sqlDB.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = 'schema_version'`).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	var version sql.NullInt64
	err = s.sqlDB.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
