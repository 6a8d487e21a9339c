//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-revreport/internal/logging"
	"github.com/pgEdge/pgedge-revreport/pkg/version"
)

const metadataTable = "revreport_metadata"

// createMetadataTableSQL creates the bookkeeping table if it doesn't exist.
// It never touches the retail tables.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS revreport_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// RunSummary describes one report run for bookkeeping.
type RunSummary struct {
	Source         string
	Rows           int
	ProjectedLines int
	Defects        int
}

// SaveRunMetadata records the last report run in the metadata table.
func SaveRunMetadata(ctx context.Context, pool *pgxpool.Pool, run RunSummary) error {
	// Create table if it doesn't exist
	_, err := pool.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"version":          version.Short(),
		"last_run_at":      time.Now().UTC().Format(time.RFC3339),
		"last_run_source":  run.Source,
		"last_run_rows":    fmt.Sprint(run.Rows),
		"last_run_lines":   fmt.Sprint(run.ProjectedLines),
		"last_run_defects": fmt.Sprint(run.Defects),
	}

	// Insert or update, in key order
	for _, key := range slices.Sorted(maps.Keys(metadata)) {
		_, err := pool.Exec(ctx, `
            INSERT INTO revreport_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, metadata[key])
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Str("source", run.Source).
		Int("rows", run.Rows).
		Msg("Saved run metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, q Querier, key string) (string, error) {
	var value string
	err := q.QueryRow(ctx, `
        SELECT value FROM revreport_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, q Querier) (map[string]string, error) {
	rows, err := q.Query(ctx, `SELECT key, value FROM revreport_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, q Querier) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, metadataTable).Scan(&exists)
	return exists, err
}
