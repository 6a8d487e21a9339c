package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-revreport/internal/db"
)

var lastRunCmd = &cobra.Command{
	Use:   "last-run",
	Short: "Show metadata recorded by 'report --record'",
	RunE:  runLastRun,
}

var lastRunKey string

func init() {
	lastRunCmd.Flags().StringVar(&lastRunKey, "key", "",
		"Print only this metadata key (e.g. last_run_at)")
}

func runLastRun(cmd *cobra.Command, args []string) error {
	if cfg.Connection == "" {
		return fmt.Errorf("connection string is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := db.Connect(ctx, cfg.Connection, 1)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	exists, err := db.MetadataExists(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to check metadata table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no run has been recorded; run 'pgedge-revreport report --record' first")
	}

	if lastRunKey != "" {
		value, err := db.GetMetadataValue(ctx, pool, lastRunKey)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no metadata recorded for key %q", lastRunKey)
		}
		if err != nil {
			return fmt.Errorf("failed to read metadata %s: %w", lastRunKey, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}

	metadata, err := db.GetAllMetadata(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	for _, key := range slices.Sorted(maps.Keys(metadata)) {
		fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", key+":", metadata[key])
	}
	return nil
}
