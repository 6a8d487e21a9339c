package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-revreport/internal/db"
	"github.com/pgEdge/pgedge-revreport/internal/logging"
	"github.com/pgEdge/pgedge-revreport/internal/pipeline"
	"github.com/pgEdge/pgedge-revreport/internal/source/postgres"
	"github.com/pgEdge/pgedge-revreport/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare the report with the same aggregation computed in SQL",
	Long: `Run the report pipeline against PostgreSQL and compute the same
aggregation with a reference SQL query in the database. Every bucket on
which the two disagree is printed, and the command fails if there is any.

The comparison assumes primary keys on the id columns and no concurrent
writes while it runs.

Example:
  pgedge-revreport verify --connection "postgres://..."`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().IntVar(&reportWorkers, "workers", 0,
		"number of parallel partitions (default: GOMAXPROCS)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	if reportWorkers > 0 {
		cfg.Report.Workers = reportWorkers
	}
	if err := cfg.ValidateVerify(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := db.Connect(ctx, cfg.Connection, int32(cfg.Report.MaxConns))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	ds, err := postgres.Load(ctx, postgres.NewReader(pool))
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	result, err := pipeline.Run(ctx, ds, pipelineOptions())
	if err != nil {
		return err
	}

	mismatches, err := verify.Verify(ctx, pool, result.Rows)
	if err != nil {
		return err
	}

	for _, m := range mismatches {
		cmd.Println(m.String())
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%d of %d buckets differ from the reference query",
			len(mismatches), len(result.Rows))
	}

	logging.Info().
		Int("buckets", len(result.Rows)).
		Msg("Report matches the reference query")
	return nil
}
