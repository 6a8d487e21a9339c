//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-revreport.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-revreport/internal/config"
	"github.com/pgEdge/pgedge-revreport/internal/logging"
	"github.com/pgEdge/pgedge-revreport/internal/source"
	"github.com/pgEdge/pgedge-revreport/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	sourceName string
	logLevel   string
	logJSON    bool

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-revreport",
		Short: "Monthly revenue and returns report by product category",
		Long: `pgedge-revreport reads orders, order lines, products and returns,
and reports for every product category and calendar month the gross
revenue and the number of distinct orders that were later returned.

Rows with dangling references or malformed values are skipped and
reported as defects; arithmetic overflow aborts the run. Data can be
read from PostgreSQL or generated synthetically for testing.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-revreport.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&sourceName, "source", "",
		"data source (postgres, synthetic)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"write logs as JSON lines")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(lastRunCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if sourceName != "" {
		cfg.Source = sourceName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: !logJSON,
	})

	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available data sources",
	Long: `List the data sources the report can read from. Select one with
--source or the 'source' config key.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Available sources:")
		cmd.Println()
		for _, d := range source.List() {
			cmd.Printf("  %-10s - %s\n", d.Name, d.Description)
		}
	},
}
