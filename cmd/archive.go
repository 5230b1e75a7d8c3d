package cmd

import (
	"fmt"

	"github.com/cecompare/cecompare/internal/archive"
	"github.com/cecompare/cecompare/internal/contract"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// archiveCmd focused on archived outcome management.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the archive of comparison outcomes",
	Long: `Manage the archive that keeps every comparison outcome for trend tracking.

When an archive backend is configured, compare stores:
- One run per tenant and date, compared or skipped, with its error row
- One row per compared endpoint with both engines' values and the deltas

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show archive statistics
  export  - Export archived data to Parquet
  migrate - Run database schema migrations

Examples:
  # Check the archive
  cecompare archive status --archive-backend sqlite

  # Export for analysis in pandas/DuckDB
  cecompare archive export --archive-backend sqlite --output-file outcomes`,
}

// archiveStatusCmd shows archive status.
var archiveStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display archive statistics and connection details",
	PreRunE: optionalSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		store, err := archive.Open(rootCtx, cfg.ArchiveBackend, cfg.ArchiveDBConnect)
		if err != nil {
			contract.LogFatal("Failed to open archive", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get archive status", err)
		}
		archive.PrintStatus(cmd.OutOrStdout(), status)
	},
}

// archiveExportCmd exports archived data to Parquet files.
var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived outcomes to Parquet for BI tools and analytics",
	Long: `Export all archived data to Parquet format for use with analytics tools.

Exports two datasets:
- <output-file>.runs.parquet - one row per tenant and date
- <output-file>.endpoint_deltas.parquet - one row per compared endpoint

Requires: --output-file parameter`,
	PreRunE: optionalSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		store, err := archive.Open(rootCtx, cfg.ArchiveBackend, cfg.ArchiveDBConnect)
		if err != nil {
			contract.LogFatal("Failed to open archive", err)
		}
		defer func() { _ = store.Close() }()

		if err := archive.Export(rootCtx, store, viper.GetString("output-file"), cmd.OutOrStdout()); err != nil {
			contract.LogFatal("Failed to export archive", err)
		}
	},
}

// archiveMigrateCmd runs database migrations for the archive.
var archiveMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the archive.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  cecompare archive migrate --archive-backend sqlite

  # Rollback to initial state
  cecompare archive migrate --archive-backend sqlite --target-version 0`,
	PreRunE: optionalSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := archive.Migrate(rootCtx, cfg.ArchiveBackend, cfg.ArchiveDBConnect, targetVersion, cmd.OutOrStdout()); err != nil {
			contract.LogFatal("Failed to run migrations", fmt.Errorf("backend %s: %w", cfg.ArchiveBackend, err))
		}
	},
}
