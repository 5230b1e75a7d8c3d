// Package cmd defines the command-line interface for cecompare.
package cmd

import (
	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// nestedFlags maps config keys that live in a section to the flag overriding them.
var nestedFlags = map[string]string{
	"period.start_date":  "start",
	"period.end_date":    "end",
	"save_location.path": "save-path",
	"log.level":          "log-level",
	"log.format":         "log-format",
	"archive.backend":    "archive-backend",
	"archive.db-connect": "archive-db-connect",
}

// flatFlags share their name with the config key.
var flatFlags = []string{
	"tenant", "threshold", "output", "result-select", "from-dir", "insecure",
	"timeout", "rate-limit", "retries", "precision", "width", "color",
}

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the archive subcommands to the parent archive command
	archiveCmd.AddCommand(archiveStatusCmd)
	archiveCmd.AddCommand(archiveExportCmd)
	archiveCmd.AddCommand(archiveMigrateCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file")
	pf.StringP("tenant", "t", "", "Name of the tenant to compare")
	pf.String("start", "", "Start date (YYYY-MM-DD)")
	pf.String("end", "", "End date (YYYY-MM-DD), defaults to the start date")
	pf.Float64("threshold", contract.DefaultThreshold, "Delta at or above which an endpoint is reported")
	pf.StringP("output", "s", string(schema.JSONOut), "Report format: json or csv or html or text or parquet or prom")
	pf.String("result-select", string(schema.SelectFirst), "Result entry used per endpoint: first or last or date")
	pf.String("save-path", "", "Directory for generated reports (defaults to the configured save location)")
	pf.String("from-dir", "", "Read engine responses from <dir>/<prod|devel>/<date>.json instead of the engine APIs")
	pf.Bool("insecure", false, "Skip TLS certificate verification of the engine APIs")
	pf.String("timeout", contract.DefaultTimeout, "Timeout of a single engine request")
	pf.Float64("rate-limit", contract.DefaultRateLimit, "Engine requests per second")
	pf.Int("retries", contract.DefaultMaxRetries, "Retries of a failed engine request")
	pf.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	pf.Int("width", 0, "Terminal width override (0 = auto-detect)")
	pf.String("color", "yes", "Enable colored output (yes/no/true/false/1/0)")
	pf.String("log-level", "", "Log level: debug or info or warn or error")
	pf.String("log-format", "", "Log format: console or json")
	pf.String("archive-backend", "", "Archive backend: sqlite or mysql or postgresql or none")
	pf.String("archive-db-connect", "", "Archive connection string for mysql/postgresql or SQLite file path")

	for _, name := range append([]string{"config"}, flatFlags...) {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			contract.LogFatal("Error binding root flags", err)
		}
	}
	for key, name := range nestedFlags {
		if err := viper.BindPFlag(key, pf.Lookup(name)); err != nil {
			contract.LogFatal("Error binding root flags", err)
		}
	}

	// Bind all flags of archive subcommands to Viper
	archiveExportCmd.Flags().String("output-file", "", "Prefix of the exported Parquet files")
	if err := viper.BindPFlag("output-file", archiveExportCmd.Flags().Lookup("output-file")); err != nil {
		contract.LogFatal("Error binding archive export flags", err)
	}
	archiveMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlag("target-version", archiveMigrateCmd.Flags().Lookup("target-version")); err != nil {
		contract.LogFatal("Error binding archive migrate flags", err)
	}
}
