package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cecompare/cecompare/core"
	"github.com/cecompare/cecompare/internal/archive"
	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/internal/fetch"
	"github.com/cecompare/cecompare/internal/outwriter"
	"github.com/cecompare/cecompare/schema"
	"github.com/spf13/cobra"
)

// errDatesSkipped makes the process exit non-zero when any date could not be compared.
var errDatesSkipped = errors.New("comparison could not run for some dates")

// compareCmd compares both engines of a tenant over a period.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the prod and devel engine results of a tenant over a period.",
	Long: `Fetch the availability and reliability results both compute engines produced for
every date of the period and report where they disagree.

For every date that could be compared this writes:
- <save-path>/<tenant>@<date>_report.<ext> in the selected output format
- <save-path>/<tenant>@<date>_supplementary_report.txt with the endpoints missing
  from one engine and the error row (not for html, which embeds them)

and prints the endpoints whose availability or reliability delta reached the threshold.
Dates where an engine produced no results are reported and the command exits with status 1.

Examples:
  # Compare one day
  cecompare compare --tenant EGI --start 2023-03-01

  # Compare a month as CSV against saved engine responses
  cecompare compare -t EGI --start 2023-03-01 --end 2023-03-31 --output csv --from-dir ./responses`,
	PreRunE: compareSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := runCompare(rootCtx, cfg, cmd.OutOrStdout()); err != nil {
			contract.LogFatal("Cannot run comparison", err)
		}
	},
}

// runCompare wires the dataset source, the report writer and the optional archive into a run.
func runCompare(ctx context.Context, cfg *contract.Config, stdout io.Writer) error {
	store, err := archive.Open(ctx, cfg.ArchiveBackend, cfg.ArchiveDBConnect)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = store.Close() }()

	sinks := []contract.OutcomeSink{outwriter.NewOutWriter(cfg).WithStdout(stdout)}
	if cfg.ArchiveBackend != schema.NoneBackend {
		sinks = append(sinks, archive.Sink(store))
	}

	var executor core.ExecutorFunc = core.ExecuteCompare
	summary, err := executor(ctx, cfg, fetch.NewSource(cfg), sinks...)
	if err != nil {
		return err
	}
	if summary.Failed() {
		return fmt.Errorf("%w: %s", errDatesSkipped, strings.Join(summary.SkippedDates(), ", "))
	}
	return nil
}
