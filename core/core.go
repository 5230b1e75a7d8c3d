// Package core has core logic for comparing two engines: extraction, reconciliation,
// delta calculation and threshold classification.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"go.uber.org/zap"
)

// ExecutorFunc defines the function signature for executing a comparison run.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, src contract.DatasetSource, sinks ...contract.OutcomeSink) (schema.RunSummary, error)

// ExecuteCompare compares both engines of the configured tenant for every configured date.
// Dates are processed in order; a date that cannot be compared is recorded as skipped
// and the run continues. Sinks receive every outcome; a sink error aborts the run.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, src contract.DatasetSource, sinks ...contract.OutcomeSink) (schema.RunSummary, error) {
	start := time.Now()
	summary := schema.RunSummary{Tenant: cfg.Tenant.Name}

	for _, date := range cfg.Dates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome := RunDate(ctx, cfg, src, date)
		summary.Outcomes = append(summary.Outcomes, outcome)

		for _, sink := range sinks {
			if err := sink.Consume(ctx, cfg.Tenant.Name, outcome); err != nil {
				return summary, fmt.Errorf("failed to handle outcome for %s: %w", date, err)
			}
		}
	}

	zap.L().Info("comparison finished",
		zap.String("tenant", cfg.Tenant.Name),
		zap.Int("dates", len(summary.Outcomes)),
		zap.Strings("skipped", summary.SkippedDates()),
		zap.Duration("elapsed", time.Since(start)))
	return summary, nil
}

// RunDate fetches both engines' datasets for one date and compares them.
// Both engines are always fetched so the outcome tells which of them failed.
func RunDate(ctx context.Context, cfg *contract.Config, src contract.DatasetSource, date string) schema.DateOutcome {
	logger := zap.L().With(zap.String("tenant", cfg.Tenant.Name), zap.String("date", date))
	logger.Info("comparing engines")

	prodDS, prodErr := fetchSide(ctx, logger, src, schema.ProdSide, date)
	develDS, develErr := fetchSide(ctx, logger, src, schema.DevelSide, date)
	if prodErr != nil || develErr != nil {
		return skippedOutcome(logger, date, prodErr != nil, develErr != nil, "")
	}

	meta := ReportMeta{Tenant: cfg.Tenant.Name, Date: date, Threshold: cfg.Threshold}
	report, err := BuildReport(meta, prodDS, develDS, NewResultSelector(cfg.ResultSelect))
	if err != nil {
		var mde *MalformedDatasetError
		if errors.As(err, &mde) {
			return skippedOutcome(logger, date, mde.Side == schema.ProdSide, mde.Side == schema.DevelSide, err.Error())
		}
		return skippedOutcome(logger, date, false, false, err.Error())
	}

	logReport(logger, report)
	return schema.DateOutcome{
		Date:   date,
		Status: schema.ComparedStatus,
		Report: &report,
	}
}

// fetchSide fetches one engine and treats a dataset without results as a failure.
func fetchSide(ctx context.Context, logger *zap.Logger, src contract.DatasetSource, side schema.Side, date string) (schema.Dataset, error) {
	ds, err := src.Fetch(ctx, side, date)
	if err != nil {
		logger.Error("engine fetch failed", zap.String("side", string(side)), zap.Error(err))
		return schema.Dataset{}, err
	}
	if !ds.HasResults {
		err := &MalformedDatasetError{Side: side, Reason: reasonNoResults}
		logger.Error("engine produced no results", zap.String("side", string(side)))
		return schema.Dataset{}, err
	}
	return ds, nil
}

// SkipReason describes which engines failed to deliver a dataset.
func SkipReason(prodFailed, develFailed bool) string {
	switch {
	case prodFailed && develFailed:
		return "both engines produced no results"
	case prodFailed:
		return fmt.Sprintf("%s produced no results", schema.ProdSide)
	case develFailed:
		return fmt.Sprintf("%s produced no results", schema.DevelSide)
	default:
		return "comparison could not run"
	}
}

func skippedOutcome(logger *zap.Logger, date string, prodFailed, develFailed bool, detail string) schema.DateOutcome {
	reason := detail
	if reason == "" {
		reason = SkipReason(prodFailed, develFailed)
	}
	logger.Error("comparison could not run", zap.String("reason", reason))
	return schema.DateOutcome{
		Date:        date,
		Status:      schema.SkippedStatus,
		Reason:      reason,
		ProdFailed:  prodFailed,
		DevelFailed: develFailed,
	}
}

func logReport(logger *zap.Logger, report schema.Report) {
	for _, m := range report.Missing {
		present := schema.ProdSide
		if m.InDevel {
			present = schema.DevelSide
		}
		logger.Warn("endpoint reported by one engine only",
			zap.String("endpoint", string(m.Key)),
			zap.String("present_in", string(present)))
	}
	for _, e := range report.Exceedances.Availability {
		logger.Info("availability delta over threshold", zap.String("endpoint", string(e.Key)), zap.Float64("delta", e.Delta))
	}
	for _, e := range report.Exceedances.Reliability {
		logger.Info("reliability delta over threshold", zap.String("endpoint", string(e.Key)), zap.Float64("delta", e.Delta))
	}

	fields := []zap.Field{
		zap.Int("compared", len(report.Endpoints)),
		zap.Int("missing", len(report.Missing)),
		zap.Float64("total_error", report.Summary.TotalError),
		zap.Int("comparisons", report.Summary.Comparisons),
	}
	if report.Summary.AverageError != nil {
		fields = append(fields, zap.Float64("average_error", *report.Summary.AverageError))
	}
	logger.Info("comparison done", fields...)
}
