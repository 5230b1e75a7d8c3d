package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cecompare/cecompare/schema"
)

// sqliteTimeLayout is how SQLite stores timestamps as TEXT.
const sqliteTimeLayout = time.RFC3339Nano

// RecordOutcome stores the outcome as one run row plus one delta row per compared endpoint.
func (s *Store) RecordOutcome(ctx context.Context, tenant string, outcome schema.DateOutcome) (int64, error) {
	// Skip for NoneBackend
	if s.db == nil {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runID, err := s.insertRun(ctx, tx, tenant, outcome)
	if err != nil {
		return 0, err
	}

	if outcome.Compared() {
		query := s.rebind(fmt.Sprintf(`INSERT INTO %s (run_id, endpoint, a_prod, a_devel, r_prod, r_devel, d_a, d_r)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, endpointDeltasTable))
		report := outcome.Report
		for _, key := range report.SortedKeys() {
			rec := report.Endpoints[key]
			if _, err := tx.ExecContext(ctx, query,
				runID, string(key),
				rec.AProd.Ptr(), rec.ADevel.Ptr(), rec.RProd.Ptr(), rec.RDevel.Ptr(),
				rec.DA.Ptr(), rec.DR.Ptr()); err != nil {
				return 0, fmt.Errorf("failed to insert endpoint delta %s: %w", key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit outcome: %w", err)
	}
	return runID, nil
}

// insertRun writes the run row and returns its ID.
func (s *Store) insertRun(ctx context.Context, tx *sql.Tx, tenant string, outcome schema.DateOutcome) (int64, error) {
	var reason *string
	if outcome.Reason != "" {
		reason = &outcome.Reason
	}

	var threshold, totalError float64
	var comparisons, missingCount int
	var averageError *float64
	if outcome.Compared() {
		report := outcome.Report
		threshold = report.Threshold
		totalError = report.Summary.TotalError
		comparisons = report.Summary.Comparisons
		averageError = report.Summary.AverageError
		missingCount = len(report.Missing)
	}

	args := []any{
		tenant, outcome.Date, string(outcome.Status), reason,
		threshold, totalError, comparisons, averageError, missingCount,
		s.formatTime(time.Now().UTC()),
	}
	query := fmt.Sprintf(`INSERT INTO %s (tenant, run_date, status, reason, threshold, total_error,
		comparisons, average_error, missing_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, runsTable)

	var runID int64
	switch s.backend {
	case schema.PostgreSQLBackend:
		if err := tx.QueryRowContext(ctx, s.rebind(query)+" RETURNING run_id", args...).Scan(&runID); err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
	default: // SQLite and MySQL
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		if runID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read run ID: %w", err)
		}
	}
	return runID, nil
}

// GetStatus returns status information about the archive.
func (s *Store) GetStatus(ctx context.Context) (schema.ArchiveStatus, error) {
	status := schema.ArchiveStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}

	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	skippedQuery := s.rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE status = ?", runsTable))
	if err := s.db.QueryRowContext(ctx, skippedQuery, string(schema.SkippedStatus)).Scan(&status.SkippedRuns); err != nil {
		return status, fmt.Errorf("failed to get skipped runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastQuery := fmt.Sprintf("SELECT run_id, created_at FROM %s ORDER BY run_id DESC LIMIT 1", runsTable)
		if err := s.db.QueryRowContext(ctx, lastQuery).Scan(&status.LastRunID, timeScanner{&status.LastRunTime}); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		oldestQuery := fmt.Sprintf("SELECT created_at FROM %s ORDER BY run_id ASC LIMIT 1", runsTable)
		if err := s.db.QueryRowContext(ctx, oldestQuery).Scan(timeScanner{&status.OldestRunTime}); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
	}

	for _, table := range []string{runsTable, endpointDeltasTable} {
		var count int64
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all archived runs ordered by run ID.
func (s *Store) GetAllRuns(ctx context.Context) ([]schema.RunRecord, error) {
	if s.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, tenant, run_date, status, reason, threshold, total_error,
		comparisons, average_error, missing_count, created_at
		FROM %s ORDER BY run_id`, runsTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var r schema.RunRecord
		if err := rows.Scan(&r.RunID, &r.Tenant, &r.Date, &r.Status, &r.Reason, &r.Threshold, &r.TotalError,
			&r.Comparisons, &r.AverageError, &r.MissingCount, timeScanner{&r.CreatedAt}); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllEndpointDeltas retrieves all archived endpoint deltas ordered by run ID and endpoint.
func (s *Store) GetAllEndpointDeltas(ctx context.Context) ([]schema.EndpointDeltaRecord, error) {
	if s.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, endpoint, a_prod, a_devel, r_prod, r_devel, d_a, d_r
		FROM %s ORDER BY run_id, endpoint`, endpointDeltasTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoint deltas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.EndpointDeltaRecord
	for rows.Next() {
		var r schema.EndpointDeltaRecord
		if err := rows.Scan(&r.RunID, &r.Endpoint, &r.AProd, &r.ADevel, &r.RProd, &r.RDevel, &r.DA, &r.DR); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint delta: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating endpoint deltas: %w", err)
	}
	return results, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// formatTime converts a time.Time to the appropriate format for the backend.
func (s *Store) formatTime(t time.Time) any {
	if s.backend == schema.SQLiteBackend {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

// timeScanner reads timestamps stored natively or as text.
type timeScanner struct {
	t *time.Time
}

// Scan implements sql.Scanner.
func (ts timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.t = v
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		*ts.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (ts timeScanner) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*ts.t = parsed
			return nil
		}
	}
	return fmt.Errorf("failed to parse time %q", s)
}
