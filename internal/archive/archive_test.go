package archive

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cecompare/cecompare/internal/parquet"
	"github.com/cecompare/cecompare/schema"
	pq "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func comparedOutcome() schema.DateOutcome {
	avg := 1.5
	return schema.DateOutcome{
		Date:   "2023-03-01",
		Status: schema.ComparedStatus,
		Report: &schema.Report{
			Tenant:    "EGI",
			Date:      "2023-03-01",
			Threshold: 1,
			Endpoints: map[schema.EndpointKey]schema.ComparisonRecord{
				"GR-01-AUTH@NGI_GRNET": {
					AProd: schema.Available(100), ADevel: schema.Available(98),
					RProd: schema.Unavailable(), RDevel: schema.Available(100),
					DA: schema.Available(2), DR: schema.Unavailable(),
				},
				"HG-03-AUTH@NGI_GRNET": {
					AProd: schema.Available(95), ADevel: schema.Available(94),
					RProd: schema.Available(90), RDevel: schema.Available(90),
					DA: schema.Available(1), DR: schema.Available(0),
				},
			},
			Missing: []schema.MissingEndpoint{{Key: "ONLY@NGI_GRNET", InProd: true}},
			Summary: schema.Summary{TotalError: 3, Comparisons: 2, AverageError: &avg},
		},
	}
}

func skippedOutcome() schema.DateOutcome {
	return schema.DateOutcome{
		Date:        "2023-03-02",
		Status:      schema.SkippedStatus,
		Reason:      "devel produced no results",
		DevelFailed: true,
	}
}

func openSQLite(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := Open(context.Background(), schema.SQLiteBackend, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestOpen_NoneBackend(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.RecordOutcome(ctx, "EGI", comparedOutcome())
	require.NoError(t, err)
	assert.Zero(t, runID)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "none", status.Backend)

	runs, err := store.GetAllRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestOpen_UnsupportedBackend(t *testing.T) {
	_, err := Open(context.Background(), schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestStore_RecordOutcome(t *testing.T) {
	ctx := context.Background()
	store, _ := openSQLite(t)

	firstID, err := store.RecordOutcome(ctx, "EGI", comparedOutcome())
	require.NoError(t, err)
	secondID, err := store.RecordOutcome(ctx, "EGI", skippedOutcome())
	require.NoError(t, err)
	assert.Greater(t, secondID, firstID)

	runs, err := store.GetAllRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	compared := runs[0]
	assert.Equal(t, firstID, compared.RunID)
	assert.Equal(t, "EGI", compared.Tenant)
	assert.Equal(t, "2023-03-01", compared.Date)
	assert.Equal(t, "compared", compared.Status)
	assert.Nil(t, compared.Reason)
	assert.Equal(t, 1.0, compared.Threshold)
	assert.Equal(t, 3.0, compared.TotalError)
	assert.Equal(t, int32(2), compared.Comparisons)
	assert.Equal(t, int32(1), compared.MissingCount)
	require.NotNil(t, compared.AverageError)
	assert.Equal(t, 1.5, *compared.AverageError)
	assert.False(t, compared.CreatedAt.IsZero())

	skipped := runs[1]
	assert.Equal(t, "skipped", skipped.Status)
	require.NotNil(t, skipped.Reason)
	assert.Equal(t, "devel produced no results", *skipped.Reason)
	assert.Nil(t, skipped.AverageError)
	assert.Zero(t, skipped.Comparisons)

	deltas, err := store.GetAllEndpointDeltas(ctx)
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, "GR-01-AUTH@NGI_GRNET", deltas[0].Endpoint)
	assert.Equal(t, firstID, deltas[0].RunID)
	assert.Nil(t, deltas[0].RProd)
	assert.Nil(t, deltas[0].DR)
	require.NotNil(t, deltas[0].DA)
	assert.Equal(t, 2.0, *deltas[0].DA)
	require.NotNil(t, deltas[1].DR)
	assert.Equal(t, 0.0, *deltas[1].DR)
}

func TestStore_GetStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := openSQLite(t)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRuns)

	_, err = store.RecordOutcome(ctx, "EGI", comparedOutcome())
	require.NoError(t, err)
	lastID, err := store.RecordOutcome(ctx, "EGI", skippedOutcome())
	require.NoError(t, err)

	status, err = store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, 1, status.SkippedRuns)
	assert.Equal(t, lastID, status.LastRunID)
	assert.False(t, status.LastRunTime.Before(status.OldestRunTime))
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
	assert.Equal(t, int64(2), status.TableSizes[endpointDeltasTable])
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	store, path := openSQLite(t)
	_, err := store.RecordOutcome(ctx, "EGI", comparedOutcome())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	runs, err := reopened.GetAllRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSink(t *testing.T) {
	ctx := context.Background()
	store, _ := openSQLite(t)

	sink := Sink(store)
	require.NoError(t, sink.Consume(ctx, "EGI", comparedOutcome()))
	require.NoError(t, sink.Consume(ctx, "EGI", skippedOutcome()))

	runs, err := store.GetAllRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSink_Error(t *testing.T) {
	store, _ := openSQLite(t)
	require.NoError(t, store.Close())

	err := Sink(store).Consume(context.Background(), "EGI", skippedOutcome())
	assert.ErrorContains(t, err, "failed to archive outcome for 2023-03-02")
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	store, _ := openSQLite(t)

	prefix := filepath.Join(t.TempDir(), "export")
	var out bytes.Buffer
	err := Export(ctx, store, prefix, &out)
	assert.True(t, errors.Is(err, ErrEmptyArchive))

	_, err = store.RecordOutcome(ctx, "EGI", comparedOutcome())
	require.NoError(t, err)
	_, err = store.RecordOutcome(ctx, "EGI", skippedOutcome())
	require.NoError(t, err)

	require.NoError(t, Export(ctx, store, prefix, &out))
	assert.Contains(t, out.String(), "Exported 2 runs")
	assert.Contains(t, out.String(), "Exported 2 endpoint records")

	runsFile, deltasFile := ExportPaths(prefix)
	runs, err := pq.ReadFile[parquet.Run](runsFile)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "skipped", runs[1].Status)

	deltas, err := pq.ReadFile[parquet.EndpointDelta](deltasFile)
	require.NoError(t, err)
	assert.Len(t, deltas, 2)
}

func TestExport_RequiresOutputFile(t *testing.T) {
	store, _ := openSQLite(t)
	err := Export(context.Background(), store, "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "--output-file is required")
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	var out bytes.Buffer
	require.NoError(t, Migrate(ctx, schema.SQLiteBackend, path, -1, &out))
	assert.Contains(t, out.String(), "Successfully migrated from version 0 to version 2")

	out.Reset()
	require.NoError(t, Migrate(ctx, schema.SQLiteBackend, path, -1, &out))
	assert.Contains(t, out.String(), "No migration needed")

	out.Reset()
	require.NoError(t, Migrate(ctx, schema.SQLiteBackend, path, 1, &out))
	assert.Contains(t, out.String(), "from version 2 to version 1")

	out.Reset()
	require.NoError(t, Migrate(ctx, schema.SQLiteBackend, path, 0, &out))
	assert.Contains(t, out.String(), "to version 0")

	assert.ErrorContains(t, Migrate(ctx, schema.NoneBackend, "", -1, &out), "not supported")
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	PrintStatus(&out, schema.ArchiveStatus{Backend: "none"})
	assert.Equal(t, "Archive Backend: none\nConnected: false\n", out.String())

	out.Reset()
	PrintStatus(&out, schema.ArchiveStatus{
		Backend:    "sqlite",
		Connected:  true,
		TotalRuns:  3,
		TableSizes: map[string]int64{runsTable: 3, endpointDeltasTable: 10},
	})
	assert.Contains(t, out.String(), "Total Runs: 3")
	assert.Contains(t, out.String(), "  cecompare_endpoint_deltas: 10 rows\n  cecompare_runs: 3 rows\n")
}

func TestRebind(t *testing.T) {
	pg := &Store{backend: schema.PostgreSQLBackend}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?"))

	lite := &Store{backend: schema.SQLiteBackend}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("root:secret@tcp(localhost:3306)/cecompare")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}
