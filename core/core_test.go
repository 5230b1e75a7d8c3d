package core

import (
	"context"
	"errors"
	"testing"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	// Replace global logger with no-op for tests (suppress warning output).
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeSource serves datasets from memory, keyed by side and date.
type fakeSource struct {
	datasets map[schema.Side]map[string]schema.Dataset
	errs     map[schema.Side]error
	calls    []schema.Side
}

func (f *fakeSource) Fetch(_ context.Context, side schema.Side, date string) (schema.Dataset, error) {
	f.calls = append(f.calls, side)
	if err := f.errs[side]; err != nil {
		return schema.Dataset{}, err
	}
	ds, ok := f.datasets[side][date]
	if !ok {
		return schema.Dataset{}, nil
	}
	return ds, nil
}

func sameEverywhere(dates ...string) *fakeSource {
	src := &fakeSource{datasets: map[schema.Side]map[string]schema.Dataset{
		schema.ProdSide:  {},
		schema.DevelSide: {},
	}}
	for _, d := range dates {
		src.datasets[schema.ProdSide][d] = dataset(group("G", endpoint("E", result(d, "100", "100"))))
		src.datasets[schema.DevelSide][d] = dataset(group("G", endpoint("E", result(d, "97", "100"))))
	}
	return src
}

func testConfig(dates ...string) *contract.Config {
	return &contract.Config{
		Tenant:       contract.TenantConfig{Name: "EGI"},
		Dates:        dates,
		Threshold:    1,
		ResultSelect: schema.SelectFirst,
	}
}

func TestRunDate_Compared(t *testing.T) {
	src := sameEverywhere("2023-03-01")

	outcome := RunDate(context.Background(), testConfig(), src, "2023-03-01")

	require.True(t, outcome.Compared())
	assert.Equal(t, schema.ComparedStatus, outcome.Status)
	assert.Equal(t, schema.Available(3), outcome.Report.Endpoints["E@G"].DA)
	assert.Equal(t, []schema.Side{schema.ProdSide, schema.DevelSide}, src.calls)
}

func TestRunDate_SkipReasons(t *testing.T) {
	fetchErr := errors.New("connection refused")
	tests := []struct {
		name        string
		errs        map[schema.Side]error
		noResults   []schema.Side
		reason      string
		prodFailed  bool
		develFailed bool
	}{
		{
			name:       "prod fetch fails",
			errs:       map[schema.Side]error{schema.ProdSide: fetchErr},
			reason:     "prod produced no results",
			prodFailed: true,
		},
		{
			name:        "devel has no results",
			noResults:   []schema.Side{schema.DevelSide},
			reason:      "devel produced no results",
			develFailed: true,
		},
		{
			name:        "both fail",
			errs:        map[schema.Side]error{schema.ProdSide: fetchErr},
			noResults:   []schema.Side{schema.DevelSide},
			reason:      "both engines produced no results",
			prodFailed:  true,
			develFailed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sameEverywhere("2023-03-01")
			src.errs = tt.errs
			for _, side := range tt.noResults {
				delete(src.datasets[side], "2023-03-01")
			}

			outcome := RunDate(context.Background(), testConfig(), src, "2023-03-01")

			assert.Equal(t, schema.SkippedStatus, outcome.Status)
			assert.Nil(t, outcome.Report)
			assert.Equal(t, tt.reason, outcome.Reason)
			assert.Equal(t, tt.prodFailed, outcome.ProdFailed)
			assert.Equal(t, tt.develFailed, outcome.DevelFailed)
			assert.Len(t, src.calls, 2, "both engines are always fetched")
		})
	}
}

func TestRunDate_MalformedEntry(t *testing.T) {
	src := sameEverywhere("2023-03-01")
	src.datasets[schema.DevelSide]["2023-03-01"] = dataset(group("G", endpoint("E")))

	outcome := RunDate(context.Background(), testConfig(), src, "2023-03-01")

	assert.Equal(t, schema.SkippedStatus, outcome.Status)
	assert.True(t, outcome.DevelFailed)
	assert.False(t, outcome.ProdFailed)
	assert.Contains(t, outcome.Reason, "endpoint has no result entries")
}

func TestExecuteCompare(t *testing.T) {
	src := sameEverywhere("2023-03-01", "2023-03-03")
	var consumed []string
	sink := contract.OutcomeSinkFunc(func(_ context.Context, tenant string, outcome schema.DateOutcome) error {
		assert.Equal(t, "EGI", tenant)
		consumed = append(consumed, outcome.Date)
		return nil
	})

	summary, err := ExecuteCompare(context.Background(), testConfig("2023-03-01", "2023-03-02", "2023-03-03"), src, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-03-01", "2023-03-02", "2023-03-03"}, consumed)
	assert.True(t, summary.Failed())
	assert.Equal(t, []string{"2023-03-02"}, summary.SkippedDates())
	assert.Equal(t, "EGI", summary.Tenant)
}

func TestExecuteCompare_AllCompared(t *testing.T) {
	src := sameEverywhere("2023-03-01", "2023-03-02")

	summary, err := ExecuteCompare(context.Background(), testConfig("2023-03-01", "2023-03-02"), src)
	require.NoError(t, err)

	assert.False(t, summary.Failed())
	assert.Len(t, summary.Outcomes, 2)
}

func TestExecuteCompare_SinkErrorAborts(t *testing.T) {
	src := sameEverywhere("2023-03-01", "2023-03-02")
	sinkErr := errors.New("disk full")
	sink := contract.OutcomeSinkFunc(func(context.Context, string, schema.DateOutcome) error {
		return sinkErr
	})

	summary, err := ExecuteCompare(context.Background(), testConfig("2023-03-01", "2023-03-02"), src, sink)
	require.ErrorIs(t, err, sinkErr)
	assert.Len(t, summary.Outcomes, 1)
}

func TestExecuteCompare_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecuteCompare(ctx, testConfig("2023-03-01"), sameEverywhere("2023-03-01"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, "both engines produced no results", SkipReason(true, true))
	assert.Equal(t, "prod produced no results", SkipReason(true, false))
	assert.Equal(t, "devel produced no results", SkipReason(false, true))
	assert.Equal(t, "comparison could not run", SkipReason(false, false))
}
