package contract

import (
	"testing"
	"time"

	"github.com/cecompare/cecompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input that passes validation; tests mutate a copy.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		RequireTarget: true,
		Tenant:        "EGI",
		Period:        PeriodRawInput{StartDate: "2023-03-01", EndDate: "2023-03-03"},
		Threshold:     DefaultThreshold,
		Output:        "json",
		ResultSelect:  "first",
		Timeout:       DefaultTimeout,
		RateLimit:     DefaultRateLimit,
		Retries:       DefaultMaxRetries,
		Precision:     DefaultPrecision,
		Color:         "no",
		Tenants: map[string]TenantRawInput{
			"egi": {
				Prod:  EngineRawInput{URL: "https://prod.example.org/api/{start_date}", Token: "p-token"},
				Devel: EngineRawInput{URL: "https://devel.example.org/api/{start_date}", Token: "d-token"},
			},
		},
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "zero threshold allowed", mutate: func(in *ConfigRawInput) { in.Threshold = 0 }},
		{name: "negative threshold", mutate: func(in *ConfigRawInput) { in.Threshold = -0.5 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "invalid result select", mutate: func(in *ConfigRawInput) { in.ResultSelect = "middle" }, expectError: true},
		{name: "invalid precision", mutate: func(in *ConfigRawInput) { in.Precision = 3 }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid timeout", mutate: func(in *ConfigRawInput) { in.Timeout = "soon" }, expectError: true},
		{name: "zero rate limit", mutate: func(in *ConfigRawInput) { in.RateLimit = 0 }, expectError: true},
		{name: "negative retries", mutate: func(in *ConfigRawInput) { in.Retries = -1 }, expectError: true},
		{name: "missing tenant", mutate: func(in *ConfigRawInput) { in.Tenant = "" }, expectError: true},
		{name: "unknown tenant", mutate: func(in *ConfigRawInput) { in.Tenant = "nope" }, expectError: true},
		{name: "start after end", mutate: func(in *ConfigRawInput) { in.Period.EndDate = "2023-02-28" }, expectError: true},
		{name: "missing start", mutate: func(in *ConfigRawInput) { in.Period = PeriodRawInput{} }, expectError: true},
		{
			name: "engine url without scheme",
			mutate: func(in *ConfigRawInput) {
				in.Tenants["egi"] = TenantRawInput{
					Prod:  EngineRawInput{URL: "prod.example.org/{start_date}"},
					Devel: EngineRawInput{URL: "https://devel.example.org/{start_date}"},
				}
			},
			expectError: true,
		},
		{
			name: "engine urls optional when reading from dir",
			mutate: func(in *ConfigRawInput) {
				in.FromDir = "testdata"
				in.Tenants["egi"] = TenantRawInput{}
			},
		},
		{name: "invalid archive backend", mutate: func(in *ConfigRawInput) { in.Archive.Backend = "oracle" }, expectError: true},
		{
			name: "mysql archive without connection string",
			mutate: func(in *ConfigRawInput) {
				in.Archive.Backend = "mysql"
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidate_PopulatesConfig(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, "EGI", cfg.Tenant.Name)
	assert.Equal(t, "https://prod.example.org/api/{start_date}", cfg.Tenant.Prod.URL)
	assert.Equal(t, "d-token", cfg.Tenant.Devel.Token)
	assert.Equal(t, []string{"2023-03-01", "2023-03-02", "2023-03-03"}, cfg.Dates)
	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.Equal(t, schema.SelectFirst, cfg.ResultSelect)
	assert.Equal(t, schema.NoneBackend, cfg.ArchiveBackend)
	assert.Equal(t, DefaultSavePath, cfg.SavePath)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat}, cfg.Log)
	assert.False(t, cfg.UseColors)
}

func TestProcessAndValidate_UnknownTenantError(t *testing.T) {
	input := validInput()
	input.Tenant = "Missing"
	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTenant)
	assert.Contains(t, err.Error(), "Missing")
}

func TestProcessAndValidate_EndDefaultsToStart(t *testing.T) {
	input := validInput()
	input.Period.EndDate = ""
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []string{"2023-03-01"}, cfg.Dates)
	assert.Equal(t, "2023-03-01", cfg.EndDate)
}

func TestProcessAndValidate_WithoutTarget(t *testing.T) {
	input := validInput()
	input.RequireTarget = false
	input.Tenant = ""
	input.Period = PeriodRawInput{}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Empty(t, cfg.Dates)
	assert.Equal(t, []string{"egi"}, cfg.TenantNames())
}

func TestProcessAndValidate_LegacySections(t *testing.T) {
	input := validInput()
	input.Tenants = nil
	input.Tenant = "grnet"
	input.LegacyLogs = LogRawInput{Level: "DEBUG"}
	input.LegacySaveLocation = PathRawInput{Path: "/tmp/reports/"}
	input.Legacy = map[string]any{
		"grnet": map[string]any{
			"hadoop":       "https://hadoop.example.org/{start_date}",
			"flink":        "https://flink.example.org/{start_date}",
			"hadoop_token": "h",
			"flink_token":  "f",
		},
		"config": "ignored.ini",
	}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, "https://hadoop.example.org/{start_date}", cfg.Tenant.Prod.URL)
	assert.Equal(t, "https://flink.example.org/{start_date}", cfg.Tenant.Devel.URL)
	assert.Equal(t, "h", cfg.Tenant.Prod.Token)
	assert.Equal(t, "f", cfg.Tenant.Devel.Token)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "/tmp/reports/", cfg.SavePath)
}

func TestProcessAndValidate_TokenEnvFallback(t *testing.T) {
	t.Setenv("CECOMPARE_EGI_PROD_TOKEN", "from-env")
	input := validInput()
	input.Tenants["egi"] = TenantRawInput{
		Prod:  EngineRawInput{URL: "https://prod.example.org/{start_date}"},
		Devel: EngineRawInput{URL: "https://devel.example.org/{start_date}", Token: "explicit"},
	}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, "from-env", cfg.Tenant.Prod.Token)
	assert.Equal(t, "explicit", cfg.Tenant.Devel.Token)
}

func TestLookupTenant_CaseInsensitive(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	tenant, err := cfg.LookupTenant("eGi")
	require.NoError(t, err)
	assert.Equal(t, "eGi", tenant.Name)

	_, err = cfg.LookupTenant("other")
	assert.ErrorIs(t, err, ErrUnknownTenant)
}

func TestTokenEnvVar(t *testing.T) {
	assert.Equal(t, "CECOMPARE_EGI_PROD_TOKEN", TokenEnvVar("egi", schema.ProdSide))
	assert.Equal(t, "CECOMPARE_NGI_GRNET_DEVEL_TOKEN", TokenEnvVar("ngi-grnet", schema.DevelSide))
}

func TestCloneForDate(t *testing.T) {
	cfg := &Config{Dates: []string{"2023-03-01", "2023-03-02"}, StartDate: "2023-03-01", EndDate: "2023-03-02"}
	clone := cfg.CloneForDate("2023-03-05")

	assert.Equal(t, []string{"2023-03-05"}, clone.Dates)
	assert.Equal(t, "2023-03-05", clone.StartDate)
	assert.Len(t, cfg.Dates, 2)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite needs nothing", schema.SQLiteBackend, "", false},
		{"none needs nothing", schema.NoneBackend, "", false},
		{"mysql ok", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/cecompare", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/cecompare", true},
		{"postgres ok", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=cecompare", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
