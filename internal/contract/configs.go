package contract

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cecompare/cecompare/schema"
)

// Default values for configuration.
const (
	DefaultThreshold  = 1.0
	DefaultPrecision  = 2
	DefaultSavePath   = "reports"
	DefaultTimeout    = "30s"
	DefaultRateLimit  = 2.0 // requests per second
	DefaultMaxRetries = 3
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ErrUnknownTenant is returned when the requested tenant has no configuration.
var ErrUnknownTenant = errors.New("no tenant with such name")

// EngineConfig holds how to reach one engine of a tenant.
type EngineConfig struct {
	URL   string // URL template, "{start_date}" is replaced by the date
	Token string // Sent as the x-api-key header
}

// TenantConfig holds both engines of a tenant.
type TenantConfig struct {
	Name  string
	Prod  EngineConfig
	Devel EngineConfig
}

// Engine returns the engine config of the given side.
func (t TenantConfig) Engine(side schema.Side) EngineConfig {
	if side == schema.DevelSide {
		return t.Devel
	}
	return t.Prod
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string // console or json
}

// Config holds the runtime configuration for a comparison run.
// This struct remains the "final, validated" config.
type Config struct {
	Tenant    TenantConfig
	Tenants   map[string]TenantConfig // All configured tenants, keyed by lowercase name
	StartDate string
	EndDate   string
	Dates     []string

	Threshold    float64
	ResultSelect schema.ResultSelect
	Output       schema.OutputMode
	SavePath     string
	FromDir      string // Read datasets from <dir>/<side>/<date>.json instead of HTTP

	Insecure   bool
	Timeout    time.Duration
	RateLimit  float64
	MaxRetries int

	Precision int
	Width     int // Terminal width override (0 = auto-detect)
	UseColors bool

	ArchiveBackend   schema.DatabaseBackend
	ArchiveDBConnect string // Please use env var as this is plaintext

	Log LogConfig
}

// EngineRawInput is one engine entry of a tenant in the config file.
type EngineRawInput struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// TenantRawInput is a tenant entry in the config file.
// The hadoop/flink keys are the legacy INI spelling of prod/devel.
type TenantRawInput struct {
	Prod        EngineRawInput `mapstructure:"prod"`
	Devel       EngineRawInput `mapstructure:"devel"`
	Hadoop      string         `mapstructure:"hadoop"`
	Flink       string         `mapstructure:"flink"`
	HadoopToken string         `mapstructure:"hadoop_token"`
	FlinkToken  string         `mapstructure:"flink_token"`
}

// PeriodRawInput holds the date range from the config file.
type PeriodRawInput struct {
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`
}

// PathRawInput holds a single path setting.
type PathRawInput struct {
	Path string `mapstructure:"path"`
}

// LogRawInput holds logger settings from the config file.
type LogRawInput struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ArchiveRawInput holds archive settings from the config file.
type ArchiveRawInput struct {
	Backend   string `mapstructure:"backend"`
	DBConnect string `mapstructure:"db-connect"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// Set manually by commands that compare one tenant over a period, so no tag
	RequireTarget bool

	// --- Fields from rootCmd.PersistentFlags() ---
	Tenant       string          `mapstructure:"tenant"`
	Period       PeriodRawInput  `mapstructure:"period"`
	SaveLocation PathRawInput    `mapstructure:"save_location"`
	Log          LogRawInput     `mapstructure:"log"`
	Archive      ArchiveRawInput `mapstructure:"archive"`
	Threshold    float64         `mapstructure:"threshold"`
	Output       string          `mapstructure:"output"`
	ResultSelect string          `mapstructure:"result-select"`
	FromDir      string          `mapstructure:"from-dir"`
	Insecure     bool            `mapstructure:"insecure"`
	Timeout      string          `mapstructure:"timeout"`
	RateLimit    float64         `mapstructure:"rate-limit"`
	Retries      int             `mapstructure:"retries"`
	Precision    int             `mapstructure:"precision"`
	Width        int             `mapstructure:"width"`
	Color        string          `mapstructure:"color"`

	// --- Tenants from the config file ---
	Tenants map[string]TenantRawInput `mapstructure:"tenants"`

	// --- Legacy INI sections: [LOGS], [SaveLocation] and one section per tenant ---
	LegacyLogs         LogRawInput    `mapstructure:"logs"`
	LegacySaveLocation PathRawInput   `mapstructure:"savelocation"`
	Legacy             map[string]any `mapstructure:",remain"`
}

// LookupTenant returns the tenant config for a case-insensitive name.
func (c *Config) LookupTenant(name string) (TenantConfig, error) {
	tenant, ok := c.Tenants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return TenantConfig{}, fmt.Errorf("%w: %s", ErrUnknownTenant, name)
	}
	tenant.Name = strings.TrimSpace(name)
	return tenant, nil
}

// TenantNames returns all configured tenant names in sorted order.
func (c *Config) TenantNames() []string {
	names := make([]string, 0, len(c.Tenants))
	for name := range c.Tenants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of the Config struct with its own date list.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Dates != nil {
		clone.Dates = make([]string, len(c.Dates))
		copy(clone.Dates, c.Dates)
	}
	return &clone
}

// CloneForDate creates a copy of the Config that covers a single date.
func (c *Config) CloneForDate(date string) *Config {
	clone := c.Clone()
	clone.StartDate = date
	clone.EndDate = date
	clone.Dates = []string{date}
	return clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	processLogConfig(cfg, input)
	if err := processTenants(cfg, input); err != nil {
		return err
	}
	if err := processPeriod(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("archive.db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("archive.db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the archive backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := input.Archive.Backend
	if backend == "" {
		backend = string(schema.NoneBackend)
	}
	cfg.ArchiveBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidDatabaseBackends[cfg.ArchiveBackend]; !ok {
		return fmt.Errorf("invalid archive backend '%s'. must be sqlite, mysql, postgresql, none", input.Archive.Backend)
	}
	cfg.ArchiveDBConnect = input.Archive.DBConnect
	return ValidateDatabaseConnectionString(cfg.ArchiveBackend, cfg.ArchiveDBConnect)
}

// validateSimpleInputs processes and validates all non-tenant, non-period fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.FromDir = input.FromDir
	cfg.Insecure = input.Insecure
	cfg.SavePath = firstNonEmpty(input.SaveLocation.Path, input.LegacySaveLocation.Path, DefaultSavePath)

	colors, err := ParseBoolString(firstNonEmpty(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Threshold Validation ---
	if math.IsNaN(input.Threshold) || math.IsInf(input.Threshold, 0) || input.Threshold < 0 {
		return fmt.Errorf("threshold must be a finite number >= 0 (received %v)", input.Threshold)
	}
	cfg.Threshold = input.Threshold

	// --- 2. Output and Selector Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(firstNonEmpty(input.Output, string(schema.JSONOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be json, csv, html, text, parquet, prom", input.Output)
	}

	cfg.ResultSelect = schema.ResultSelect(strings.ToLower(firstNonEmpty(input.ResultSelect, string(schema.SelectFirst))))
	if _, ok := schema.ValidResultSelects[cfg.ResultSelect]; !ok {
		return fmt.Errorf("invalid result-select '%s'. must be first, last, date", input.ResultSelect)
	}

	// --- 3. Display Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	if input.Width < 0 {
		return fmt.Errorf("width must be >= 0 (received %d)", input.Width)
	}
	cfg.Width = input.Width

	// --- 4. Transport Validation ---
	timeout, err := time.ParseDuration(firstNonEmpty(input.Timeout, DefaultTimeout))
	if err != nil {
		return fmt.Errorf("invalid timeout '%s': %w", input.Timeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive (received %s)", input.Timeout)
	}
	cfg.Timeout = timeout

	if input.RateLimit <= 0 {
		return fmt.Errorf("rate-limit must be greater than 0 (received %v)", input.RateLimit)
	}
	cfg.RateLimit = input.RateLimit

	if input.Retries < 0 {
		return fmt.Errorf("retries must be >= 0 (received %d)", input.Retries)
	}
	cfg.MaxRetries = input.Retries

	return nil
}

// processLogConfig resolves the logger settings, preferring the log section over legacy [LOGS].
func processLogConfig(cfg *Config, input *ConfigRawInput) {
	cfg.Log = LogConfig{
		Level:  firstNonEmpty(input.Log.Level, input.LegacyLogs.Level, DefaultLogLevel),
		Format: firstNonEmpty(input.Log.Format, input.LegacyLogs.Format, DefaultLogFormat),
	}
}

// processTenants resolves every configured tenant and selects the requested one.
func processTenants(cfg *Config, input *ConfigRawInput) error {
	cfg.Tenants = make(map[string]TenantConfig)
	for name, raw := range input.Tenants {
		cfg.Tenants[strings.ToLower(name)] = resolveTenant(name, raw)
	}
	for name, section := range input.Legacy {
		raw, ok := legacyTenant(section)
		if !ok {
			continue
		}
		if _, exists := cfg.Tenants[strings.ToLower(name)]; exists {
			continue
		}
		cfg.Tenants[strings.ToLower(name)] = resolveTenant(name, raw)
	}

	name := strings.TrimSpace(input.Tenant)
	if name == "" {
		if input.RequireTarget {
			return fmt.Errorf("tenant is required")
		}
		return nil
	}

	tenant, err := cfg.LookupTenant(name)
	if err != nil {
		return err
	}
	if cfg.FromDir == "" {
		for _, side := range schema.AllSides {
			if err := validateEngineURL(tenant.Engine(side).URL); err != nil {
				return fmt.Errorf("tenant %s %s engine: %w", name, side, err)
			}
		}
	}
	cfg.Tenant = tenant
	return nil
}

// resolveTenant merges the current and legacy spelling and applies token env fallbacks.
func resolveTenant(name string, raw TenantRawInput) TenantConfig {
	tenant := TenantConfig{
		Name: name,
		Prod: EngineConfig{
			URL:   firstNonEmpty(raw.Prod.URL, raw.Hadoop),
			Token: firstNonEmpty(raw.Prod.Token, raw.HadoopToken),
		},
		Devel: EngineConfig{
			URL:   firstNonEmpty(raw.Devel.URL, raw.Flink),
			Token: firstNonEmpty(raw.Devel.Token, raw.FlinkToken),
		},
	}
	if tenant.Prod.Token == "" {
		tenant.Prod.Token = os.Getenv(TokenEnvVar(name, schema.ProdSide))
	}
	if tenant.Devel.Token == "" {
		tenant.Devel.Token = os.Getenv(TokenEnvVar(name, schema.DevelSide))
	}
	return tenant
}

// legacyTenant reads an INI section with hadoop/flink keys.
func legacyTenant(section any) (TenantRawInput, bool) {
	values, ok := section.(map[string]any)
	if !ok {
		return TenantRawInput{}, false
	}
	get := func(key string) string {
		v, ok := values[key]
		if !ok || v == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(v))
	}
	raw := TenantRawInput{
		Hadoop:      get("hadoop"),
		Flink:       get("flink"),
		HadoopToken: get("hadoop_token"),
		FlinkToken:  get("flink_token"),
	}
	if raw.Hadoop == "" && raw.Flink == "" {
		return TenantRawInput{}, false
	}
	return raw, true
}

// TokenEnvVar returns the environment variable holding a tenant engine token,
// e.g. CECOMPARE_EGI_PROD_TOKEN.
func TokenEnvVar(tenant string, side schema.Side) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, tenant)
	return fmt.Sprintf("CECOMPARE_%s_%s_TOKEN", name, strings.ToUpper(string(side)))
}

// validateEngineURL checks that a URL template is an absolute http(s) URL.
func validateEngineURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(strings.ReplaceAll(raw, DatePlaceholder, "2000-01-01"))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// processPeriod expands the configured period into the list of dates to compare.
func processPeriod(cfg *Config, input *ConfigRawInput) error {
	start := strings.TrimSpace(input.Period.StartDate)
	end := strings.TrimSpace(input.Period.EndDate)
	if start == "" {
		if input.RequireTarget {
			return fmt.Errorf("period start date is required (--start or period.start_date)")
		}
		if end != "" {
			return fmt.Errorf("period end date %s given without a start date", end)
		}
		return nil
	}
	if end == "" {
		end = start
	}

	dates, err := DateRange(start, end)
	if err != nil {
		return err
	}
	cfg.StartDate = start
	cfg.EndDate = end
	cfg.Dates = dates
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
