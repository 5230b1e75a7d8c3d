package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the written report.
	OutputMode string

	// Side identifies which compute engine produced a dataset.
	Side string

	// Status represents the outcome of processing one date.
	Status string

	// ResultSelect names the strategy for picking one result entry per endpoint.
	ResultSelect string

	// DatabaseBackend represents the database backend for the report archive.
	DatabaseBackend string

	// Metric names one of the compared service-quality metrics.
	Metric string
)

// All output modes supported.
const (
	JSONOut    OutputMode = "json" // default
	CSVOut     OutputMode = "csv"
	HTMLOut    OutputMode = "html"
	TextOut    OutputMode = "text"
	ParquetOut OutputMode = "parquet"
	PromOut    OutputMode = "prom"
)

// Both engines being compared.
const (
	ProdSide  Side = "prod"  // reference engine (historically hadoop)
	DevelSide Side = "devel" // engine under evaluation (historically flink)
)

// All date outcomes.
const (
	ComparedStatus Status = "compared"
	SkippedStatus  Status = "skipped"
)

// All result selection strategies.
const (
	SelectFirst ResultSelect = "first" // default
	SelectLast  ResultSelect = "last"
	SelectDate  ResultSelect = "date"
)

// All archive backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// Compared metrics.
const (
	AvailabilityMetric Metric = "availability"
	ReliabilityMetric  Metric = "reliability"
)

// EngineSentinel is the value engines send when a metric was not computed.
const EngineSentinel = -1.0

// NotApplicable is how an unavailable value is rendered in every output.
const NotApplicable = "na"

// AllSides lists both engines in presentation order.
var AllSides = []Side{ProdSide, DevelSide}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	JSONOut:    {},
	CSVOut:     {},
	HTMLOut:    {},
	TextOut:    {},
	ParquetOut: {},
	PromOut:    {},
}

// ValidResultSelects lists all valid result selection strategies.
var ValidResultSelects = map[ResultSelect]struct{}{
	SelectFirst: {},
	SelectLast:  {},
	SelectDate:  {},
}

// ValidDatabaseBackends lists all valid archive backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Extension returns the file extension used for reports in this mode.
func (o OutputMode) Extension() string {
	switch o {
	case TextOut:
		return "txt"
	default:
		return string(o)
	}
}
