package sqlite

// Schema DDL for all tables. Each natural key carries a UNIQUE constraint;
// surrogate IDs are UUID v7 strings.
const (
	createCVs = `CREATE TABLE IF NOT EXISTS cvs (
    cv_id TEXT PRIMARY KEY,
    label TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    uri TEXT NOT NULL,
    version TEXT NOT NULL
);`

	createInstruments = `CREATE TABLE IF NOT EXISTS instruments (
    instrument_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    model TEXT NOT NULL,
    cv_id TEXT NOT NULL,
    FOREIGN KEY (cv_id) REFERENCES cvs(cv_id)
);`

	createProperties = `CREATE TABLE IF NOT EXISTS properties (
    property_id TEXT PRIMARY KEY,
    accession TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    value_type TEXT NOT NULL,
    is_numeric INTEGER NOT NULL,
    cv_id TEXT NOT NULL,
    FOREIGN KEY (cv_id) REFERENCES cvs(cv_id)
);`

	createInstrumentProperties = `CREATE TABLE IF NOT EXISTS instrument_properties (
    instrument_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    PRIMARY KEY (instrument_id, property_id),
    FOREIGN KEY (instrument_id) REFERENCES instruments(instrument_id),
    FOREIGN KEY (property_id) REFERENCES properties(property_id)
);`

	createRuns = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    instrument_id TEXT NOT NULL,
    name TEXT NOT NULL,
    storage_path TEXT NOT NULL,
    sample_date TEXT NOT NULL,
    UNIQUE (instrument_id, name),
    FOREIGN KEY (instrument_id) REFERENCES instruments(instrument_id)
);`

	createValues = `CREATE TABLE IF NOT EXISTS run_values (
    value_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    first_value TEXT NOT NULL,
    n INTEGER NOT NULL,
    n_distinct INTEGER NOT NULL,
    min_value REAL,
    max_value REAL,
    mean_value REAL,
    median_value REAL,
    sd_value REAL,
    q1_value REAL,
    q3_value REAL,
    UNIQUE (run_id, property_id),
    FOREIGN KEY (run_id) REFERENCES runs(run_id),
    FOREIGN KEY (property_id) REFERENCES properties(property_id)
);`

	createMetadata = `CREATE TABLE IF NOT EXISTS run_metadata (
    metadata_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    name TEXT NOT NULL,
    value TEXT NOT NULL,
    UNIQUE (run_id, name),
    FOREIGN KEY (run_id) REFERENCES runs(run_id)
);`

	createEvents = `CREATE TABLE IF NOT EXISTS events (
    event_id TEXT PRIMARY KEY,
    instrument_id TEXT NOT NULL,
    event_date TEXT NOT NULL,
    event_type TEXT NOT NULL,
    problem TEXT NOT NULL,
    solution TEXT NOT NULL,
    extra TEXT NOT NULL,
    attachment_name TEXT,
    attachment BLOB,
    UNIQUE (instrument_id, event_date),
    FOREIGN KEY (instrument_id) REFERENCES instruments(instrument_id)
);`
)

// Index DDL for common queries.
const (
	idxRunsSampleDate   = `CREATE INDEX IF NOT EXISTS idx_runs_sample_date ON runs(sample_date);`
	idxValuesProperty   = `CREATE INDEX IF NOT EXISTS idx_run_values_property ON run_values(property_id);`
	idxMetadataRun      = `CREATE INDEX IF NOT EXISTS idx_run_metadata_run ON run_metadata(run_id);`
	idxEventsDate       = `CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);`
	idxInstrumentPropsP = `CREATE INDEX IF NOT EXISTS idx_instrument_properties_property ON instrument_properties(property_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCVs,
	createInstruments,
	createProperties,
	createInstrumentProperties,
	createRuns,
	createValues,
	createMetadata,
	createEvents,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRunsSampleDate,
	idxValuesProperty,
	idxMetadataRun,
	idxEventsDate,
	idxInstrumentPropsP,
}
