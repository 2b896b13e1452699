package types

import "time"

// Run is the record of one processed instrument log file. The natural key
// is the run name together with the owning instrument name. A run and its
// values are immutable once written.
type Run struct {
	RunID          string    `json:"run_id"`
	Name           string    `json:"name"`
	InstrumentName string    `json:"instrument_name"`
	InstrumentID   string    `json:"instrument_id"`
	StoragePath    string    `json:"storage_path"`
	SampleDate     time.Time `json:"sample_date"`

	Values   []*Value    `json:"values,omitempty"`
	Metadata []*Metadata `json:"metadata,omitempty"`
}

// Key returns the natural key of the run.
func (r *Run) Key() NaturalKey {
	return RunKey(r.InstrumentName, r.Name)
}

// NumericSummary holds the descriptive statistics of a numeric channel.
type NumericSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// Summary is the reduction of one channel's raw observations.
// Numeric is nil when any non-empty observation failed to parse.
type Summary struct {
	FirstValue string          `json:"first_value"`
	N          int             `json:"n"`
	NDistinct  int             `json:"n_distinct"`
	Numeric    *NumericSummary `json:"numeric,omitempty"`
}

// Value is one run's summarized observation of one property.
type Value struct {
	ValueID  string   `json:"value_id"`
	RunID    string   `json:"run_id"`
	Property Property `json:"property"`
	Summary
}

// Metadata is a free-text key/value pair attached to a run. Name is unique
// per run.
type Metadata struct {
	MetadataID string `json:"metadata_id"`
	RunID      string `json:"run_id"`
	Name       string `json:"name"`
	Value      string `json:"value"`
}

// Extraction is the in-memory entity graph produced from one log file.
// Instrument carries the identity the run belongs to; Run.InstrumentName
// matches Instrument.Name.
type Extraction struct {
	Instrument Instrument
	Run        Run
}
