package types

import "strings"

// InstrumentModel identifies the vendor instrument model that produced a log.
type InstrumentModel string

// Known instrument models.
const (
	ModelUnknown              InstrumentModel = "unknown"
	ModelLTQOrbitrap          InstrumentModel = "LTQ Orbitrap"
	ModelLTQOrbitrapDiscovery InstrumentModel = "LTQ Orbitrap Discovery"
	ModelOrbitrapXL           InstrumentModel = "LTQ Orbitrap XL"
	ModelOrbitrapVelos        InstrumentModel = "LTQ Orbitrap Velos"
	ModelOrbitrapElite        InstrumentModel = "Orbitrap Elite"
	ModelTSQQuantum           InstrumentModel = "TSQ Quantum"
	ModelTSQVantage           InstrumentModel = "TSQ Vantage"
	ModelTSQQuantiva          InstrumentModel = "TSQ Quantiva"
	ModelQExactive            InstrumentModel = "Q Exactive"
	ModelQExactivePlus        InstrumentModel = "Q Exactive Plus"
	ModelQExactiveHF          InstrumentModel = "Q Exactive HF"
	ModelOrbitrapFusion       InstrumentModel = "Orbitrap Fusion"
	ModelOrbitrapFusionLumos  InstrumentModel = "Orbitrap Fusion Lumos"
)

// knownModels is ordered longest name first so that ParseInstrumentModel
// prefers "Q Exactive Plus" over "Q Exactive".
var knownModels = []InstrumentModel{
	ModelLTQOrbitrapDiscovery,
	ModelOrbitrapFusionLumos,
	ModelOrbitrapVelos,
	ModelQExactivePlus,
	ModelOrbitrapFusion,
	ModelOrbitrapElite,
	ModelOrbitrapXL,
	ModelQExactiveHF,
	ModelLTQOrbitrap,
	ModelTSQQuantiva,
	ModelTSQQuantum,
	ModelTSQVantage,
	ModelQExactive,
}

// ModelFamily groups instrument models that share a log layout.
type ModelFamily int

// Model families. Each family has its own log reader strategy.
const (
	FamilyDefault ModelFamily = iota
	FamilyOrbitrap
	FamilyTSQ
	FamilyQExactive
	FamilyFusion
)

func (f ModelFamily) String() string {
	switch f {
	case FamilyOrbitrap:
		return "orbitrap"
	case FamilyTSQ:
		return "tsq"
	case FamilyQExactive:
		return "qexactive"
	case FamilyFusion:
		return "fusion"
	default:
		return "default"
	}
}

// Family returns the log layout family of the model.
func (m InstrumentModel) Family() ModelFamily {
	switch m {
	case ModelLTQOrbitrap, ModelLTQOrbitrapDiscovery, ModelOrbitrapXL, ModelOrbitrapVelos, ModelOrbitrapElite:
		return FamilyOrbitrap
	case ModelTSQQuantum, ModelTSQVantage, ModelTSQQuantiva:
		return FamilyTSQ
	case ModelQExactive, ModelQExactivePlus, ModelQExactiveHF:
		return FamilyQExactive
	case ModelOrbitrapFusion, ModelOrbitrapFusionLumos:
		return FamilyFusion
	default:
		return FamilyDefault
	}
}

// ParseInstrumentModel maps a vendor model string to an InstrumentModel.
// Matching is case-insensitive and tolerates surrounding text such as
// "Thermo Q Exactive Plus Orbitrap". Unrecognized strings map to ModelUnknown.
func ParseInstrumentModel(s string) InstrumentModel {
	norm := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if norm == "" {
		return ModelUnknown
	}
	for _, m := range knownModels {
		if strings.Contains(norm, strings.ToLower(string(m))) {
			return m
		}
	}
	// "Orbitrap XL" without the LTQ prefix still belongs to the XL model.
	for _, m := range []InstrumentModel{ModelOrbitrapXL, ModelOrbitrapVelos} {
		short := strings.ToLower(strings.TrimPrefix(string(m), "LTQ "))
		if strings.Contains(norm, short) {
			return m
		}
	}
	return ModelUnknown
}

// Instrument is one physical mass spectrometer. Name is the natural key.
// Properties and Events are populated only when requested through
// FetchOptions.
type Instrument struct {
	InstrumentID string          `json:"instrument_id"`
	Name         string          `json:"name"`
	Model        InstrumentModel `json:"model"`
	CVID         string          `json:"cv_id"`
	CV           CV              `json:"cv"`

	Properties []*Property `json:"properties,omitempty"`
	Events     []*Event    `json:"events,omitempty"`
}

// Key returns the natural key of the instrument.
func (i *Instrument) Key() NaturalKey {
	return InstrumentKey(i.Name)
}
