package types

import (
	"maps"
	"time"
)

// Fact names understood by the rule table. The vocabulary is open: providers
// may add keys, and the evaluator ignores keys no rule references.
const (
	FactTemp              = "temp"               // °C
	FactFeelsLike         = "feels_like"         // °C
	FactHumidity          = "humidity"           // %
	FactWindSpeed         = "wind_speed"         // m/s
	FactClouds            = "clouds"             // %
	FactPressure          = "pressure"           // hPa
	FactVisibility        = "visibility"         // meters
	FactMainCondition     = "main_condition"     // short string, e.g. "Rain"
	FactPrecipitationProb = "precipitation_prob" // %
	FactUVIndex           = "uv_index"           // index 0+
)

// FactSet maps fact names to observed values. Values are numeric for every
// fact except FactMainCondition. A missing key is distinct from a key whose
// value is zero.
type FactSet map[string]any

// Has reports whether the named fact is present.
func (f FactSet) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Clone returns a shallow copy so callers can hand out facts without sharing
// the underlying map.
func (f FactSet) Clone() FactSet {
	if f == nil {
		return nil
	}
	return maps.Clone(f)
}

// Observation is a single current-conditions reading for a city, as returned
// by a weather provider.
type Observation struct {
	City       string    `json:"city"`
	Country    string    `json:"country,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	Facts      FactSet   `json:"facts"`
}
