// Package features builds model input rows from a coordinate pair, adapting
// to whatever column names a model was trained with.
package features

import (
	"strings"

	"github.com/okian/disasterscope/internal/domain/classifier"
)

var (
	latitudeAliases  = map[string]bool{"lat": true, "latitude": true}
	longitudeAliases = map[string]bool{"lon": true, "lng": true, "longitude": true}
)

// Adapter turns (lat, lon) into a row matching a model's declared schema.
// It is safe for concurrent use.
type Adapter struct {
	defaults Defaults
}

// NewAdapter returns an Adapter backed by precomputed defaults.
func NewAdapter(defaults Defaults) *Adapter {
	if defaults == nil {
		defaults = Defaults{}
	}
	return &Adapter{defaults: defaults}
}

// Defaults returns the resolved feature defaults.
func (a *Adapter) Defaults() Defaults { return a.defaults }

// Row builds the input row for m. Models without a declared schema, or with
// one that has blank or duplicate names, get the two-column lat/lon row.
// Unrecognized features are 0.
func (a *Adapter) Row(m classifier.Model, lat, lon float64) classifier.Row {
	names := m.FeatureNames()
	if !usable(names) {
		return LatLonRow(lat, lon)
	}

	row := classifier.Row{
		Columns: make([]string, len(names)),
		Values:  make([]float64, len(names)),
	}
	for i, name := range names {
		row.Columns[i] = name
		row.Values[i] = a.value(name, lat, lon)
	}
	return row
}

func (a *Adapter) value(name string, lat, lon float64) float64 {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case latitudeAliases[key]:
		return lat
	case longitudeAliases[key]:
		return lon
	}
	if d, ok := a.defaults[key]; ok {
		return d.Value
	}
	return 0
}

// LatLonRow is the row used when a model declares no schema.
func LatLonRow(lat, lon float64) classifier.Row {
	return classifier.Row{Columns: []string{"lat", "lon"}, Values: []float64{lat, lon}}
}

func usable(names []string) bool {
	if len(names) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return false
		}
		if _, dup := seen[n]; dup {
			return false
		}
		seen[n] = struct{}{}
	}
	return true
}
