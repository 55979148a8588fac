// Package risk buckets 0-100 probabilities into qualitative levels.
package risk

import (
	"math"
	"strings"

	"github.com/okian/disasterscope/internal/domain/geo"
)

// Level is a qualitative risk bucket.
type Level string

const (
	High    Level = "High"
	Medium  Level = "Medium"
	Low     Level = "Low"
	VeryLow Level = "Very Low"
)

// Lower bounds of each bucket on the 0-100 scale.
const (
	HighThreshold   = 70.0
	MediumThreshold = 40.0
	LowThreshold    = 10.0
)

var messages = map[Level]string{
	High:    "High risk - Take immediate precautions",
	Medium:  "Moderate risk - Stay alert",
	Low:     "Low risk - Minimal concern",
	VeryLow: "Very low risk - Safe area",
}

// Assessment is a bucketed probability with its advisory message.
type Assessment struct {
	Probability float64 `json:"probability"`
	Level       Level   `json:"level"`
	Message     string  `json:"message"`
}

// Classify returns the level for p.
func Classify(p float64) Level {
	switch {
	case p >= HighThreshold:
		return High
	case p >= MediumThreshold:
		return Medium
	case p >= LowThreshold:
		return Low
	default:
		return VeryLow
	}
}

// Message returns the advisory text for a level.
func (l Level) Message() string { return messages[l] }

// Assess clamps p to [0, 100], rounds it to two decimals and buckets it.
func Assess(p float64) Assessment {
	p = Normalize(p)
	level := Classify(p)
	return Assessment{Probability: p, Level: level, Message: level.Message()}
}

// Normalize clamps p to [0, 100] and rounds to two decimals. NaN becomes 0.
func Normalize(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return geo.Round(math.Max(0, math.Min(100, p)), 2)
}

// Hazard names one of the three modelled disasters.
type Hazard string

const (
	Earthquake Hazard = "earthquake"
	Flood      Hazard = "flood"
	Wildfire   Hazard = "wildfire"
)

// Hazards lists every hazard in evaluation order. Ties between equal
// probabilities resolve to the earlier entry.
var Hazards = []Hazard{Earthquake, Flood, Wildfire}

// Title returns the capitalized hazard name, e.g. "Earthquake".
func (h Hazard) Title() string {
	if h == "" {
		return ""
	}
	return strings.ToUpper(string(h[:1])) + string(h[1:])
}
