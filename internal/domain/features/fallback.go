package features

import (
	"fmt"
	"strings"

	"github.com/okian/disasterscope/internal/domain/reference"
)

// SourceDefault marks a value served by the hardcoded fallback.
const SourceDefault = "default"

// Source is one dataset column that can supply a feature default.
type Source struct {
	Table   string
	Column  string
	Scale   float64 // multiplier applied to the mean; 0 means 1
	Options []reference.MeanOption
}

func (s Source) String() string {
	return fmt.Sprintf("dataset:%s.%s", s.Table, s.Column)
}

// Fallback lists the sources tried, in order, for a feature before Default.
type Fallback struct {
	Feature string
	Sources []Source
	Default float64
	// Exclusive stops at the first source whose column exists: if that
	// column cannot be averaged, Default is used and later sources are not
	// consulted.
	Exclusive bool
}

// Default is a resolved feature value and where it came from.
type Default struct {
	Feature string
	Value   float64
	Source  string
}

// Defaults maps a lower-cased feature name to its resolved value.
type Defaults map[string]Default

// FallbackTable is the standard set of dataset-derived feature defaults.
func FallbackTable() []Fallback {
	return []Fallback{
		{
			Feature: "magnitude",
			Sources: []Source{{Table: reference.Earthquakes, Column: "magnitude"}},
			Default: 5.0,
		},
		{
			Feature: "depth",
			Sources: []Source{{Table: reference.Earthquakes, Column: "depth"}},
			Default: 10.0,
		},
		{
			Feature: "rainfall",
			Sources: []Source{
				{Table: reference.Floods, Column: "rainfall"},
				{Table: reference.Floods, Column: "FloodProbability", Scale: 2},
			},
			Default:   100.0,
			Exclusive: true,
		},
		{
			Feature: "fires",
			Sources: []Source{{
				Table:   reference.Wildfires,
				Column:  "fires",
				Options: []reference.MeanOption{reference.StripChars(","), reference.Coerce()},
			}},
			Default: 50000.0,
		},
	}
}

// Resolve evaluates every fallback against the tables once. A source whose
// table or column is missing is skipped. A source whose mean cannot be
// computed is skipped too, unless the fallback is Exclusive.
func Resolve(tables map[string]*reference.Table, fallbacks []Fallback) Defaults {
	out := make(Defaults, len(fallbacks))
	for _, fb := range fallbacks {
		d := Default{Feature: fb.Feature, Value: fb.Default, Source: SourceDefault}
		for _, src := range fb.Sources {
			t := tables[src.Table]
			if t == nil || t.Len() == 0 {
				continue
			}
			mean, err := t.Mean(src.Column, src.Options...)
			if err != nil {
				if _, present := t.Column(src.Column); present && fb.Exclusive {
					break
				}
				continue
			}
			if src.Scale != 0 {
				mean *= src.Scale
			}
			d.Value = mean
			d.Source = src.String()
			break
		}
		out[strings.ToLower(fb.Feature)] = d
	}
	return out
}
