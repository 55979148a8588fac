package reference

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Issue is one validation finding. Line is the 1-based line in the source
// file where the offending row starts.
type Issue struct {
	Line    int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// FloodColumns are the factor columns expected in the flood dataset, followed
// by FloodProbability.
var FloodColumns = []string{
	"MonsoonIntensity", "TopographyDrainage", "RiverManagement", "Deforestation", "Urbanization",
	"ClimateChange", "DamsQuality", "Siltation", "AgriculturalPractices", "Encroachments",
	"IneffectiveDisasterPreparedness", "DrainageSystems", "CoastalVulnerability", "Landslides",
	"Watersheds", "DeterioratingInfrastructure", "PopulationScore", "WetlandLoss",
	"InadequatePlanning", "PoliticalFactors", "FloodProbability",
}

// WildfireColumns are the columns expected in the wildfire dataset.
var WildfireColumns = []string{"Year", "Fires", "Acres", "ForestService", "DOIAgencies", "Total"}

var earthquakeTimeLayouts = []string{"02-01-2006 15:04", "02-01-2006 15:04:05"}

var alertColors = []string{"green", "yellow", "red"}

// Validate checks a bundled dataset row by row. Tables with an unknown name
// have no rules and always pass.
func Validate(t *Table) []Issue {
	switch t.Name() {
	case Earthquakes:
		return validateEarthquakes(t)
	case Floods:
		return validateFloods(t)
	case Wildfires:
		return validateWildfires(t)
	default:
		return nil
	}
}

// rowReader reads a data row by column name. Missing columns read as "".
type rowReader struct {
	t   *Table
	row int
}

func (r rowReader) get(column string) string {
	c, ok := r.t.Column(column)
	if !ok {
		return ""
	}
	return r.t.Cell(r.row, c)
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func validateEarthquakes(t *Table) []Issue {
	var issues []Issue
	for i := range t.Len() {
		r := rowReader{t: t, row: i}
		var errs []string

		nonEmpty := func(col, msg string) {
			if r.get(col) == "" {
				errs = append(errs, msg)
			}
		}
		optional := func(col string, valid func(string) bool, msg string) {
			if v := r.get(col); v != "" && !valid(v) {
				errs = append(errs, msg)
			}
		}

		nonEmpty("title", "title missing or invalid")
		if !isFloat(r.get("magnitude")) {
			errs = append(errs, "magnitude not a valid float")
		}
		if !validTime(r.get("date_time")) {
			errs = append(errs, "date_time wrong format")
		}
		optional("cdi", isInt, "cdi not an integer")
		optional("mmi", isInt, "mmi not an integer")
		if a := strings.ToLower(r.get("alert")); a != "" && !slices.Contains(alertColors, a) {
			errs = append(errs, "alert invalid")
		}
		if !isInt(r.get("tsunami")) {
			errs = append(errs, "tsunami not integer")
		}
		if !isInt(r.get("sig")) {
			errs = append(errs, "sig not integer")
		}
		nonEmpty("net", "net empty")
		optional("nst", isInt, "nst not integer")
		optional("dmin", isFloat, "dmin not float")
		optional("gap", isInt, "gap not integer")
		nonEmpty("magType", "magType empty")
		for _, col := range []string{"depth", "latitude", "longitude"} {
			if !isFloat(r.get(col)) {
				errs = append(errs, col+" not float")
			}
		}
		nonEmpty("location", "location empty")

		if len(errs) > 0 {
			issues = append(issues, Issue{Line: t.Line(i), Message: strings.Join(errs, ", ")})
		}
	}
	return issues
}

func validTime(s string) bool {
	for _, layout := range earthquakeTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func missingColumns(t *Table, want []string) []Issue {
	var missing []string
	for _, c := range want {
		if _, ok := t.Column(c); !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return []Issue{{Line: t.HeaderLine(), Message: fmt.Sprintf("missing columns %v; found %v", missing, t.Columns())}}
}

func validateFloods(t *Table) []Issue {
	if issues := missingColumns(t, FloodColumns); issues != nil {
		return issues
	}

	factors := FloodColumns[:len(FloodColumns)-1]
	var issues []Issue
	for i := range t.Len() {
		r := rowReader{t: t, row: i}
		for _, col := range factors {
			cell := r.get(col)
			v, err := strconv.Atoi(cell)
			switch {
			case err != nil:
				issues = append(issues, Issue{Line: t.Line(i), Message: fmt.Sprintf("%s invalid integer: %q", col, cell)})
			case v < 0 || v > 10:
				issues = append(issues, Issue{Line: t.Line(i), Message: fmt.Sprintf("%s = %d out of range (0-10)", col, v)})
			}
		}

		cell := r.get("FloodProbability")
		p, err := strconv.ParseFloat(cell, 64)
		switch {
		case err != nil:
			issues = append(issues, Issue{Line: t.Line(i), Message: fmt.Sprintf("FloodProbability invalid float: %q", cell)})
		case p < 0 || p > 1:
			issues = append(issues, Issue{Line: t.Line(i), Message: fmt.Sprintf("FloodProbability %v out of range (0-1)", p)})
		}
	}
	return issues
}

var moneyStrip = strings.NewReplacer(",", "", "$", "")

func validateWildfires(t *Table) []Issue {
	if issues := missingColumns(t, WildfireColumns); issues != nil {
		return issues
	}

	checks := []struct {
		col   string
		valid func(string) bool
		what  string
	}{
		{"Year", isInt, "Year"},
		{"Fires", isInt, "Fires count"},
		{"Acres", isInt, "Acres count"},
		{"ForestService", isFloat, "ForestService amount"},
		{"DOIAgencies", isFloat, "DOIAgencies amount"},
		{"Total", isFloat, "Total amount"},
	}

	var issues []Issue
	for i := range t.Len() {
		r := rowReader{t: t, row: i}
		var errs []string
		for _, c := range checks {
			raw := r.get(c.col)
			if !c.valid(strings.TrimSpace(moneyStrip.Replace(raw))) {
				errs = append(errs, fmt.Sprintf("invalid %s: %q", c.what, raw))
			}
		}
		if len(errs) > 0 {
			issues = append(issues, Issue{Line: t.Line(i), Message: strings.Join(errs, ", ")})
		}
	}
	return issues
}
