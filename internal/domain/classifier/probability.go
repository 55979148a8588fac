package classifier

import (
	"fmt"
	"math"
	"slices"
)

// Label-only models map to a fixed pair of pseudo-probabilities.
const (
	LabelPositiveProbability = 85.0
	LabelNegativeProbability = 15.0
)

// Probability returns the positive-class probability on a 0-100 scale.
// Failures are wrapped in ErrPrediction.
func Probability(m Model, row Row) (float64, error) {
	switch m.Capability() {
	case CapabilityProbability:
		proba, err := m.PredictProba(row)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrPrediction, err)
		}
		var p float64
		switch len(proba) {
		case 0:
			return 0, fmt.Errorf("%w: empty probability output", ErrPrediction)
		case 1:
			p = proba[0]
		default:
			p = proba[1]
		}
		if math.IsNaN(p) {
			return 0, fmt.Errorf("%w: probability is NaN", ErrPrediction)
		}
		return p * 100, nil
	case CapabilityLabel:
		label, err := m.Predict(row)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrPrediction, err)
		}
		if label == 1 {
			return LabelPositiveProbability, nil
		}
		return LabelNegativeProbability, nil
	default:
		return 0, fmt.Errorf("%w: %w", ErrPrediction, ErrNoPredictor)
	}
}

// Probe evaluates a zero row with the given columns and returns the
// prediction error, if any. It tells which schema a model was trained on.
func Probe(m Model, columns []string) error {
	row := Row{Columns: slices.Clone(columns), Values: make([]float64, len(columns))}
	_, err := Probability(m, row)
	return err
}
