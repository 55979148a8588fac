package classifier

import (
	"fmt"
	"math"
	"slices"
)

// Capability tells callers which prediction method a model supports.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityLabel
	CapabilityProbability
)

func (c Capability) String() string {
	switch c {
	case CapabilityProbability:
		return "probability"
	case CapabilityLabel:
		return "label"
	default:
		return "none"
	}
}

// Row is a single input row with named columns.
type Row struct {
	Columns []string
	Values  []float64
}

// Model is a fitted binary classifier.
type Model interface {
	Name() string
	Kind() Kind
	Capability() Capability
	// FeatureNames returns the declared input schema, or nil when the model
	// was fitted without column names.
	FeatureNames() []string
	NFeatures() int
	// PredictProba returns one probability per class.
	PredictProba(row Row) ([]float64, error)
	// Predict returns the predicted class label.
	Predict(row Row) (int, error)
}

type artifactModel struct {
	a Artifact
	n int
}

func (m *artifactModel) Name() string { return m.a.Name }
func (m *artifactModel) Kind() Kind { return m.a.Kind }
func (m *artifactModel) NFeatures() int { return m.n }

func (m *artifactModel) FeatureNames() []string {
	if len(m.a.FeatureNames) == 0 {
		return nil
	}
	return slices.Clone(m.a.FeatureNames)
}

func (m *artifactModel) Capability() Capability {
	if m.a.Kind == KindLinearSVM {
		return CapabilityLabel
	}
	return CapabilityProbability
}

func (m *artifactModel) check(row Row) error {
	if len(row.Values) != m.n {
		return fmt.Errorf("%w: expected %d features, got %d", ErrFeatureMismatch, m.n, len(row.Values))
	}
	if len(m.a.FeatureNames) > 0 && !slices.Equal(row.Columns, m.a.FeatureNames) {
		return fmt.Errorf("%w: expected columns %v, got %v", ErrFeatureMismatch, m.a.FeatureNames, row.Columns)
	}
	for i, v := range row.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: column %d is not finite", ErrFeatureMismatch, i)
		}
	}
	return nil
}

func (m *artifactModel) PredictProba(row Row) ([]float64, error) {
	if err := m.check(row); err != nil {
		return nil, err
	}
	switch m.a.Kind {
	case KindLogisticRegression:
		p := sigmoid(m.decision(row.Values))
		return []float64{1 - p, p}, nil
	case KindRandomForest, KindDecisionTree:
		return m.forest(row.Values), nil
	default:
		return nil, fmt.Errorf("%s has no predict_proba", m.a.Kind)
	}
}

func (m *artifactModel) Predict(row Row) (int, error) {
	if err := m.check(row); err != nil {
		return 0, err
	}
	switch m.a.Kind {
	case KindLinearSVM, KindLogisticRegression:
		if m.decision(row.Values) > 0 {
			return m.a.Classes[1], nil
		}
		return m.a.Classes[0], nil
	default:
		proba := m.forest(row.Values)
		best := 0
		for i, p := range proba {
			if p > proba[best] {
				best = i
			}
		}
		return m.a.Classes[best], nil
	}
}

// decision returns w.x' + b with x' optionally standardized.
func (m *artifactModel) decision(x []float64) float64 {
	z := m.a.Intercept
	for i, w := range m.a.Coefficients {
		v := x[i]
		if s := m.a.Scaler; s != nil {
			scale := s.Scale[i]
			if scale == 0 {
				scale = 1
			}
			v = (v - s.Mean[i]) / scale
		}
		z += w * v
	}
	return z
}

// forest averages the normalized leaf distributions of every tree.
func (m *artifactModel) forest(x []float64) []float64 {
	out := make([]float64, len(m.a.Classes))
	for _, t := range m.a.Trees {
		leaf := walk(t, x)
		var total float64
		for _, c := range leaf {
			total += c
		}
		if total <= 0 {
			continue
		}
		for i, c := range leaf {
			out[i] += c / total
		}
	}
	for i := range out {
		out[i] /= float64(len(m.a.Trees))
	}
	return out
}

func walk(t Tree, x []float64) []float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.leaf() {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
