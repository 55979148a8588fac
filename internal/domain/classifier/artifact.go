// Package classifier loads portable model artifacts and evaluates them.
//
// An artifact is a JSON or YAML document describing a fitted linear or tree
// model. Each model advertises an explicit Capability so callers can extract
// a probability without inspecting its concrete type.
package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind names the estimator family of an artifact.
type Kind string

const (
	KindLogisticRegression Kind = "logistic_regression"
	KindRandomForest       Kind = "random_forest"
	KindDecisionTree       Kind = "decision_tree"
	KindLinearSVM          Kind = "linear_svm"
)

// Artifact is the on-disk model description.
type Artifact struct {
	Name         string    `json:"name" yaml:"name"`
	Kind         Kind      `json:"kind" yaml:"kind"`
	FeatureNames []string  `json:"feature_names,omitempty" yaml:"feature_names,omitempty"`
	NFeatures    int       `json:"n_features,omitempty" yaml:"n_features,omitempty"`
	Classes      []int     `json:"classes,omitempty" yaml:"classes,omitempty"`
	Scaler       *Scaler   `json:"scaler,omitempty" yaml:"scaler,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Trees        []Tree    `json:"trees,omitempty" yaml:"trees,omitempty"`
}

// Scaler standardizes a row as (x - mean) / scale before a linear model.
type Scaler struct {
	Mean  []float64 `json:"mean" yaml:"mean"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

// Tree is a binary decision tree stored as a flat node list rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
}

// Node is either a split (Value empty) or a leaf holding per-class counts.
// Splits send x[Feature] <= Threshold to Left.
type Node struct {
	Feature   int       `json:"feature,omitempty" yaml:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Left      int       `json:"left,omitempty" yaml:"left,omitempty"`
	Right     int       `json:"right,omitempty" yaml:"right,omitempty"`
	Value     []float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

func (n Node) leaf() bool { return len(n.Value) > 0 }

// Load reads and compiles an artifact file. The format follows the file
// extension: .json, .yaml or .yml.
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	m, err := Compile(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode parses artifact bytes. Unknown fields are rejected.
func Decode(ext string, data []byte) (Artifact, error) {
	var a Artifact
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return Artifact{}, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&a); err != nil {
			return Artifact{}, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
		}
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return a, nil
}

// Compile validates an artifact and returns an evaluable Model.
func Compile(a Artifact) (Model, error) {
	n := a.NFeatures
	if len(a.FeatureNames) > 0 {
		if n != 0 && n != len(a.FeatureNames) {
			return nil, invalidf("n_features %d does not match %d feature_names", n, len(a.FeatureNames))
		}
		n = len(a.FeatureNames)
	}
	if n <= 0 {
		return nil, invalidf("n_features is required when feature_names is absent")
	}

	classes := a.Classes
	if len(classes) == 0 {
		classes = []int{0, 1}
	}

	if a.Scaler != nil {
		if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
			return nil, invalidf("scaler needs %d means and scales", n)
		}
	}

	switch a.Kind {
	case KindLogisticRegression, KindLinearSVM:
		if len(a.Coefficients) != n {
			return nil, invalidf("%s needs %d coefficients, got %d", a.Kind, n, len(a.Coefficients))
		}
		if len(classes) != 2 {
			return nil, invalidf("%s supports binary classes only", a.Kind)
		}
	case KindRandomForest, KindDecisionTree:
		if len(a.Trees) == 0 {
			return nil, invalidf("%s needs at least one tree", a.Kind)
		}
		if a.Kind == KindDecisionTree && len(a.Trees) != 1 {
			return nil, invalidf("decision_tree needs exactly one tree, got %d", len(a.Trees))
		}
		for i, t := range a.Trees {
			if err := validateTree(t, n, len(classes)); err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return nil, invalidf("unknown kind %q", a.Kind)
	}

	a.Classes = classes
	return &artifactModel{a: a, n: n}, nil
}

func validateTree(t Tree, nFeatures, nClasses int) error {
	if len(t.Nodes) == 0 {
		return invalidf("empty tree")
	}
	for i, node := range t.Nodes {
		if node.leaf() {
			if len(node.Value) != nClasses {
				return invalidf("node %d has %d class counts, want %d", i, len(node.Value), nClasses)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= nFeatures {
			return invalidf("node %d splits on feature %d of %d", i, node.Feature, nFeatures)
		}
		// children must point forward so evaluation always terminates
		if node.Left <= i || node.Right <= i || node.Left >= len(t.Nodes) || node.Right >= len(t.Nodes) {
			return invalidf("node %d has invalid children %d/%d", i, node.Left, node.Right)
		}
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArtifact, fmt.Sprintf(format, args...))
}
