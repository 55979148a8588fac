package classifier

import "errors"

// Sentinel errors for artifact loading and evaluation.
var (
	ErrUnsupportedFormat = errors.New("unsupported artifact format")
	ErrInvalidArtifact   = errors.New("invalid artifact")
	ErrFeatureMismatch   = errors.New("feature mismatch")
	ErrNoPredictor       = errors.New("model exposes neither predict_proba nor predict")
	ErrPrediction        = errors.New("prediction error")
)
