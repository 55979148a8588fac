package smoke

import (
	"encoding/json"
	"fmt"
	"math"

	service "github.com/okian/disasterscope/internal/app"
	"github.com/okian/disasterscope/internal/domain/risk"
)

const probabilityTolerance = 1e-9

// verifyPrediction checks one /predict body and returns every violation.
func verifyPrediction(p Point, body []byte) []string {
	var res service.Assessment
	if err := json.Unmarshal(body, &res); err != nil {
		return []string{fmt.Sprintf("%v: undecodable response: %v", p, err)}
	}

	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf("%v: ", p)+fmt.Sprintf(format, args...))
	}

	maxP := 0.0
	for _, h := range risk.Hazards {
		a := res.Hazard(h)
		if a.Probability < 0 || a.Probability > 100 || math.IsNaN(a.Probability) {
			report("%s probability %v outside [0, 100]", h, a.Probability)
		}
		if want := risk.Classify(a.Probability); a.Level != want {
			report("%s level %q, want %q for %v", h, a.Level, want, a.Probability)
		}
		maxP = math.Max(maxP, a.Probability)
	}

	if math.Abs(res.Overall.MaxProbability-maxP) > probabilityTolerance {
		report("overall max %v, want %v", res.Overall.MaxProbability, maxP)
	}
	if want := risk.Classify(res.Overall.MaxProbability); res.Overall.RiskLevel != want {
		report("overall level %q, want %q", res.Overall.RiskLevel, want)
	}
	if res.Counts.Earthquake < 0 || res.Counts.Flood < 0 || res.Counts.Wildfire < 0 {
		report("negative nearby count %+v", res.Counts)
	}
	if res.Timestamp == "" {
		report("missing timestamp")
	}
	return violations
}
