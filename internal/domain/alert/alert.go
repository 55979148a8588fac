// Package alert builds high-risk notifications and throttles repeats.
package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/disasterscope/internal/domain/risk"
)

// Alert is a notification about a high-risk location.
type Alert struct {
	ID          string      `json:"id"`
	Hazard      risk.Hazard `json:"hazard"`
	Recipient   string      `json:"recipient"`
	Message     string      `json:"message"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Probability float64     `json:"probability"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Score is a hazard probability on the 0-100 scale.
type Score struct {
	Hazard      risk.Hazard
	Probability float64
}

// Top returns the highest score. Ties keep the earlier entry.
func Top(scores []Score) (Score, bool) {
	if len(scores) == 0 {
		return Score{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Probability > best.Probability {
			best = s
		}
	}
	return best, true
}

// Message formats the alert text for a hazard at a location.
func Message(h risk.Hazard, lat, lon, probability float64) string {
	return fmt.Sprintf("ALERT: High %s Risk at %.4f,%.4f - %.1f%%", h.Title(), lat, lon, probability)
}

// Key identifies an alert for cooldown purposes: the hazard plus the
// location rounded to two decimals (roughly 1 km).
func Key(h risk.Hazard, lat, lon float64) string {
	return fmt.Sprintf("%s@%.2f,%.2f", h, lat, lon)
}

// New builds an alert for the top score.
func New(top Score, lat, lon float64, recipient string, now time.Time) Alert {
	return Alert{
		ID:          uuid.NewString(),
		Hazard:      top.Hazard,
		Recipient:   recipient,
		Message:     Message(top.Hazard, lat, lon, top.Probability),
		Latitude:    lat,
		Longitude:   lon,
		Probability: top.Probability,
		CreatedAt:   now,
	}
}

// Key returns the cooldown key of a.
func (a Alert) Key() string { return Key(a.Hazard, a.Latitude, a.Longitude) }
