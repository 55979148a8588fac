package notify

import (
	"context"

	"github.com/okian/disasterscope/internal/domain/alert"
	"github.com/okian/disasterscope/pkg/logger"
)

// Log writes alerts to the service log. It never fails.
type Log struct {
	logger logger.Logger
}

// NewLog returns a notifier that logs through l.
func NewLog(l logger.Logger) *Log {
	return &Log{logger: l}
}

func (n *Log) Name() string { return "log" }

func (n *Log) Notify(ctx context.Context, a alert.Alert) error { //nolint:gocritic // hugeParam: alerts travel by value
	n.logger.Info(ctx, "Notify "+a.Recipient+": "+a.Message,
		logger.String("alert_id", a.ID),
		logger.String("hazard", string(a.Hazard)),
		logger.Float64("probability", a.Probability),
	)
	return nil
}
