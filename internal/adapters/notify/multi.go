package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/disasterscope/internal/domain/alert"
	"github.com/okian/disasterscope/pkg/metrics"
)

// Multi delivers to every notifier and joins their failures.
// One failing destination does not stop the others.
type Multi struct {
	notifiers []Notifier
}

// NewMulti ignores nil notifiers.
func NewMulti(notifiers ...Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *Multi) Name() string { return "multi" }

// Names lists the wrapped notifiers in delivery order.
func (m *Multi) Names() []string {
	names := make([]string, 0, len(m.notifiers))
	for _, n := range m.notifiers {
		names = append(names, n.Name())
	}
	return names
}

func (m *Multi) Notify(ctx context.Context, a alert.Alert) error { //nolint:gocritic // hugeParam: alerts travel by value
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, a); err != nil {
			metrics.RecordNotifierDelivery(n.Name(), resultFailure)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		metrics.RecordNotifierDelivery(n.Name(), resultSuccess)
	}
	return errors.Join(errs...)
}
