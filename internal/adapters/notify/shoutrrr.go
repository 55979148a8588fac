package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/okian/disasterscope/internal/domain/alert"
)

type sender interface {
	Send(message string, params *stypes.Params) []error
}

// Shoutrrr fans an alert out to every configured service URL
// (slack://, telegram://, smtp:// and so on) through a single router.
type Shoutrrr struct {
	urls   []string
	sender sender
}

// NewShoutrrr builds a router for urls. Invalid URLs fail here, not at send time.
func NewShoutrrr(urls []string, timeout time.Duration) (*Shoutrrr, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	router, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("create shoutrrr sender: %w", err)
	}
	if timeout > 0 {
		router.Timeout = timeout
	}
	router.SetLogger(log.New(io.Discard, "", 0))
	return &Shoutrrr{urls: slices.Clone(urls), sender: router}, nil
}

func (n *Shoutrrr) Name() string { return "shoutrrr" }

// Notify sends the alert message with the hazard as title.
// The router enforces its own timeout.
func (n *Shoutrrr) Notify(_ context.Context, a alert.Alert) error { //nolint:gocritic // hugeParam: alerts travel by value
	params := stypes.Params{}
	params.SetTitle(a.Hazard.Title() + " alert")

	var errs []error
	for _, err := range n.sender.Send(a.Message, &params) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
