package alert

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Suppressor decides whether an alert key fired recently.
type Suppressor interface {
	// SeenAndRecord atomically reports whether key is inside its cooldown
	// window and, if not, starts a new window for it.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so the next alert for it is not suppressed. Used
	// when an alert was recorded but could not be enqueued.
	Unrecord(ctx context.Context, key string)

	Size() int
}

type entry struct {
	key     string
	expires time.Time
}

// cooldown keeps keys in insertion order. With a fixed window that is also
// expiry order, so expired keys are always at the front.
type cooldown struct {
	mu      sync.Mutex
	window  time.Duration
	maxKeys int
	clock   clockwork.Clock
	order   *list.List
	keys    map[string]*list.Element
}

// NewCooldown returns a Suppressor that drops repeats of a key within window.
// A zero window never suppresses.
func NewCooldown(window time.Duration, opts ...Option) Suppressor {
	c := &cooldown{
		window:  window,
		maxKeys: 10_000,
		clock:   clockwork.NewRealClock(),
		order:   list.New(),
		keys:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *cooldown) SeenAndRecord(_ context.Context, key string) bool {
	if c.window <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.expire(now)

	if _, ok := c.keys[key]; ok {
		return true
	}
	if c.maxKeys > 0 && len(c.keys) >= c.maxKeys {
		c.remove(c.order.Front())
	}
	c.keys[key] = c.order.PushBack(&entry{key: key, expires: now.Add(c.window)})
	return false
}

func (c *cooldown) Unrecord(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.keys[key]; ok {
		c.remove(el)
	}
}

func (c *cooldown) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire(c.clock.Now())
	return len(c.keys)
}

// expire drops every key whose window has closed. Caller holds c.mu.
func (c *cooldown) expire(now time.Time) {
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if now.Before(el.Value.(*entry).expires) {
			return
		}
		c.remove(el)
	}
}

func (c *cooldown) remove(el *list.Element) {
	if el == nil {
		return
	}
	delete(c.keys, el.Value.(*entry).key)
	c.order.Remove(el)
}
