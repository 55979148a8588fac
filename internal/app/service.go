// Package service ties the loaded models and datasets to the HTTP API:
// it runs predictions, serves dataset stats and dispatches high-risk alerts.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"

	"github.com/okian/disasterscope/internal/adapters/mq/queue"
	"github.com/okian/disasterscope/internal/adapters/mq/worker"
	"github.com/okian/disasterscope/internal/adapters/notify"
	"github.com/okian/disasterscope/internal/domain/alert"
	"github.com/okian/disasterscope/internal/domain/classifier"
	"github.com/okian/disasterscope/internal/domain/geo"
	"github.com/okian/disasterscope/internal/domain/risk"
	"github.com/okian/disasterscope/pkg/logger"
	"github.com/okian/disasterscope/pkg/metrics"
)

// Assessment is the full prediction for one location.
type Assessment struct {
	Earthquake risk.Assessment `json:"earthquake"`
	Flood      risk.Assessment `json:"flood"`
	Wildfire   risk.Assessment `json:"wildfire"`
	Overall    Overall         `json:"overall"`
	Counts     Counts          `json:"counts"`
	Location   Location        `json:"location"`
	Timestamp  string          `json:"timestamp"`
}

// Hazard returns the per-hazard assessment.
func (a *Assessment) Hazard(h risk.Hazard) risk.Assessment {
	switch h {
	case risk.Earthquake:
		return a.Earthquake
	case risk.Flood:
		return a.Flood
	default:
		return a.Wildfire
	}
}

func (a *Assessment) set(h risk.Hazard, v risk.Assessment) {
	switch h {
	case risk.Earthquake:
		a.Earthquake = v
	case risk.Flood:
		a.Flood = v
	case risk.Wildfire:
		a.Wildfire = v
	}
}

// Overall summarizes the highest of the three probabilities.
type Overall struct {
	RiskLevel      risk.Level `json:"risk_level"`
	MaxProbability float64    `json:"max_probability"`
	Message        string     `json:"message"`
}

// Counts holds historical events within the nearby radius.
type Counts struct {
	Earthquake int `json:"earthquake"`
	Flood      int `json:"flood"`
	Wildfire   int `json:"wildfire"`
}

// Location echoes the queried point.
type Location struct {
	Coordinates string  `json:"coordinates"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// DatasetStats describes one reference table.
type DatasetStats struct {
	TotalRecords int      `json:"total_records"`
	Columns      []string `json:"columns"`
}

// Stats describes all reference tables.
type Stats struct {
	Earthquakes DatasetStats `json:"earthquakes"`
	Floods      DatasetStats `json:"floods"`
	Wildfires   DatasetStats `json:"wildfires"`
}

// Health reports readiness.
type Health struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
}

// Service implements the API dependencies for the prediction endpoints.
type Service struct {
	snap *Snapshot

	radiusKm       float64
	alertThreshold float64
	recipient      string
	cooldown       time.Duration
	queueSize      int
	workerCount    int
	notifyTimeout  time.Duration
	cacheTTL       time.Duration

	clock    clockwork.Clock
	notifier worker.Notifier
	logger   logger.Logger

	cache      *gocache.Cache
	suppressor alert.Suppressor

	mu      sync.RWMutex
	started bool
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
}

// New constructs a Service around a loaded snapshot.
func New(snap *Snapshot, opts ...Option) *Service {
	s := &Service{
		snap:           snap,
		radiusKm:       100,
		alertThreshold: risk.HighThreshold,
		recipient:      "1945",
		cooldown:       10 * time.Minute,
		queueSize:      1024,
		workerCount:    2,
		notifyTimeout:  10 * time.Second,
		clock:          clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.notifier == nil {
		s.notifier = notify.NewLog(s.logger.Named("alerts"))
	}
	if s.cacheTTL > 0 {
		s.cache = gocache.New(s.cacheTTL, 2*s.cacheTTL)
	}
	s.suppressor = alert.NewCooldown(s.cooldown, alert.WithClock(s.clock))
	return s
}

// Start launches the alert queue and its workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.notifier,
		worker.WithNotifyTimeout(s.notifyTimeout),
	)
	s.pool.Start(ctx)
	s.started = true

	s.logger.Info(ctx, "alert dispatch started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Float64("threshold", s.alertThreshold),
		logger.Duration("cooldown", s.cooldown),
	)
	return nil
}

// Stop closes the alert queue and waits for queued alerts to be delivered.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	err := s.pool.Shutdown(ctx)
	s.logger.Info(ctx, "alert dispatch stopped")
	return err
}

// Predict scores all hazards for a location. The first model failure is
// returned as "<Hazard> model error: ...".
func (s *Service) Predict(ctx context.Context, lat, lng float64) (Assessment, error) {
	if !geo.ValidCoordinate(lat, lng) {
		return Assessment{}, fmt.Errorf("%w: %v, %v", ErrInvalidCoordinates, lat, lng)
	}

	start := s.clock.Now()
	defer func() {
		metrics.RecordPredictionLatency(float64(s.clock.Since(start).Microseconds()) / 1000)
	}()

	key := fmt.Sprintf("%.4f,%.4f", lat, lng)
	res, hit := s.cached(key)
	if !hit {
		var err error
		res, err = s.assess(lat, lng)
		if err != nil {
			return Assessment{}, err
		}
		if s.cache != nil {
			s.cache.SetDefault(key, res)
		}
	}

	now := s.clock.Now()
	res.Timestamp = now.UTC().Format(time.RFC3339)
	s.dispatch(ctx, &res, lat, lng, now)
	return res, nil
}

func (s *Service) cached(key string) (Assessment, bool) {
	if s.cache == nil {
		return Assessment{}, false
	}
	if v, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit()
		return v.(Assessment), true
	}
	metrics.RecordCacheMiss()
	return Assessment{}, false
}

func (s *Service) assess(lat, lng float64) (Assessment, error) {
	var res Assessment
	var maxP float64
	for _, h := range risk.Hazards {
		m := s.snap.Model(h)
		p, err := classifier.Probability(m, s.snap.adapter.Row(m, lat, lng))
		if err != nil {
			metrics.RecordPredictionError(string(h))
			return Assessment{}, fmt.Errorf("%s model error: %w", h.Title(), err)
		}
		a := risk.Assess(p)
		res.set(h, a)
		metrics.RecordPrediction(string(h), string(a.Level))
		maxP = max(maxP, a.Probability)
	}

	overall := risk.Assess(maxP)
	res.Overall = Overall{RiskLevel: overall.Level, MaxProbability: overall.Probability, Message: overall.Message}
	res.Counts = Counts{
		Earthquake: s.snap.Table(risk.Earthquake).NearbyCount(lat, lng, s.radiusKm),
		Flood:      s.snap.Table(risk.Flood).NearbyCount(lat, lng, s.radiusKm),
		Wildfire:   s.snap.Table(risk.Wildfire).NearbyCount(lat, lng, s.radiusKm),
	}
	res.Location = Location{
		Coordinates: fmt.Sprintf("%.4f, %.4f", lat, lng),
		Lat:         geo.Round(lat, 4),
		Lng:         geo.Round(lng, 4),
	}
	return res, nil
}

// dispatch enqueues an alert for the top hazard when the overall probability
// reaches the threshold. It never fails the request.
func (s *Service) dispatch(ctx context.Context, res *Assessment, lat, lng float64, now time.Time) {
	if res.Overall.MaxProbability < s.alertThreshold {
		return
	}

	// Alerts are only dispatched after Start
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return
	}

	// Build the alert for the top hazard
	scores := make([]alert.Score, 0, len(risk.Hazards))
	for _, h := range risk.Hazards {
		scores = append(scores, alert.Score{Hazard: h, Probability: res.Hazard(h).Probability})
	}
	top, _ := alert.Top(scores)
	a := alert.New(top, lat, lng, s.recipient, now)

	// Drop repeats inside the cooldown window
	if s.suppressor.SeenAndRecord(ctx, a.Key()) {
		metrics.RecordAlert(metrics.AlertSuppressed)
		s.logger.Debug(ctx, "alert suppressed by cooldown", logger.String("key", a.Key()))
		return
	}
	// Non-blocking enqueue; a dropped alert must not start a cooldown
	if err := q.Enqueue(ctx, a); err != nil {
		s.suppressor.Unrecord(ctx, a.Key())
		metrics.RecordAlert(metrics.AlertDropped)
		level := s.logger.Warn
		if errors.Is(err, queue.ErrClosed) {
			level = s.logger.Debug
		}
		level(ctx, "alert dropped", logger.String("key", a.Key()), logger.Error(err))
		return
	}
	metrics.RecordAlert(metrics.AlertEnqueued)
}

// Stats describes the loaded reference tables. A table without rows lists
// no columns, even when its file had a header.
func (s *Service) Stats() Stats {
	describe := func(h risk.Hazard) DatasetStats {
		t := s.snap.Table(h)
		if t.Len() == 0 {
			return DatasetStats{Columns: []string{}}
		}
		return DatasetStats{TotalRecords: t.Len(), Columns: t.Columns()}
	}
	return Stats{
		Earthquakes: describe(risk.Earthquake),
		Floods:      describe(risk.Flood),
		Wildfires:   describe(risk.Wildfire),
	}
}

// Health reports whether every model is loaded.
func (s *Service) Health() Health {
	loaded := s.snap != nil
	if loaded {
		for _, h := range risk.Hazards {
			if s.snap.Model(h) == nil {
				loaded = false
			}
		}
	}
	return Health{Status: "healthy", ModelsLoaded: loaded}
}

// Snapshot returns the immutable prediction state.
func (s *Service) Snapshot() *Snapshot { return s.snap }
