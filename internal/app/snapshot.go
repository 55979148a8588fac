package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/disasterscope/internal/config"
	"github.com/okian/disasterscope/internal/domain/classifier"
	"github.com/okian/disasterscope/internal/domain/features"
	"github.com/okian/disasterscope/internal/domain/reference"
	"github.com/okian/disasterscope/internal/domain/risk"
	"github.com/okian/disasterscope/pkg/logger"
	"github.com/okian/disasterscope/pkg/metrics"
)

var datasets = map[risk.Hazard]string{
	risk.Earthquake: reference.Earthquakes,
	risk.Flood:      reference.Floods,
	risk.Wildfire:   reference.Wildfires,
}

// Dataset returns the reference table name backing a hazard.
func Dataset(h risk.Hazard) string { return datasets[h] }

// Snapshot is everything a prediction reads. It is built once and never
// mutated, so requests share it without locking.
type Snapshot struct {
	models  map[risk.Hazard]classifier.Model
	tables  map[risk.Hazard]*reference.Table
	adapter *features.Adapter
}

// NewSnapshot assembles a snapshot and resolves feature defaults from the
// tables. Every hazard needs a model; a missing table becomes an empty one.
func NewSnapshot(models map[risk.Hazard]classifier.Model, tables map[risk.Hazard]*reference.Table) (*Snapshot, error) {
	s := &Snapshot{
		models: make(map[risk.Hazard]classifier.Model, len(risk.Hazards)),
		tables: make(map[risk.Hazard]*reference.Table, len(risk.Hazards)),
	}
	byName := make(map[string]*reference.Table, len(risk.Hazards))
	for _, h := range risk.Hazards {
		m := models[h]
		if m == nil {
			return nil, fmt.Errorf("%s: %w", h, ErrModelMissing)
		}
		s.models[h] = m

		t := tables[h]
		if t == nil {
			t = reference.Empty(Dataset(h))
		}
		s.tables[h] = t
		byName[t.Name()] = t
		metrics.UpdateReferenceRows(t.Name(), t.Len())
	}

	defaults := features.Resolve(byName, features.FallbackTable())
	for _, d := range defaults {
		metrics.SetFeatureDefault(d.Feature, d.Source, d.Value)
	}
	s.adapter = features.NewAdapter(defaults)
	return s, nil
}

// Model returns the classifier for h.
func (s *Snapshot) Model(h risk.Hazard) classifier.Model { return s.models[h] }

// Table returns the reference table for h.
func (s *Snapshot) Table(h risk.Hazard) *reference.Table { return s.tables[h] }

// Defaults returns the resolved feature defaults.
func (s *Snapshot) Defaults() features.Defaults { return s.adapter.Defaults() }

// Load reads the three model artifacts and the three datasets concurrently.
// A model that fails to load aborts startup. A dataset that fails to load is
// logged and replaced by an empty table.
func Load(ctx context.Context, cfg *config.Config, log logger.Logger) (*Snapshot, error) {
	modelFiles := map[risk.Hazard]string{
		risk.Earthquake: cfg.ModelPath(cfg.EarthquakeModel),
		risk.Flood:      cfg.ModelPath(cfg.FloodModel),
		risk.Wildfire:   cfg.ModelPath(cfg.WildfireModel),
	}
	dataFiles := map[risk.Hazard]string{
		risk.Earthquake: cfg.DataPath(cfg.EarthquakeData),
		risk.Flood:      cfg.DataPath(cfg.FloodData),
		risk.Wildfire:   cfg.DataPath(cfg.WildfireData),
	}

	// Load models and datasets concurrently
	models := make([]classifier.Model, len(risk.Hazards))
	tables := make([]*reference.Table, len(risk.Hazards))

	var g errgroup.Group
	for i, h := range risk.Hazards {
		g.Go(func() error {
			m, err := classifier.Load(modelFiles[h])
			if err != nil {
				return fmt.Errorf("load %s model: %w", h, err)
			}
			models[i] = m
			return nil
		})
		g.Go(func() error {
			t, err := reference.Load(Dataset(h), dataFiles[h])
			if err != nil {
				log.Warn(ctx, "dataset unavailable, using empty table",
					logger.String("dataset", Dataset(h)),
					logger.String("path", dataFiles[h]),
					logger.Error(err),
				)
				t = reference.Empty(Dataset(h))
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Index by hazard and log what was loaded
	ms := make(map[risk.Hazard]classifier.Model, len(risk.Hazards))
	ts := make(map[risk.Hazard]*reference.Table, len(risk.Hazards))
	for i, h := range risk.Hazards {
		ms[h] = models[i]
		ts[h] = tables[i]
		log.Info(ctx, "model loaded",
			logger.String("hazard", string(h)),
			logger.String("kind", string(models[i].Kind())),
			logger.String("capability", models[i].Capability().String()),
			logger.Strings("features", models[i].FeatureNames()),
		)
		log.Info(ctx, "dataset loaded",
			logger.String("dataset", tables[i].Name()),
			logger.Int("rows", tables[i].Len()),
		)
	}

	// Build the snapshot and resolve feature defaults
	snap, err := NewSnapshot(ms, ts)
	if err != nil {
		return nil, err
	}
	for _, fb := range features.FallbackTable() {
		d := snap.Defaults()[fb.Feature]
		log.Info(ctx, "feature default",
			logger.String("feature", d.Feature),
			logger.Float64("value", d.Value),
			logger.String("source", d.Source),
		)
	}
	return snap, nil
}
