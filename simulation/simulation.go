// Package simulation drives access patterns through caches of different
// associativities and reports how they behave.
package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/blockstore"
	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/pattern"
)

const progressUpdateInterval = 1024

// A Simulator runs one independent simulation per configured
// associativity. Runs share no state: every run gets its own store,
// generator and cache, and every generator starts from the same seed.
type Simulator struct {
	id               string
	associativities  []int
	cacheSize        int
	blockSize        int
	prefetchDistance int
	numElements      int
	storeBlocks      int
	patternKind      pattern.Kind
	hotProb          float64
	bands            int
	seed             int64

	logger   *logrus.Entry
	recorder datarecording.Recorder
	monitor  *monitoring.Monitor
}

// ID returns the unique ID of the simulator.
func (s *Simulator) ID() string {
	return s.id
}

// Seed returns the seed that every run starts from.
func (s *Simulator) Seed() int64 {
	return s.seed
}

// Associativities returns the associativities in the order they run.
func (s *Simulator) Associativities() []int {
	return append([]int(nil), s.associativities...)
}

// Run simulates every configured associativity. A failing run does not stop
// the others. The reports of the successful runs are returned together with
// the errors of the failed ones.
func (s *Simulator) Run() ([]Report, error) {
	var (
		reports []Report
		errs    []error
	)

	for _, ways := range s.associativities {
		report, err := s.RunOne(ways)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		reports = append(reports, report)
	}

	return reports, errors.Join(errs...)
}

// RunOne simulates a single associativity.
func (s *Simulator) RunOne(ways int) (Report, error) {
	runID := xid.New().String()
	logger := s.logger.WithFields(logrus.Fields{
		"run":     runID,
		"ways":    ways,
		"pattern": s.patternKind,
	})

	store, gen, c, err := s.buildRun(ways)
	if err != nil {
		logger.WithError(err).Error("cannot set up run")
		return Report{}, fmt.Errorf("%d-way run: %w", ways, err)
	}

	logger.WithFields(logrus.Fields{
		"sets":        c.NumSets(),
		"storeBlocks": store.Size(),
	}).Debug("run started")

	elapsed, err := s.drive(ways, gen, c)
	if err != nil {
		logger.WithError(err).Error("run aborted")
		return Report{}, fmt.Errorf("%d-way run: %w", ways, err)
	}

	report := s.makeReport(runID, gen.Name(), c, elapsed)

	logger.WithFields(logrus.Fields{
		"hits":    report.Hits,
		"misses":  report.Misses,
		"elapsed": elapsed,
	}).Info("run finished")

	if err := s.publish(report); err != nil {
		return Report{}, fmt.Errorf("%d-way run: %w", ways, err)
	}

	return report, nil
}

func (s *Simulator) buildRun(
	ways int,
) (*blockstore.Store, pattern.Generator, *cache.Cache, error) {
	store, err := blockstore.NewStore(s.storeBlocks, s.blockSize)
	if err != nil {
		return nil, nil, nil, err
	}

	gen, err := pattern.New(pattern.Config{
		Kind:        s.patternKind,
		NumElements: s.numElements,
		BlockSize:   s.blockSize,
		MaxBlocks:   store.Size(),
		HotProb:     s.hotProb,
		Bands:       s.bands,
		Seed:        s.seed,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	c, err := cache.MakeBuilder().
		WithBlockSize(s.blockSize).
		WithWayAssociativity(ways).
		WithCacheSize(s.cacheSize).
		WithPrefetchDistance(s.prefetchDistance).
		WithBackingStore(store).
		Build()
	if err != nil {
		return nil, nil, nil, err
	}

	return store, gen, c, nil
}

func (s *Simulator) drive(
	ways int,
	gen pattern.Generator,
	c *cache.Cache,
) (time.Duration, error) {
	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar(
			fmt.Sprintf("%d-way", ways), uint64(s.numElements))
		defer s.monitor.CompleteProgressBar(bar)
	}

	start := time.Now()

	for i := 0; i < s.numElements; i++ {
		addr, ok := gen.NextAddress()
		if !ok {
			break
		}

		if _, err := c.Access(addr); err != nil {
			return 0, fmt.Errorf("access %d at address %d: %w", i, addr, err)
		}

		if bar != nil && (i+1)%progressUpdateInterval == 0 {
			bar.IncrementFinished(progressUpdateInterval)
		}
	}

	return time.Since(start), nil
}

func (s *Simulator) makeReport(
	runID, patternName string,
	c *cache.Cache,
	elapsed time.Duration,
) Report {
	stats := c.Stats()

	return Report{
		RunID:            runID,
		Associativity:    c.Ways(),
		CacheSize:        c.Capacity(),
		BlockSize:        c.BlockSize(),
		NumSets:          c.NumSets(),
		PrefetchDistance: c.PrefetchDistance(),
		NumElements:      s.numElements,
		Pattern:          patternName,
		Seed:             s.seed,
		Elapsed:          elapsed,
		Hits:             stats.Hits,
		Misses:           stats.Misses,
		PrefetchHits:     stats.PrefetchHits,
		PrefetchReads:    stats.PrefetchReads,
		Evictions:        stats.Evictions,
		HitRate:          stats.HitRate(),
		EffectiveHitRate: stats.EffectiveHitRate(),
	}
}

func (s *Simulator) publish(report Report) error {
	if s.monitor != nil {
		s.monitor.RegisterReport(report.RunID, &report)
	}

	if s.recorder == nil {
		return nil
	}

	return s.recorder.InsertData(RunTableName, report.Record(s.id))
}
