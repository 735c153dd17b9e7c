package simulation

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/pattern"
)

// ErrInvalidParameter is returned when a simulator cannot be built.
var ErrInvalidParameter = errors.New("invalid simulation parameter")

// RunTableName is the table that run results are recorded in.
const RunTableName = "cache_runs"

// Builder can be used to build a simulator.
type Builder struct {
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
	logger           *logrus.Entry
	recorder         datarecording.Recorder
	monitor          *monitoring.Monitor
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		associativities:  []int{2, 4, 8},
		cacheSize:        2048,
		blockSize:        32,
		prefetchDistance: 8,
		numElements:      4096,
		patternKind:      pattern.HotCold,
		hotProb:          0.5,
		bands:            4,
	}
}

// WithAssociativities sets the way associativities to simulate, in order.
func (b Builder) WithAssociativities(ways ...int) Builder {
	b.associativities = append([]int(nil), ways...)
	return b
}

// WithCacheSize sets the cache capacity, in elements.
func (b Builder) WithCacheSize(cacheSize int) Builder {
	b.cacheSize = cacheSize
	return b
}

// WithBlockSize sets the number of elements in a block.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// WithPrefetchDistance sets how many blocks are probed after each miss.
func (b Builder) WithPrefetchDistance(distance int) Builder {
	b.prefetchDistance = distance
	return b
}

// WithNumElements sets how many accesses each run performs. The backing
// store is sized to cover that many elements.
func (b Builder) WithNumElements(numElements int) Builder {
	b.numElements = numElements
	return b
}

// WithStoreBlocks overrides the number of blocks in the backing store.
func (b Builder) WithStoreBlocks(numBlocks int) Builder {
	b.storeBlocks = numBlocks
	return b
}

// WithPattern selects the access pattern.
func (b Builder) WithPattern(kind pattern.Kind) Builder {
	b.patternKind = kind
	return b
}

// WithHotAccessProb sets the probability of accessing a hot block in the
// hot/cold pattern.
func (b Builder) WithHotAccessProb(prob float64) Builder {
	b.hotProb = prob
	return b
}

// WithBands sets the number of bands of the uniform pattern.
func (b Builder) WithBands(bands int) Builder {
	b.bands = bands
	return b
}

// WithSeed sets the random seed. Zero picks a seed from the clock.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithLogger sets the logger that run progress is reported to.
func (b Builder) WithLogger(logger *logrus.Entry) Builder {
	b.logger = logger
	return b
}

// WithDataRecorder records every report into the given recorder.
func (b Builder) WithDataRecorder(recorder datarecording.Recorder) Builder {
	b.recorder = recorder
	return b
}

// WithMonitor publishes progress and reports to a monitor.
func (b Builder) WithMonitor(monitor *monitoring.Monitor) Builder {
	b.monitor = monitor
	return b
}

func (b Builder) parametersMustBeValid() error {
	if len(b.associativities) == 0 {
		return fmt.Errorf("%w: no associativity to simulate",
			ErrInvalidParameter)
	}

	for _, ways := range b.associativities {
		if ways <= 0 {
			return fmt.Errorf("%w: associativity %d", ErrInvalidParameter, ways)
		}
	}

	if b.numElements <= 0 {
		return fmt.Errorf("%w: number of elements %d",
			ErrInvalidParameter, b.numElements)
	}

	if b.blockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrInvalidParameter, b.blockSize)
	}

	if b.hotProb < 0 || b.hotProb > 1 {
		return fmt.Errorf("%w: hot access probability %g",
			ErrInvalidParameter, b.hotProb)
	}

	if _, err := pattern.ParseKind(string(b.patternKind)); err != nil {
		return err
	}

	return nil
}

func (b Builder) numStoreBlocks() int {
	if b.storeBlocks > 0 {
		return b.storeBlocks
	}

	return (b.numElements + b.blockSize - 1) / b.blockSize
}

// Build builds the simulator.
func (b Builder) Build() (*Simulator, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	s := &Simulator{
		id:               xid.New().String(),
		associativities:  b.associativities,
		cacheSize:        b.cacheSize,
		blockSize:        b.blockSize,
		prefetchDistance: b.prefetchDistance,
		numElements:      b.numElements,
		storeBlocks:      b.numStoreBlocks(),
		patternKind:      b.patternKind,
		hotProb:          b.hotProb,
		bands:            b.bands,
		seed:             b.seed,
		logger:           b.logger,
		recorder:         b.recorder,
		monitor:          b.monitor,
	}

	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}

	if s.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.logger = logrus.NewEntry(l)
	}

	s.logger = s.logger.WithField("simulation", s.id)

	if s.recorder != nil {
		err := s.recorder.CreateTable(RunTableName, RunRecord{})
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}
