package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/sarchlab/cachesim/blockstore"
	"github.com/sarchlab/cachesim/pattern"
	"github.com/sarchlab/cachesim/simulation"
)

const envPrefix = "CACHESIM_"

type options struct {
	ways             []int
	cacheSize        int
	blockSize        int
	prefetchDistance int
	numElements      int
	pattern          string
	hotProb          float64
	bands            int
	seed             int64
	record           string
	monitor          bool
	monitorPort      int
	openBrowser      bool
	hold             bool
	storeConfig      string
	verbose          bool
	envFile          string
}

func defaultOptions() *options {
	return &options{
		ways:             []int{2, 4, 8},
		cacheSize:        2048,
		blockSize:        32,
		prefetchDistance: 8,
		numElements:      4096,
		pattern:          string(pattern.HotCold),
		hotProb:          0.5,
		bands:            4,
		storeConfig:      blockstore.DefaultEmulationConfig().Path,
		envFile:          ".env",
	}
}

func (o *options) addFlags(f *pflag.FlagSet) {
	f.IntSliceVar(&o.ways, "ways", o.ways,
		"Way associativities to simulate, in order")
	f.IntVar(&o.cacheSize, "cache-size", o.cacheSize,
		"Cache capacity in elements")
	f.IntVar(&o.blockSize, "block-size", o.blockSize,
		"Block size in elements")
	f.IntVar(&o.prefetchDistance, "prefetch", o.prefetchDistance,
		"Number of blocks probed after a miss, 0 disables prefetching")
	f.IntVar(&o.numElements, "elements", o.numElements,
		"Number of accesses per run")
	f.StringVar(&o.pattern, "pattern", o.pattern,
		"Access pattern: sequential, uniform or hotcold")
	f.Float64Var(&o.hotProb, "hot-prob", o.hotProb,
		"Probability of accessing a hot block (hotcold pattern)")
	f.IntVar(&o.bands, "bands", o.bands,
		"Number of address bands (uniform pattern)")
	f.Int64Var(&o.seed, "seed", o.seed,
		"Random seed, 0 picks one from the clock")
	f.StringVar(&o.record, "record", o.record,
		"Record the results into <record>.sqlite3")
	f.BoolVar(&o.monitor, "monitor", o.monitor,
		"Serve progress and results over HTTP")
	f.IntVar(&o.monitorPort, "monitor-port", o.monitorPort,
		"Port of the monitoring server, 0 picks a random port")
	f.BoolVar(&o.openBrowser, "open-browser", o.openBrowser,
		"Open the monitoring server in a browser")
	f.BoolVar(&o.hold, "hold", o.hold,
		"Keep the monitoring server running until interrupted")
	f.StringVar(&o.storeConfig, "store-config", o.storeConfig,
		"Path of the storage emulation descriptor")
	f.BoolVar(&o.verbose, "verbose", o.verbose, "Log debug messages")
}

func envName(flagName string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// loadEnvironment loads the env file, then gives every flag that is not set
// on the command line the value of its environment variable. Variables that
// are already set win over the env file.
func loadEnvironment(flags *pflag.FlagSet, envFile string) error {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var errs []error

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "env-file" {
			return
		}

		value, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}

		if err := f.Value.Set(value); err != nil {
			errs = append(errs,
				fmt.Errorf("invalid %s=%q: %w", envName(f.Name), value, err))
		}
	})

	return errors.Join(errs...)
}

func (o *options) simulationBuilder() (simulation.Builder, error) {
	kind, err := pattern.ParseKind(o.pattern)
	if err != nil {
		return simulation.Builder{}, err
	}

	if !o.monitor && (o.monitorPort != 0 || o.openBrowser || o.hold) {
		return simulation.Builder{}, errors.New(
			"--monitor-port, --open-browser and --hold require --monitor")
	}

	return simulation.MakeBuilder().
		WithAssociativities(o.ways...).
		WithCacheSize(o.cacheSize).
		WithBlockSize(o.blockSize).
		WithPrefetchDistance(o.prefetchDistance).
		WithNumElements(o.numElements).
		WithPattern(kind).
		WithHotAccessProb(o.hotProb).
		WithBands(o.bands).
		WithSeed(o.seed), nil
}
