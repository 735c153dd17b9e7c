package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/blockstore"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/simulation"
)

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger
}

func run(cmd *cobra.Command, o *options) (err error) {
	logger := newLogger(cmd.ErrOrStderr(), o.verbose)

	builder, err := o.simulationBuilder()
	if err != nil {
		return err
	}

	emulation := blockstore.DefaultEmulationConfig()
	emulation.Path = o.storeConfig

	if err := emulation.Write(); err != nil {
		return err
	}

	defer func() {
		if rmErr := emulation.Remove(); rmErr != nil {
			logger.WithError(rmErr).Warn("cannot remove storage descriptor")
		}
	}()

	builder = builder.WithLogger(logrus.NewEntry(logger))

	var (
		recorder *datarecording.SQLiteRecorder
		exec     *datarecording.ExecRecorder
	)

	if o.record != "" {
		recorder, exec, err = openRecorder(o.record)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, exec.Finish(), recorder.Close())
		}()

		builder = builder.WithDataRecorder(recorder)
	}

	if o.monitor {
		monitor, err := startMonitor(o, logger)
		if err != nil {
			return err
		}

		builder = builder.WithMonitor(monitor)
	}

	sim, err := builder.Build()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Seed %d\n", sim.Seed())

	if exec != nil {
		exec.AddProperty("Seed", strconv.FormatInt(sim.Seed(), 10))
		exec.AddProperty("Simulation ID", sim.ID())
	}

	runErr := printReports(cmd.OutOrStdout(), sim)

	if o.hold {
		waitForInterrupt(cmd.Context(), logger)
	}

	return runErr
}

func openRecorder(
	path string,
) (*datarecording.SQLiteRecorder, *datarecording.ExecRecorder, error) {
	recorder, err := datarecording.NewSQLiteRecorder(path)
	if err != nil {
		return nil, nil, err
	}

	exec, err := datarecording.NewExecRecorder(recorder)
	if err != nil {
		return nil, nil, errors.Join(err, recorder.Close())
	}

	exec.Start()

	return recorder, exec, nil
}

func startMonitor(
	o *options,
	logger *logrus.Logger,
) (*monitoring.Monitor, error) {
	monitor := monitoring.NewMonitor()
	if o.monitorPort != 0 {
		monitor.WithPortNumber(o.monitorPort)
	}

	url, err := monitor.StartServer()
	if err != nil {
		return nil, err
	}

	if o.openBrowser {
		if err := monitoring.OpenInBrowser(url); err != nil {
			logger.WithError(err).Warn("cannot open browser")
		}
	}

	return monitor, nil
}

func printReports(w io.Writer, sim *simulation.Simulator) error {
	if err := simulation.WriteBanner(w); err != nil {
		return err
	}

	reports, runErr := sim.Run()

	for _, r := range reports {
		if err := simulation.WriteText(w, r); err != nil {
			return errors.Join(runErr, err)
		}
	}

	return runErr
}

func waitForInterrupt(ctx context.Context, logger *logrus.Logger) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger.Info("simulation finished, press Ctrl-C to stop monitoring")
	<-ctx.Done()
}
