package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/simulation"
)

func newRunsCommand() *cobra.Command {
	var simulationID string

	runsCmd := &cobra.Command{
		Use:   "runs <database>",
		Short: "List the runs recorded in a database written with --record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd, args[0], simulationID)
		},
	}

	runsCmd.Flags().StringVar(&simulationID, "simulation", "",
		"Only list the runs of this simulation")

	return runsCmd
}

func listRuns(cmd *cobra.Command, filename, simulationID string) error {
	reader, err := datarecording.NewReader(filename)
	if err != nil {
		return err
	}
	defer reader.Close()

	err = reader.MapTable(simulation.RunTableName, simulation.RunRecord{})
	if err != nil {
		return err
	}

	params := datarecording.QueryParams{OrderBy: "rowid"}
	if simulationID != "" {
		params.Where = "SimulationID = ?"
		params.Args = []any{simulationID}
	}

	records, _, err := reader.Query(cmd.Context(),
		simulation.RunTableName, params)
	if err != nil {
		return err
	}

	return writeRuns(cmd.OutOrStdout(), records)
}

func writeRuns(w io.Writer, records []any) error {
	_, err := fmt.Fprintf(w, "%-20s %4s %-28s %10s %10s %10s %9s %9s\n",
		"SIMULATION", "WAYS", "PATTERN", "HITS", "MISSES", "PREFETCH",
		"HIT", "EFFECTIVE")
	if err != nil {
		return err
	}

	for _, rec := range records {
		r := rec.(simulation.RunRecord)

		_, err := fmt.Fprintf(w, "%-20s %4d %-28s %10d %10d %10d %8.2f%% %8.2f%%\n",
			r.SimulationID, r.Associativity, r.Pattern,
			r.Hits, r.Misses, r.PrefetchHits,
			r.HitRate*100, r.EffectiveHitRate*100)
		if err != nil {
			return err
		}
	}

	return nil
}
