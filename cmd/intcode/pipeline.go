package main

import (
	"fmt"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/pipeline"
	"github.com/spf13/cobra"
)

func newPipelineCmd(a *app) *cobra.Command {
	var phases string
	var feedback, search bool
	var signal int64
	cmd := &cobra.Command{
		Use:   "pipeline <program>",
		Short: "Chain copies of a program, one per phase setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, ph, err := loadWithInputs(args[0], phases)
			if err != nil {
				return err
			}
			if len(ph) == 0 {
				return fmt.Errorf("--phases is required")
			}
			out := cmd.OutOrStdout()
			if search {
				best, err := pipeline.MaxSignal(cmd.Context(), prog, ph, feedback, a.machineOptions()...)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "max signal %d with phases %s (%d orderings)\n", best.Signal, intcode.Program(best.Phases), best.Tried)
				return nil
			}
			p := pipeline.New(prog, ph, a.machineOptions()...)
			var result int64
			if feedback {
				result, err = p.RunFeedback(signal)
			} else {
				result, err = p.RunSeries(signal)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "signal %d\n", result)
			return nil
		},
	}
	cmd.Flags().StringVar(&phases, "phases", "", "comma separated phase settings, one per stage")
	cmd.Flags().BoolVar(&feedback, "feedback", false, "loop the last stage back into the first")
	cmd.Flags().BoolVar(&search, "search", false, "try every ordering of the phases and report the best")
	cmd.Flags().Int64Var(&signal, "signal", 0, "initial input signal")
	return cmd
}
