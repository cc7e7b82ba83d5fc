package main

import (
	"fmt"
	"io"
	"os"

	"github.com/colorfulnotion/intcode/compare"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/profile"
	"github.com/spf13/cobra"
)

func loadWithInputs(path, inputs string) (intcode.Program, []int64, error) {
	prog, err := intcode.LoadProgram(path)
	if err != nil {
		return nil, nil, err
	}
	in, err := intcode.ParseInputs(inputs)
	if err != nil {
		return nil, nil, err
	}
	return prog, in, nil
}

func writeOutputs(w io.Writer, outputs []int64, ascii bool) {
	for _, v := range outputs {
		if ascii && v >= 0 && v < 128 {
			fmt.Fprintf(w, "%c", rune(v))
		} else {
			fmt.Fprintf(w, "%d\n", v)
		}
	}
}

func newRunCmd(a *app) *cobra.Command {
	var inputs string
	var ascii bool
	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a program with scripted input and print its outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, in, err := loadWithInputs(args[0], inputs)
			if err != nil {
				return err
			}
			res, err := intcode.Run(prog, in, a.machineOptions()...)
			out := cmd.OutOrStdout()
			writeOutputs(out, res.Outputs, ascii)
			if err != nil {
				return fmt.Errorf("after %d steps: %w", res.Steps, err)
			}
			fmt.Fprintf(out, "halt %d (%d steps)\n", res.Halt, res.Steps)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputs, "input", "i", "", "comma separated input values")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "print outputs below 128 as characters")
	return cmd
}

func newDisasmCmd(a *app) *cobra.Command {
	var tree bool
	cmd := &cobra.Command{
		Use:   "disasm <program>",
		Short: "Disassemble a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			if tree {
				fmt.Fprintln(cmd.OutOrStdout(), intcode.ControlFlowTree(args[0], intcode.BasicBlocks(prog)).String())
				return nil
			}
			return intcode.WriteListing(cmd.OutOrStdout(), intcode.Disassemble(prog))
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "show basic blocks as a tree")
	return cmd
}

func newTraceCmd(a *app) *cobra.Command {
	var inputs, outPath string
	cmd := &cobra.Command{
		Use:   "trace <program>",
		Short: "Run a program and write every executed instruction as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, in, err := loadWithInputs(args[0], inputs)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			tracer := intcode.NewJSONTracer(w)
			_, err = intcode.Run(prog, in, append(a.machineOptions(), intcode.WithTracer(tracer))...)
			if terr := tracer.Err(); terr != nil {
				return terr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&inputs, "input", "i", "", "comma separated input values")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the trace to a file instead of stdout")
	return cmd
}

type tracedRun struct {
	steps []intcode.StepRecord
	snap  intcode.Snapshot
	err   error
}

func traceRun(prog intcode.Program, in []int64, opts []intcode.Option) tracedRun {
	rec := &intcode.RecordingTracer{}
	m := intcode.New(prog, append(opts, intcode.WithTracer(rec))...)
	_, err := intcode.RunWithProvider(m, intcode.ScriptedInput(in...))
	return tracedRun{steps: rec.Records(), snap: m.Snapshot(), err: err}
}

func newDiffCmd(a *app) *cobra.Command {
	var inputs string
	cmd := &cobra.Command{
		Use:   "diff <program-a> <program-b>",
		Short: "Run two programs on the same input and report where their executions diverge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			progA, in, err := loadWithInputs(args[0], inputs)
			if err != nil {
				return err
			}
			progB, err := intcode.LoadProgram(args[1])
			if err != nil {
				return err
			}
			ra := traceRun(progA, in, a.machineOptions())
			rb := traceRun(progB, in, a.machineOptions())
			out := cmd.OutOrStdout()

			report, err := compare.Traces(ra.steps, rb.steps)
			if err != nil {
				return err
			}
			if report.Match {
				fmt.Fprintf(out, "traces match (%d steps)\n", report.LeftSteps)
			} else {
				fmt.Fprintf(out, "traces diverge at step %d (%d vs %d steps)\n", report.FirstDivergence, report.LeftSteps, report.RightSteps)
				fmt.Fprintln(out, report.Diff)
			}
			match, desc, err := compare.Snapshots(ra.snap, rb.snap)
			if err != nil {
				return err
			}
			if match {
				fmt.Fprintln(out, "final states match")
			} else {
				fmt.Fprintln(out, "final states differ:")
				fmt.Fprintln(out, desc)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputs, "input", "i", "", "comma separated input values")
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	var inputs, outPath string
	cmd := &cobra.Command{
		Use:   "profile <program>",
		Short: "Count executed opcodes and addresses, optionally charting them as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, in, err := loadWithInputs(args[0], inputs)
			if err != nil {
				return err
			}
			c := profile.NewCollector()
			_, runErr := intcode.Run(prog, in, append(a.machineOptions(), intcode.WithTracer(c))...)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d instructions\n", c.Total())
			for _, e := range c.Summary() {
				fmt.Fprintf(out, "%-5s %10d\n", e.Name, e.Count)
			}
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := c.Render(f, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "chart written to %s\n", outPath)
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&inputs, "input", "i", "", "comma separated input values")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write an HTML chart to this file")
	return cmd
}
