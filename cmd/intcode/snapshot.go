package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/storage"
	"github.com/spf13/cobra"
)

func (a *app) openSnapshots() (*storage.PersistenceStore, *storage.SnapshotStore, error) {
	ps, err := storage.NewPersistenceStore(a.cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return ps, storage.NewSnapshotStore(ps), nil
}

// advance feeds inputs until the machine halts or wants more input than given.
func advance(m *intcode.Machine, inputs []int64) ([]int64, error) {
	var outputs []int64
	var pending *int64
	for m.State() != intcode.Halted {
		r, err := m.Resume(pending)
		pending = nil
		if err != nil {
			return outputs, err
		}
		switch r.Kind {
		case intcode.Output:
			outputs = append(outputs, r.Value)
		case intcode.InputRequired:
			if len(inputs) == 0 {
				return outputs, nil
			}
			v := inputs[0]
			inputs = inputs[1:]
			pending = &v
		}
	}
	return outputs, nil
}

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, resume, list and remove machine snapshots",
	}

	var saveInputs string
	saveCmd := &cobra.Command{
		Use:   "save <name> <program>",
		Short: "Run a program until it needs more input, then save its state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, in, err := loadWithInputs(args[1], saveInputs)
			if err != nil {
				return err
			}
			m := intcode.New(prog, a.machineOptions()...)
			outputs, err := advance(m, in)
			writeOutputs(cmd.OutOrStdout(), outputs, false)
			if err != nil {
				return err
			}
			ps, snaps, err := a.openSnapshots()
			if err != nil {
				return err
			}
			defer ps.Close()
			if err := snaps.SaveWithProgram(args[0], m.Snapshot(), prog); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s at pc %d (%s, %d steps)\n", args[0], m.PC(), m.State(), m.Steps())
			return nil
		},
	}
	saveCmd.Flags().StringVarP(&saveInputs, "input", "i", "", "comma separated input values")

	var loadInputs, saveAs string
	loadCmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Restore a snapshot and continue it with more input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := intcode.ParseInputs(loadInputs)
			if err != nil {
				return err
			}
			ps, snaps, err := a.openSnapshots()
			if err != nil {
				return err
			}
			defer ps.Close()
			snap, err := snaps.Load(args[0])
			if err != nil {
				return err
			}
			m, err := intcode.Restore(snap, a.machineOptions()...)
			if err != nil {
				return err
			}
			outputs, err := advance(m, in)
			out := cmd.OutOrStdout()
			writeOutputs(out, outputs, false)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s at pc %d (%d steps)\n", m.State(), m.PC(), m.Steps())
			if saveAs != "" {
				if err := snaps.Save(saveAs, m.Snapshot()); err != nil {
					return err
				}
				fmt.Fprintf(out, "saved %s\n", saveAs)
			}
			return nil
		},
	}
	loadCmd.Flags().StringVarP(&loadInputs, "input", "i", "", "comma separated input values")
	loadCmd.Flags().StringVar(&saveAs, "save-as", "", "save the resulting state under this name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, snaps, err := a.openSnapshots()
			if err != nil {
				return err
			}
			defer ps.Close()
			infos, err := snaps.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTATE\tPC\tSTEPS\tMEMORY\tPROGRAM")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", info.Name, info.State, info.PC, info.Steps, info.MemoryLen, info.ProgramHash.String_short())
			}
			return tw.Flush()
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <name>...",
		Short: "Remove snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, snaps, err := a.openSnapshots()
			if err != nil {
				return err
			}
			defer ps.Close()
			for _, name := range args {
				if err := snaps.Delete(name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(saveCmd, loadCmd, listCmd, rmCmd)
	return cmd
}
