package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/intcode/console"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/spf13/cobra"
)

func newConsoleCmd(a *app) *cobra.Command {
	var ascii bool
	cmd := &cobra.Command{
		Use:   "console <program>",
		Short: "Drive a program interactively (':js <expr>' scripts the session)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			rl, err := readline.NewEx(&readline.Config{
				Prompt:      a.cfg.Console.Prompt,
				HistoryFile: a.cfg.Console.HistoryFile,
				Stdout:      cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("failed to start readline: %w", err)
			}
			defer rl.Close()
			return runConsole(console.New(prog, rl.Stdout(), ascii, a.machineOptions()...), rl.Readline, rl.Stdout())
		},
	}
	cmd.Flags().BoolVar(&ascii, "ascii", false, "send lines as characters and print character output")
	return cmd
}

// runConsole reads lines until the program halts, the user quits or input ends.
func runConsole(s *console.Session, readLine func() (string, error), out io.Writer) error {
	if err := s.Drive(); err != nil {
		return err
	}
	for !s.Halted() {
		line, err := readLine()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		quit, err := s.Eval(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
	return nil
}
