// intcode runs, inspects and serves Intcode programs.
package main

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/intcode/common"
	"github.com/colorfulnotion/intcode/config"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

type app struct {
	cfg *config.Config

	configPath string
	logLevel   string
	logModules string
	stepBudget uint64
}

func (a *app) machineOptions() []intcode.Option {
	return a.cfg.MachineOptions()
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		a.cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-modules") {
		a.cfg.Log.Modules = a.logModules
	}
	if flags.Changed("step-budget") {
		a.cfg.Machine.StepBudget = a.stepBudget
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if err := log.Configure(a.cfg.Log.Level, a.cfg.Log.Format, a.cfg.Log.Syslog); err != nil {
		return err
	}
	if a.cfg.Log.Modules != "" {
		log.EnableModules(a.cfg.Log.Modules)
	}
	intcode.IntcodeTrace = a.cfg.Machine.Trace
	log.Debug(log.CLIMonitoring, "configured", "config", a.cfg.Path, "command", cmd.Name())
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "intcode",
		Short:         "Intcode virtual machine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: nearest intcode.toml)")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error, crit")
	pf.StringVar(&a.logModules, "log-modules", "", "comma separated log modules to enable, or \"all\"")
	pf.Uint64Var(&a.stepBudget, "step-budget", 0, "maximum instructions per machine, 0 for unlimited")

	rootCmd.AddCommand(
		newRunCmd(a),
		newDisasmCmd(a),
		newTraceCmd(a),
		newDiffCmd(a),
		newProfileCmd(a),
		newPipelineCmd(a),
		newConsoleCmd(a),
		newServeCmd(a),
		newSnapshotCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "intcode %s (commit %s, built %s)\n", Version, common.GetCommitHash(), BuildTime)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
