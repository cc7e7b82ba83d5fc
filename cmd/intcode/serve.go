package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/colorfulnotion/intcode/server"
	"github.com/colorfulnotion/intcode/storage"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve machines over a websocket at /ws",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Server.Listen = listen
			}
			ps, err := storage.NewPersistenceStore(a.cfg.Storage.DataDir)
			if err != nil {
				return err
			}
			defer ps.Close()

			srv := server.New(server.Config{
				Listen:         a.cfg.Server.Listen,
				ReadLimit:      a.cfg.Server.ReadLimit,
				StepBudget:     a.cfg.Machine.StepBudget,
				MemoryLimit:    a.cfg.Machine.MemoryLimit,
				MachineOptions: a.machineOptions(),
			}, storage.NewSnapshotStore(ps), storage.NewProgramStore(ps))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides [server] listen)")
	return cmd
}
