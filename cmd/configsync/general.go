package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"configSync/internal/reconcile"
)

func runGeneral(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	plan, err := reconcile.NewGeneralReconciler(s.reader, s.cfg.DataStore, s.logger).Reconcile(ctx, s.network.General)
	if err != nil {
		return err
	}

	s.logger.Info("general plan ready", zap.Int("changes", len(plan.Changes)), zap.Int("writes", len(plan.Writes)))
	return s.finish(ctx, cmd, plan)
}
