package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"configSync/internal/market"
	"configSync/internal/reconcile"
)

func runImpact(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.cfg.Reader == (common.Address{}) {
		return fmt.Errorf("reader address is required")
	}

	directory := market.NewDirectory(market.DirectoryConfig{
		Reader:       s.cfg.Reader,
		DataStore:    s.cfg.DataStore,
		PageSize:     s.cfg.MarketsPageSize,
		MaxRetries:   s.cfg.MaxRetries,
		RetryBackoff: s.cfg.RetryBackoff,
	}, s.client, s.logger)

	onchain, err := directory.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	reconciler := reconcile.NewImpactReconciler(s.tokens, s.reader, s.cfg.DataStore, s.logger)
	plan, err := reconciler.Reconcile(ctx, s.network.Markets, onchain)
	if err != nil {
		return err
	}

	s.logger.Info("impact plan ready",
		zap.Int("changes", len(plan.Changes)),
		zap.Int("writes", len(plan.Writes)),
		zap.Int("skipped", len(plan.Skipped)),
	)
	return s.finish(ctx, cmd, plan)
}
