package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"configSync/internal/chain"
	"configSync/internal/config"
	"configSync/internal/execute"
	"configSync/internal/market"
	"configSync/internal/model"
	"configSync/internal/multicall"
	"configSync/internal/storage"
	"configSync/internal/storage/postgres"
)

// session holds what every reconciliation command shares.
type session struct {
	cfg       config.Config
	network   config.Network
	logger    *zap.Logger
	client    *chain.Client
	chainID   *big.Int
	reader    *multicall.Reader
	tokens    *market.TokenTable
	startedAt time.Time

	// submitter overrides the keyed transactor.
	submitter execute.Submitter
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	network, err := config.LoadNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}

	reader := multicall.NewReader(client, cfg.Multicall, logger)
	tokens, err := market.LoadTokenTable(ctx, reader, network.Tokens, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("session start",
		zap.String("command", cmd.Name()),
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("network", cfg.Network),
		zap.String("data_store", cfg.DataStore.Hex()),
		zap.Int("tokens", len(network.Tokens)),
		zap.Int("markets", len(network.Markets)),
		zap.Bool("write", cfg.Write),
	)

	return &session{
		cfg:       cfg,
		network:   network,
		logger:    logger,
		client:    client,
		chainID:   chainID,
		reader:    reader,
		tokens:    tokens,
		startedAt: time.Now().UTC(),
	}, nil
}

func (s *session) Close() {
	s.client.Close()
	_ = s.logger.Sync()
}

// finish saves the plan, runs the gate and records the run.
func (s *session) finish(ctx context.Context, cmd *cobra.Command, plan model.Plan) error {
	if s.cfg.PlanOut != "" {
		if err := storage.NewPlanFile(s.cfg.PlanOut).Save(s.chainID.Uint64(), plan); err != nil {
			return err
		}
		s.logger.Info("plan saved", zap.String("path", s.cfg.PlanOut))
	}

	submitter := s.submitter
	if submitter == nil {
		submitter = &deferredSubmitter{build: s.newTransactor}
	}

	gate := &execute.Gate{
		Write:     s.cfg.Write,
		Confirm:   execute.PromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout()),
		Submitter: submitter,
		Out:       cmd.OutOrStdout(),
		Logger:    s.logger,
	}

	result, gateErr := gate.Execute(ctx, plan)

	run := model.RunRecord{
		ID:         uuid.NewString(),
		Command:    plan.Command,
		ChainID:    s.chainID.Uint64(),
		Outcome:    result.Outcome,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now().UTC(),
		Changes:    plan.Changes,
		Writes:     plan.Writes,
	}
	if result.Outcome == model.OutcomeSubmitted {
		run.TxHash = result.TxHash.Hex()
	}
	if gateErr != nil {
		run.Outcome = model.OutcomeFailed
		run.Error = gateErr.Error()
	}

	if err := s.record(ctx, run); err != nil {
		s.logger.Error("record run", zap.String("run_id", run.ID), zap.Error(err))
	}

	if gateErr != nil {
		return gateErr
	}

	switch result.Outcome {
	case model.OutcomeDeclined:
		fmt.Fprintln(cmd.OutOrStdout(), "NOTE: executed in read-only mode, no transactions were sent")
	case model.OutcomeSubmitted:
		fmt.Fprintf(cmd.OutOrStdout(), "submitted %d writes in %s\n", len(plan.Writes), run.TxHash)
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "no changes")
	}
	return nil
}

func (s *session) record(ctx context.Context, run model.RunRecord) error {
	var sinks storage.MultiSink
	if s.cfg.AuditLog != "" {
		sinks = append(sinks, storage.NewJsonlSink(s.cfg.AuditLog))
	}
	if s.cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, s.cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}
	return sinks.PutRun(ctx, run)
}

func (s *session) newTransactor() (execute.Submitter, error) {
	if err := s.cfg.ValidateWrite(); err != nil {
		return nil, err
	}
	return chain.NewTransactor(s.client.Eth(), s.cfg.ConfigContract, s.cfg.PrivateKey, s.chainID, s.logger)
}

// deferredSubmitter builds the signer only once a submission is confirmed,
// so dry runs need no key.
type deferredSubmitter struct {
	build func() (execute.Submitter, error)

	once      sync.Once
	submitter execute.Submitter
	err       error
}

func (d *deferredSubmitter) Submit(ctx context.Context, calls [][]byte) (common.Hash, error) {
	d.once.Do(func() {
		d.submitter, d.err = d.build()
	})
	if d.err != nil {
		return common.Hash{}, d.err
	}
	return d.submitter.Submit(ctx, calls)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
