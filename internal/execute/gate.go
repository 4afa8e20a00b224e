package execute

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"configSync/internal/model"
)

// Confirmer decides whether a rendered plan should be submitted.
type Confirmer func(plan model.Plan) (bool, error)

// Submitter sends every call of a plan as one atomic transaction.
type Submitter interface {
	Submit(ctx context.Context, calls [][]byte) (common.Hash, error)
}

// Result is the gate decision and, when submitted, the transaction hash.
type Result struct {
	Outcome model.Outcome
	TxHash  common.Hash
}

// Gate decides between no-op, override submit and operator confirmation.
type Gate struct {
	// Write submits without asking.
	Write     bool
	Confirm   Confirmer
	Submitter Submitter
	Out       io.Writer
	Logger    *zap.Logger
}

// Execute applies the gate to plan. Declining is not an error.
func (g *Gate) Execute(ctx context.Context, plan model.Plan) (Result, error) {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if plan.Empty() {
		logger.Info("no changes")
		return Result{Outcome: model.OutcomeNoChanges}, nil
	}

	if !g.Write && g.Confirm == nil {
		return Result{}, fmt.Errorf("no confirmer configured and write override not set")
	}

	// the plan is shown whether or not the operator is asked
	if g.Out != nil {
		if err := RenderPlan(g.Out, plan); err != nil {
			return Result{}, fmt.Errorf("render plan: %w", err)
		}
	}

	if !g.Write {
		ok, err := g.Confirm(plan)
		if err != nil {
			return Result{}, fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			logger.Info("NOTE: executed in read-only mode, no transactions were sent", zap.Int("writes", len(plan.Writes)))
			return Result{Outcome: model.OutcomeDeclined}, nil
		}
	}

	if g.Submitter == nil {
		return Result{}, fmt.Errorf("no submitter configured")
	}

	logger.Info("submitting config multicall", zap.String("command", plan.Command), zap.Int("writes", len(plan.Writes)))
	hash, err := g.Submitter.Submit(ctx, plan.CallData())
	if err != nil {
		return Result{}, fmt.Errorf("submit %d writes: %w", len(plan.Writes), err)
	}
	logger.Info("config multicall mined", zap.String("tx", hash.Hex()))
	return Result{Outcome: model.OutcomeSubmitted, TxHash: hash}, nil
}

// RenderPlan writes the pending changes and writes in plan order.
func RenderPlan(w io.Writer, plan model.Plan) error {
	for _, s := range plan.Skipped {
		if _, err := fmt.Fprintf(w, "skipped   %s: %s\n", s.Target, s.Reason); err != nil {
			return err
		}
	}
	for _, c := range plan.Changes {
		if _, err := fmt.Fprintln(w, c.String()); err != nil {
			return err
		}
	}
	for i, write := range plan.Writes {
		if _, err := fmt.Fprintf(w, "%3d. %s\n", i+1, write.Description); err != nil {
			return err
		}
	}
	return nil
}
