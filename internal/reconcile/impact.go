package reconcile

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"configSync/internal/contracts"
	"configSync/internal/market"
	"configSync/internal/model"
	"configSync/internal/multicall"
)

const (
	// CommandImpact names plans produced by ImpactReconciler.
	CommandImpact = "impact"

	fieldDistributionRate = "positionImpactPoolDistributionRate"
	fieldMinPoolAmount    = "minPositionImpactPoolAmount"

	// each market reads its distribution rate then its pool floor
	impactStride    = 2
	slotRate        = 0
	slotMinPoolAmnt = 1
)

// ImpactReconciler diffs declared position impact pool distribution settings
// against the DataStore and plans setPositionImpactDistributionRate calls.
type ImpactReconciler struct {
	tokens    *market.TokenTable
	reader    market.Aggregator
	dataStore common.Address
	logger    *zap.Logger
}

// NewImpactReconciler builds an ImpactReconciler.
func NewImpactReconciler(tokens *market.TokenTable, reader market.Aggregator, dataStore common.Address, logger *zap.Logger) *ImpactReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImpactReconciler{tokens: tokens, reader: reader, dataStore: dataStore, logger: logger}
}

type impactTarget struct {
	resolved market.Resolved
	onchain  model.OnchainMarket
	label    string
}

// Reconcile reads current values for every declared market that exists on
// chain in one batch and plans one write per market whose values differ.
// Markets are processed in declaration order.
func (r *ImpactReconciler) Reconcile(ctx context.Context, descriptors []model.MarketDescriptor, onchain map[model.MarketKey]model.OnchainMarket) (model.Plan, error) {
	plan := model.Plan{Command: CommandImpact}
	if r.tokens == nil {
		return plan, fmt.Errorf("token table is nil")
	}
	if r.reader == nil {
		return plan, fmt.Errorf("reader is nil")
	}

	resolved, err := r.tokens.ResolveAll(descriptors)
	if err != nil {
		return plan, err
	}

	batch := multicall.NewBatch(impactStride)
	targets := make([]impactTarget, 0, len(resolved))
	for _, m := range resolved {
		label := r.tokens.Label(m)
		om, ok := onchain[m.Key]
		if !ok {
			r.logger.Warn("onchain market does not exist",
				zap.String("key", string(m.Key)),
				zap.String("market", label),
			)
			plan.Skipped = append(plan.Skipped, model.SkippedTarget{Target: label, Reason: "onchain market does not exist"})
			continue
		}

		rateCall, err := r.getUint(contracts.PositionImpactPoolDistributionRateKey(om.MarketToken), label+" "+fieldDistributionRate)
		if err != nil {
			return plan, err
		}
		minCall, err := r.getUint(contracts.MinPositionImpactPoolAmountKey(om.MarketToken), label+" "+fieldMinPoolAmount)
		if err != nil {
			return plan, err
		}
		if _, err := batch.Add(rateCall, minCall); err != nil {
			return plan, err
		}
		targets = append(targets, impactTarget{resolved: m, onchain: om, label: label})
	}

	if batch.Owners() == 0 {
		return plan, nil
	}

	results, err := r.reader.Aggregate(ctx, batch.Calls())
	if err != nil {
		return plan, fmt.Errorf("read impact config: %w", err)
	}

	for i, t := range targets {
		impact := t.resolved.Descriptor.Impact
		switch impact.Presence() {
		case model.PresenceNone:
			r.logger.Debug("impact fields not declared", zap.String("market", t.label))
			continue
		case model.PresencePartial:
			r.logger.Warn("only one of impact fields is set",
				zap.String("market", t.label),
				zap.String("market_token", t.onchain.MarketToken.Hex()),
				zap.Stringer(fieldDistributionRate, bigOrNil(impact.DistributionRate)),
				zap.Stringer(fieldMinPoolAmount, bigOrNil(impact.MinPoolAmount)),
			)
			plan.Skipped = append(plan.Skipped, model.SkippedTarget{Target: t.label, Reason: "only one of impact fields is set"})
			continue
		}

		currentRate, err := r.slotUint(batch, results, i, slotRate)
		if err != nil {
			return plan, fmt.Errorf("%s %s: %w", t.label, fieldDistributionRate, err)
		}
		currentMin, err := r.slotUint(batch, results, i, slotMinPoolAmnt)
		if err != nil {
			return plan, fmt.Errorf("%s %s: %w", t.label, fieldMinPoolAmount, err)
		}

		decimals := int32(r.tokens.DisplayDecimals(t.resolved))
		changed := false

		if currentRate.Cmp(impact.DistributionRate) != 0 {
			changed = true
			ratio, ok := ChangeRatio(currentRate, impact.DistributionRate)
			plan.Changes = append(plan.Changes, r.logChange(model.FieldChange{
				Target:  t.label,
				Field:   fieldDistributionRate,
				Current: FormatAmount(perDay(currentRate), floatPrecision+decimals, 4) + "/day",
				Next:    FormatAmount(perDay(impact.DistributionRate), floatPrecision+decimals, 4) + "/day",
				Ratio:   FormatRatio(ratio, ok),
			}))
		}

		if currentMin.Cmp(impact.MinPoolAmount) != 0 {
			changed = true
			ratio, ok := ChangeRatio(currentMin, impact.MinPoolAmount)
			plan.Changes = append(plan.Changes, r.logChange(model.FieldChange{
				Target:  t.label,
				Field:   fieldMinPoolAmount,
				Current: FormatAmount(currentMin, decimals, 2),
				Next:    FormatAmount(impact.MinPoolAmount, decimals, 2),
				Ratio:   FormatRatio(ratio, ok),
			}))
		}

		if !changed {
			continue
		}

		// the rate and the floor are always written together
		data, err := contracts.EncodeSetPositionImpactDistributionRate(t.onchain.MarketToken, impact.MinPoolAmount, impact.DistributionRate)
		if err != nil {
			return plan, fmt.Errorf("%s: %w", t.label, err)
		}
		plan.Writes = append(plan.Writes, model.PendingWrite{
			Target:   t.label,
			Method:   "setPositionImpactDistributionRate",
			CallData: data,
			Description: fmt.Sprintf("setPositionImpactDistributionRate(%s, %s=%s, %s=%s)",
				t.onchain.MarketToken.Hex(),
				fieldMinPoolAmount, impact.MinPoolAmount,
				fieldDistributionRate, impact.DistributionRate,
			),
		})
	}

	return plan, nil
}

func (r *ImpactReconciler) getUint(key common.Hash, label string) (multicall.Call, error) {
	data, err := contracts.EncodeGetUint(key)
	if err != nil {
		return multicall.Call{}, err
	}
	return multicall.Call{Target: r.dataStore, CallData: data, Label: label}, nil
}

func (r *ImpactReconciler) slotUint(batch *multicall.Batch, results [][]byte, owner, field int) (*big.Int, error) {
	raw, err := batch.Slot(results, owner, field)
	if err != nil {
		return nil, err
	}
	return contracts.DecodeUint(raw)
}

func (r *ImpactReconciler) logChange(change model.FieldChange) model.FieldChange {
	logChange(r.logger, change)
	return change
}

func logChange(logger *zap.Logger, change model.FieldChange) {
	logger.Info("config change",
		zap.String("target", change.Target),
		zap.String("field", change.Field),
		zap.String("current", change.Current),
		zap.String("next", change.Next),
		zap.String("ratio", change.Ratio),
	)
}

type bigStringer struct{ v *big.Int }

func (b bigStringer) String() string {
	if b.v == nil {
		return "<unset>"
	}
	return b.v.String()
}

func bigOrNil(v *big.Int) bigStringer {
	return bigStringer{v: v}
}
