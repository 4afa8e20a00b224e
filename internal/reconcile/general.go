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

// CommandGeneral names plans produced by GeneralReconciler.
const CommandGeneral = "general"

type settingKind int

const (
	kindUint settingKind = iota
	kindBool
	kindAddress
)

// setting is one declared protocol-wide value keyed directly by its base key.
type setting struct {
	name     string
	key      common.Hash
	kind     settingKind
	decimals int32

	uintValue    *big.Int
	boolValue    bool
	addressValue common.Address
}

// GeneralReconciler diffs declared protocol-wide settings against the DataStore.
type GeneralReconciler struct {
	reader    market.Aggregator
	dataStore common.Address
	logger    *zap.Logger
}

// NewGeneralReconciler builds a GeneralReconciler reading through reader.
func NewGeneralReconciler(reader market.Aggregator, dataStore common.Address, logger *zap.Logger) *GeneralReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneralReconciler{reader: reader, dataStore: dataStore, logger: logger}
}

func declaredSettings(s model.GeneralSettings) []setting {
	var out []setting
	if s.FeeReceiver != nil {
		out = append(out, setting{name: "feeReceiver", key: contracts.FeeReceiver, kind: kindAddress, addressValue: *s.FeeReceiver})
	}
	if s.HoldingAddress != nil {
		out = append(out, setting{name: "holdingAddress", key: contracts.HoldingAddress, kind: kindAddress, addressValue: *s.HoldingAddress})
	}
	if s.BorrowingFeeReceiverFactor != nil {
		out = append(out, setting{name: "borrowingFeeReceiverFactor", key: contracts.BorrowingFeeReceiverFactor, kind: kindUint, decimals: floatPrecision, uintValue: s.BorrowingFeeReceiverFactor})
	}
	if s.SkipBorrowingFeeForSmallerSide != nil {
		out = append(out, setting{name: "skipBorrowingFeeForSmallerSide", key: contracts.SkipBorrowingFeeForSmallerSide, kind: kindBool, boolValue: *s.SkipBorrowingFeeForSmallerSide})
	}
	if s.ClaimableCollateralTimeDivisor != nil {
		out = append(out, setting{name: "claimableCollateralTimeDivisor", key: contracts.ClaimableCollateralTimeDivisor, kind: kindUint, uintValue: s.ClaimableCollateralTimeDivisor})
	}
	if s.MaxExecutionFeeMultiplierFactor != nil {
		out = append(out, setting{name: "maxExecutionFeeMultiplierFactor", key: contracts.MaxExecutionFeeMultiplierFactor, kind: kindUint, decimals: floatPrecision, uintValue: s.MaxExecutionFeeMultiplierFactor})
	}
	return out
}

// Reconcile reads every declared setting in one batch and plans one write per
// setting whose value differs.
func (r *GeneralReconciler) Reconcile(ctx context.Context, settings model.GeneralSettings) (model.Plan, error) {
	plan := model.Plan{Command: CommandGeneral}
	if r.reader == nil {
		return plan, fmt.Errorf("reader is nil")
	}

	declared := declaredSettings(settings)
	if len(declared) == 0 {
		r.logger.Info("no general settings declared")
		return plan, nil
	}

	batch := multicall.NewBatch(1)
	for _, s := range declared {
		data, err := s.encodeGet()
		if err != nil {
			return plan, fmt.Errorf("%s: %w", s.name, err)
		}
		if _, err := batch.Add(multicall.Call{Target: r.dataStore, CallData: data, Label: s.name}); err != nil {
			return plan, err
		}
	}

	results, err := r.reader.Aggregate(ctx, batch.Calls())
	if err != nil {
		return plan, fmt.Errorf("read general config: %w", err)
	}

	for i, s := range declared {
		raw, err := batch.Slot(results, i, 0)
		if err != nil {
			return plan, fmt.Errorf("%s: %w", s.name, err)
		}
		change, write, err := s.diff(raw)
		if err != nil {
			return plan, fmt.Errorf("%s: %w", s.name, err)
		}
		if write == nil {
			r.logger.Debug("setting unchanged", zap.String("setting", s.name))
			continue
		}
		logChange(r.logger, change)
		plan.Changes = append(plan.Changes, change)
		plan.Writes = append(plan.Writes, *write)
	}
	return plan, nil
}

func (s setting) encodeGet() ([]byte, error) {
	switch s.kind {
	case kindUint:
		return contracts.EncodeGetUint(s.key)
	case kindBool:
		return contracts.EncodeGetBool(s.key)
	case kindAddress:
		return contracts.EncodeGetAddress(s.key)
	}
	return nil, fmt.Errorf("unknown setting kind %d", s.kind)
}

// diff decodes the current value and returns a change and write when it
// differs from the declared one.
func (s setting) diff(raw []byte) (model.FieldChange, *model.PendingWrite, error) {
	change := model.FieldChange{Target: CommandGeneral, Field: s.name, Ratio: unavailable}
	var (
		data   []byte
		method string
		next   string
	)

	switch s.kind {
	case kindUint:
		current, err := contracts.DecodeUint(raw)
		if err != nil {
			return change, nil, err
		}
		if current.Cmp(s.uintValue) == 0 {
			return change, nil, nil
		}
		ratio, ok := ChangeRatio(current, s.uintValue)
		change.Current = FormatAmount(current, s.decimals, 4)
		change.Next = FormatAmount(s.uintValue, s.decimals, 4)
		change.Ratio = FormatRatio(ratio, ok)
		method, next = "setUint", s.uintValue.String()
		data, err = contracts.EncodeSetUint(s.key, s.uintValue)
		if err != nil {
			return change, nil, err
		}
	case kindBool:
		current, err := contracts.DecodeBool(raw)
		if err != nil {
			return change, nil, err
		}
		if current == s.boolValue {
			return change, nil, nil
		}
		change.Current = fmt.Sprint(current)
		change.Next = fmt.Sprint(s.boolValue)
		method, next = "setBool", change.Next
		data, err = contracts.EncodeSetBool(s.key, s.boolValue)
		if err != nil {
			return change, nil, err
		}
	case kindAddress:
		current, err := contracts.DecodeAddress(raw)
		if err != nil {
			return change, nil, err
		}
		if current == s.addressValue {
			return change, nil, nil
		}
		change.Current = current.Hex()
		change.Next = s.addressValue.Hex()
		method, next = "setAddress", change.Next
		data, err = contracts.EncodeSetAddress(s.key, s.addressValue)
		if err != nil {
			return change, nil, err
		}
	default:
		return change, nil, fmt.Errorf("unknown setting kind %d", s.kind)
	}

	return change, &model.PendingWrite{
		Target:      s.name,
		Method:      method,
		CallData:    data,
		Description: fmt.Sprintf("%s(%s, %s)", method, s.name, next),
	}, nil
}
