package execute_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configSync/internal/chaintest"
	"configSync/internal/contracts"
	"configSync/internal/execute"
	"configSync/internal/model"
)

var market = common.HexToAddress("0x000000000000000000000000000000000000aaaa")

func impactPlan(t *testing.T, rate, minAmount int64) model.Plan {
	t.Helper()
	data, err := contracts.EncodeSetPositionImpactDistributionRate(market, big.NewInt(minAmount), big.NewInt(rate))
	require.NoError(t, err)
	return model.Plan{
		Command: "impact",
		Writes: []model.PendingWrite{{
			Target:      "WETH [WETH/USDC]",
			Method:      "setPositionImpactDistributionRate",
			CallData:    data,
			Description: "setPositionImpactDistributionRate(WETH [WETH/USDC])",
		}},
		Changes: []model.FieldChange{{Target: "WETH [WETH/USDC]", Field: "positionImpactPoolDistributionRate", Current: "10", Next: "20", Ratio: "2.0000x"}},
	}
}

func confirmer(answer bool, calls *int) execute.Confirmer {
	return func(model.Plan) (bool, error) {
		*calls++
		return answer, nil
	}
}

func TestGateEmptyPlanTouchesNothing(t *testing.T) {
	chain := chaintest.New()
	calls := 0
	gate := &execute.Gate{Confirm: confirmer(true, &calls), Submitter: chain}

	res, err := gate.Execute(context.Background(), model.Plan{Command: "impact"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNoChanges, res.Outcome)
	assert.Zero(t, calls)
	assert.Empty(t, chain.Submitted)
}

func TestGateOverrideSkipsConfirmation(t *testing.T) {
	chain := chaintest.New()
	calls := 0
	var out bytes.Buffer
	gate := &execute.Gate{Write: true, Confirm: confirmer(false, &calls), Submitter: chain, Out: &out}

	res, err := gate.Execute(context.Background(), impactPlan(t, 20, 5))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSubmitted, res.Outcome)
	assert.Contains(t, out.String(), "1. setPositionImpactDistributionRate(WETH [WETH/USDC])")
	assert.Contains(t, out.String(), "positionImpactPoolDistributionRate")
	assert.NotEqual(t, common.Hash{}, res.TxHash)
	assert.Zero(t, calls)
	require.Len(t, chain.Submitted, 1)

	rate, floor := chain.Impact(market)
	assert.Equal(t, int64(20), rate.Int64())
	assert.Equal(t, int64(5), floor.Int64())
}

func TestGateDeclineLeavesStateUnchanged(t *testing.T) {
	chain := chaintest.New()
	chain.SetImpact(market, 10, 5)
	calls := 0
	var out bytes.Buffer
	gate := &execute.Gate{Confirm: confirmer(false, &calls), Submitter: chain, Out: &out}

	res, err := gate.Execute(context.Background(), impactPlan(t, 20, 5))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeDeclined, res.Outcome)
	assert.Equal(t, 1, calls)
	assert.Empty(t, chain.Submitted)
	assert.Contains(t, out.String(), "setPositionImpactDistributionRate(WETH [WETH/USDC])")

	rate, floor := chain.Impact(market)
	assert.Equal(t, int64(10), rate.Int64())
	assert.Equal(t, int64(5), floor.Int64())
}

func TestGateConfirmSubmits(t *testing.T) {
	chain := chaintest.New()
	calls := 0
	gate := &execute.Gate{Confirm: confirmer(true, &calls), Submitter: chain}

	res, err := gate.Execute(context.Background(), impactPlan(t, 20, 5))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSubmitted, res.Outcome)
	assert.Equal(t, 1, calls)
	require.Len(t, chain.Submitted, 1)
}

func TestGateSubmitErrorPropagates(t *testing.T) {
	chain := chaintest.New()
	chain.SetImpact(market, 10, 5)
	chain.SubmitErr = errors.New("execution reverted")
	gate := &execute.Gate{Write: true, Submitter: chain}

	_, err := gate.Execute(context.Background(), impactPlan(t, 20, 5))
	require.ErrorIs(t, err, chain.SubmitErr)

	rate, _ := chain.Impact(market)
	assert.Equal(t, int64(10), rate.Int64())
}

func TestGateConfirmErrorPropagates(t *testing.T) {
	boom := errors.New("stdin closed")
	gate := &execute.Gate{
		Confirm:   func(model.Plan) (bool, error) { return false, boom },
		Submitter: chaintest.New(),
	}
	_, err := gate.Execute(context.Background(), impactPlan(t, 20, 5))
	require.ErrorIs(t, err, boom)
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		confirm := execute.PromptConfirmer(strings.NewReader(tt.input), &out)
		got, err := confirm(model.Plan{Writes: make([]model.PendingWrite, 2)})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Do you want to execute the transactions? [y/N]")
	}
}
