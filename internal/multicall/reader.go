package multicall

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"configSync/internal/contracts"
)

var (
	// ErrCallFailed means at least one sub-call in a batch did not succeed.
	ErrCallFailed = errors.New("multicall sub-call failed")
	// ErrResultCount means the batch returned a different number of results than requested.
	ErrResultCount = errors.New("multicall result count mismatch")
)

// ContractCaller performs eth_call.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Call is one read in a batch.
type Call struct {
	Target   common.Address
	CallData []byte
	Label    string
}

// Reader batches reads through Multicall3.aggregate3.
type Reader struct {
	caller  ContractCaller
	address common.Address
	logger  *zap.Logger
}

// NewReader builds a Reader against the Multicall3 deployment at address.
func NewReader(caller ContractCaller, address common.Address, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{caller: caller, address: address, logger: logger}
}

// Aggregate submits every call in one round trip with allowFailure=false and
// returns raw return data in request order. Any failed call fails the batch.
func (r *Reader) Aggregate(ctx context.Context, calls []Call) ([][]byte, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	if len(calls) == 0 {
		return nil, nil
	}

	requests := make([]contracts.Call3, 0, len(calls))
	for _, call := range calls {
		requests = append(requests, contracts.Call3{
			Target:       call.Target,
			AllowFailure: false,
			CallData:     call.CallData,
		})
	}

	data, err := contracts.EncodeAggregate3(requests)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("multicall read", zap.Int("calls", len(calls)), zap.String("multicall", r.address.Hex()))

	resp, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate3: %v", ErrCallFailed, err)
	}

	results, err := contracts.DecodeAggregate3(resp)
	if err != nil {
		return nil, err
	}
	if len(results) != len(calls) {
		return nil, fmt.Errorf("%w: got %d want %d", ErrResultCount, len(results), len(calls))
	}

	out := make([][]byte, len(results))
	for i, res := range results {
		if !res.Success {
			return nil, fmt.Errorf("%w: index %d (%s)", ErrCallFailed, i, calls[i].Label)
		}
		out[i] = res.ReturnData
	}
	return out, nil
}
