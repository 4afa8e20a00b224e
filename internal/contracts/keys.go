package contracts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	PositionImpactPoolDistributionRate = HashString("POSITION_IMPACT_POOL_DISTRIBUTION_RATE")
	MinPositionImpactPoolAmount        = HashString("MIN_POSITION_IMPACT_POOL_AMOUNT")

	FeeReceiver                     = HashString("FEE_RECEIVER")
	HoldingAddress                  = HashString("HOLDING_ADDRESS")
	BorrowingFeeReceiverFactor      = HashString("BORROWING_FEE_RECEIVER_FACTOR")
	SkipBorrowingFeeForSmallerSide  = HashString("SKIP_BORROWING_FEE_FOR_SMALLER_SIDE")
	ClaimableCollateralTimeDivisor  = HashString("CLAIMABLE_COLLATERAL_TIME_DIVISOR")
	MaxExecutionFeeMultiplierFactor = HashString("MAX_EXECUTION_FEE_MULTIPLIER_FACTOR")
)

// HashString returns keccak256(abi.encode(s)).
func HashString(s string) common.Hash {
	hash, err := HashData([]string{"string"}, []interface{}{s})
	if err != nil {
		// string encoding cannot fail for a valid string type
		panic(err)
	}
	return hash
}

// HashData returns keccak256(abi.encode(values...)) for the given solidity types.
func HashData(types []string, values []interface{}) (common.Hash, error) {
	if len(types) != len(values) {
		return common.Hash{}, fmt.Errorf("hash data: %d types for %d values", len(types), len(values))
	}
	args := make(abi.Arguments, 0, len(types))
	for _, name := range types {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return common.Hash{}, fmt.Errorf("hash data type %s: %w", name, err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	encoded, err := args.Pack(values...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash data encode: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// PositionImpactPoolDistributionRateKey is the per-market distribution rate key.
func PositionImpactPoolDistributionRateKey(market common.Address) common.Hash {
	return marketKey(PositionImpactPoolDistributionRate, market)
}

// MinPositionImpactPoolAmountKey is the per-market impact pool floor key.
func MinPositionImpactPoolAmountKey(market common.Address) common.Hash {
	return marketKey(MinPositionImpactPoolAmount, market)
}

func marketKey(base common.Hash, market common.Address) common.Hash {
	hash, err := HashData([]string{"bytes32", "address"}, []interface{}{base, market})
	if err != nil {
		panic(err)
	}
	return hash
}
