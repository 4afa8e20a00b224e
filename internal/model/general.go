package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GeneralSettings are protocol-wide DataStore values. Nil fields are not managed.
type GeneralSettings struct {
	FeeReceiver                     *common.Address
	HoldingAddress                  *common.Address
	BorrowingFeeReceiverFactor      *big.Int
	SkipBorrowingFeeForSmallerSide  *bool
	ClaimableCollateralTimeDivisor  *big.Int
	MaxExecutionFeeMultiplierFactor *big.Int
}
