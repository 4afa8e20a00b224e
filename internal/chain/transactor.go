package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"configSync/internal/contracts"
)

// ErrTxReverted is returned when a submitted batch is mined with a failed status.
var ErrTxReverted = errors.New("transaction reverted")

// Backend is what the transactor needs from an RPC client.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Transactor submits batched writes through Config.multicall.
type Transactor struct {
	backend  Backend
	contract *bind.BoundContract
	opts     *bind.TransactOpts
	logger   *zap.Logger
}

// NewTransactor binds the Config contract with a keyed signer.
func NewTransactor(backend Backend, configAddress common.Address, privateKeyHex string, chainID *big.Int, logger *zap.Logger) (*Transactor, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	key, err := ParsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	configABI, err := contracts.ConfigABI()
	if err != nil {
		return nil, fmt.Errorf("parse config abi: %w", err)
	}

	return &Transactor{
		backend:  backend,
		contract: bind.NewBoundContract(configAddress, configABI, backend, backend, backend),
		opts:     opts,
		logger:   logger,
	}, nil
}

// From returns the sender address.
func (t *Transactor) From() common.Address {
	return t.opts.From
}

// Submit sends every call in one Config.multicall transaction and waits for it to be mined.
// Either the whole batch applies or the transaction reverts; nothing is retried.
func (t *Transactor) Submit(ctx context.Context, calls [][]byte) (common.Hash, error) {
	if len(calls) == 0 {
		return common.Hash{}, fmt.Errorf("no calls to submit")
	}

	opts := *t.opts
	opts.Context = ctx

	tx, err := t.contract.Transact(&opts, "multicall", calls)
	if err != nil {
		return common.Hash{}, fmt.Errorf("send multicall: %w", err)
	}
	t.logger.Info("tx sent", zap.String("tx_hash", tx.Hash().Hex()), zap.Int("calls", len(calls)))

	receipt, err := bind.WaitMined(ctx, t.backend, tx)
	if err != nil {
		return tx.Hash(), fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash(), fmt.Errorf("%w: %s", ErrTxReverted, tx.Hash().Hex())
	}

	t.logger.Info("tx mined",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("block_number", receipt.BlockNumber.Uint64()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return tx.Hash(), nil
}

// ParsePrivateKey parses a hex secp256k1 key with or without 0x prefix.
func ParsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	keyHex := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if keyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}
