package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"configSync/internal/contracts"
	"configSync/internal/model"
	"configSync/internal/multicall"
)

// ErrUnknownToken is returned when a descriptor references an undeclared symbol.
var ErrUnknownToken = errors.New("unknown token symbol")

// Aggregator performs a fail-closed batched read.
type Aggregator interface {
	Aggregate(ctx context.Context, calls []multicall.Call) ([][]byte, error)
}

// TokenTable looks tokens up by symbol and by address.
type TokenTable struct {
	bySymbol  map[string]model.TokenInfo
	byAddress map[common.Address]model.TokenInfo
}

// NewTokenTable indexes tokens. Symbols and addresses must be unique.
func NewTokenTable(tokens []model.TokenInfo) (*TokenTable, error) {
	t := &TokenTable{
		bySymbol:  make(map[string]model.TokenInfo, len(tokens)),
		byAddress: make(map[common.Address]model.TokenInfo, len(tokens)),
	}
	for _, token := range tokens {
		if token.Symbol == "" {
			return nil, fmt.Errorf("token %s has no symbol", token.Address.Hex())
		}
		if _, ok := t.bySymbol[token.Symbol]; ok {
			return nil, fmt.Errorf("token symbol %s declared twice", token.Symbol)
		}
		if prev, ok := t.byAddress[token.Address]; ok {
			return nil, fmt.Errorf("token address %s declared for %s and %s", token.Address.Hex(), prev.Symbol, token.Symbol)
		}
		t.bySymbol[token.Symbol] = token
		t.byAddress[token.Address] = token
	}
	return t, nil
}

// LoadTokenTable builds a table from declarations, reading missing decimals in one batch.
func LoadTokenTable(ctx context.Context, reader Aggregator, decls []model.TokenDecl, logger *zap.Logger) (*TokenTable, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens := make([]model.TokenInfo, len(decls))
	var calls []multicall.Call
	var pending []int
	for i, decl := range decls {
		tokens[i] = model.TokenInfo{Symbol: decl.Symbol, Address: decl.Address}
		if decl.Decimals != nil {
			tokens[i].Decimals = *decl.Decimals
			continue
		}
		data, err := contracts.EncodeDecimals()
		if err != nil {
			return nil, err
		}
		calls = append(calls, multicall.Call{Target: decl.Address, CallData: data, Label: decl.Symbol + ".decimals"})
		pending = append(pending, i)
	}

	if len(calls) > 0 {
		if reader == nil {
			return nil, fmt.Errorf("decimals missing for %d tokens and no reader configured", len(calls))
		}
		results, err := reader.Aggregate(ctx, calls)
		if err != nil {
			return nil, fmt.Errorf("read token decimals: %w", err)
		}
		for j, idx := range pending {
			decimals, err := contracts.DecodeDecimals(results[j])
			if err != nil {
				return nil, fmt.Errorf("decode %s decimals: %w", tokens[idx].Symbol, err)
			}
			tokens[idx].Decimals = decimals
			logger.Debug("token decimals loaded", zap.String("symbol", tokens[idx].Symbol), zap.Uint8("decimals", decimals))
		}
	}

	return NewTokenTable(tokens)
}

// BySymbol returns the token for a symbol.
func (t *TokenTable) BySymbol(symbol string) (model.TokenInfo, bool) {
	token, ok := t.bySymbol[symbol]
	return token, ok
}

// ByAddress returns the token for an address.
func (t *TokenTable) ByAddress(address common.Address) (model.TokenInfo, bool) {
	token, ok := t.byAddress[address]
	return token, ok
}

// SymbolOf returns the symbol for an address, or its hex form when unknown.
func (t *TokenTable) SymbolOf(address common.Address) string {
	if token, ok := t.byAddress[address]; ok {
		return token.Symbol
	}
	return address.Hex()
}

func (t *TokenTable) lookup(role, symbol string) (model.TokenInfo, error) {
	token, ok := t.bySymbol[symbol]
	if !ok {
		return model.TokenInfo{}, fmt.Errorf("%w: %s %q", ErrUnknownToken, role, symbol)
	}
	return token, nil
}
