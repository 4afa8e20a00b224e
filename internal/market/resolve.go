package market

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"configSync/internal/model"
)

// ErrDuplicateMarket is returned when two descriptors resolve to the same token triple.
var ErrDuplicateMarket = errors.New("duplicate market declaration")

const spotLabel = "SPOT"

// Resolved is a descriptor with its token addresses.
type Resolved struct {
	Descriptor model.MarketDescriptor
	Index      common.Address
	Long       common.Address
	Short      common.Address
	Key        model.MarketKey
}

// Resolve maps a descriptor's symbols to addresses. Swap-only markets use the
// zero address as index token.
func (t *TokenTable) Resolve(d model.MarketDescriptor) (Resolved, error) {
	var index common.Address
	if !d.SwapOnly {
		token, err := t.lookup("indexToken", d.IndexToken)
		if err != nil {
			return Resolved{}, err
		}
		index = token.Address
	}
	long, err := t.lookup("longToken", d.LongToken)
	if err != nil {
		return Resolved{}, err
	}
	short, err := t.lookup("shortToken", d.ShortToken)
	if err != nil {
		return Resolved{}, err
	}

	return Resolved{
		Descriptor: d,
		Index:      index,
		Long:       long.Address,
		Short:      short.Address,
		Key:        model.NewMarketKey(index, long.Address, short.Address),
	}, nil
}

// ResolveAll resolves descriptors in declaration order and rejects duplicates.
func (t *TokenTable) ResolveAll(descriptors []model.MarketDescriptor) ([]Resolved, error) {
	out := make([]Resolved, 0, len(descriptors))
	seen := make(map[model.MarketKey]int, len(descriptors))
	for i, d := range descriptors {
		r, err := t.Resolve(d)
		if err != nil {
			return nil, fmt.Errorf("market %d: %w", i, err)
		}
		if prev, ok := seen[r.Key]; ok {
			return nil, fmt.Errorf("%w: markets %d and %d resolve to %s", ErrDuplicateMarket, prev, i, r.Key)
		}
		seen[r.Key] = i
		out = append(out, r)
	}
	return out, nil
}

// Label renders "INDEX [LONG/SHORT]", using SPOT for swap-only markets.
func (t *TokenTable) Label(r Resolved) string {
	index := spotLabel
	if r.Index != (common.Address{}) {
		index = t.SymbolOf(r.Index)
	}
	return fmt.Sprintf("%s [%s/%s]", index, t.SymbolOf(r.Long), t.SymbolOf(r.Short))
}

// DisplayDecimals is the precision used to render a market's impact pool
// amounts: the index token, or the long token for swap-only markets.
func (t *TokenTable) DisplayDecimals(r Resolved) uint8 {
	if token, ok := t.byAddress[r.Index]; ok && r.Index != (common.Address{}) {
		return token.Decimals
	}
	if token, ok := t.byAddress[r.Long]; ok {
		return token.Decimals
	}
	return 0
}
