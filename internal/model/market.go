package model

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MarketKey joins index, long and short token addresses.
type MarketKey string

// NewMarketKey builds the index:long:short key from checksummed addresses.
func NewMarketKey(index, long, short common.Address) MarketKey {
	return MarketKey(strings.Join([]string{index.Hex(), long.Hex(), short.Hex()}, ":"))
}

// MarketDescriptor is the declared identity and desired config of one market.
type MarketDescriptor struct {
	IndexToken string
	LongToken  string
	ShortToken string
	SwapOnly   bool
	Impact     ImpactDistribution
}

// OnchainMarket is a market as reported by the Reader contract.
type OnchainMarket struct {
	MarketToken common.Address `json:"market_token"`
	IndexToken  common.Address `json:"index_token"`
	LongToken   common.Address `json:"long_token"`
	ShortToken  common.Address `json:"short_token"`
}

// Key returns the join key for the market's token triple.
func (m OnchainMarket) Key() MarketKey {
	return NewMarketKey(m.IndexToken, m.LongToken, m.ShortToken)
}

// Presence reports how many of a coupled field group are declared.
type Presence int

const (
	PresenceNone Presence = iota
	PresencePartial
	PresenceComplete
)

func (p Presence) String() string {
	switch p {
	case PresenceNone:
		return "none"
	case PresencePartial:
		return "partial"
	case PresenceComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ImpactDistribution holds the coupled position impact pool targets.
// A nil field is undeclared.
type ImpactDistribution struct {
	DistributionRate *big.Int
	MinPoolAmount    *big.Int
}

// Presence classifies the declared fields.
func (d ImpactDistribution) Presence() Presence {
	switch {
	case d.DistributionRate != nil && d.MinPoolAmount != nil:
		return PresenceComplete
	case d.DistributionRate == nil && d.MinPoolAmount == nil:
		return PresenceNone
	default:
		return PresencePartial
	}
}
