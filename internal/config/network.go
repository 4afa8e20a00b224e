package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"configSync/internal/model"
)

// Network is the declared state for one deployment.
type Network struct {
	Tokens  []model.TokenDecl
	Markets []model.MarketDescriptor
	General model.GeneralSettings
}

type tokenEntry struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals *uint8 `mapstructure:"decimals"`
}

type marketEntry struct {
	IndexToken                         string      `mapstructure:"index_token"`
	LongToken                          string      `mapstructure:"long_token"`
	ShortToken                         string      `mapstructure:"short_token"`
	SwapOnly                           bool        `mapstructure:"swap_only"`
	PositionImpactPoolDistributionRate interface{} `mapstructure:"position_impact_pool_distribution_rate"`
	MinPositionImpactPoolAmount        interface{} `mapstructure:"min_position_impact_pool_amount"`
}

type generalEntry struct {
	FeeReceiver                     string      `mapstructure:"fee_receiver"`
	HoldingAddress                  string      `mapstructure:"holding_address"`
	BorrowingFeeReceiverFactor      interface{} `mapstructure:"borrowing_fee_receiver_factor"`
	SkipBorrowingFeeForSmallerSide  *bool       `mapstructure:"skip_borrowing_fee_for_smaller_side"`
	ClaimableCollateralTimeDivisor  interface{} `mapstructure:"claimable_collateral_time_divisor"`
	MaxExecutionFeeMultiplierFactor interface{} `mapstructure:"max_execution_fee_multiplier_factor"`
}

// LoadNetwork reads tokens, markets and general settings from a network file.
// Amounts are quoted strings in integer or exponent notation ("5e23"). Bare
// YAML integers are accepted only when they decode without loss.
func LoadNetwork(path string) (Network, error) {
	if path == "" {
		return Network{}, fmt.Errorf("network file path is required")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Network{}, fmt.Errorf("read network file: %w", err)
	}

	var (
		tokens  []tokenEntry
		markets []marketEntry
		general generalEntry
	)
	if err := v.UnmarshalKey("tokens", &tokens); err != nil {
		return Network{}, fmt.Errorf("decode tokens: %w", err)
	}
	if err := v.UnmarshalKey("markets", &markets); err != nil {
		return Network{}, fmt.Errorf("decode markets: %w", err)
	}
	if err := v.UnmarshalKey("general", &general); err != nil {
		return Network{}, fmt.Errorf("decode general: %w", err)
	}

	var out Network
	for i, t := range tokens {
		addr, err := parseAddress(t.Address)
		if err != nil {
			return Network{}, fmt.Errorf("tokens[%d] %s: %w", i, t.Symbol, err)
		}
		if t.Symbol == "" || addr == (common.Address{}) {
			return Network{}, fmt.Errorf("tokens[%d]: symbol and address are required", i)
		}
		out.Tokens = append(out.Tokens, model.TokenDecl{Symbol: t.Symbol, Address: addr, Decimals: t.Decimals})
	}

	for i, m := range markets {
		d := model.MarketDescriptor{
			IndexToken: strings.TrimSpace(m.IndexToken),
			LongToken:  strings.TrimSpace(m.LongToken),
			ShortToken: strings.TrimSpace(m.ShortToken),
			SwapOnly:   m.SwapOnly,
		}
		if d.LongToken == "" || d.ShortToken == "" {
			return Network{}, fmt.Errorf("markets[%d]: long_token and short_token are required", i)
		}
		if d.IndexToken == "" && !d.SwapOnly {
			return Network{}, fmt.Errorf("markets[%d]: index_token is required unless swap_only", i)
		}
		var err error
		if d.Impact.DistributionRate, err = parseAmountValue(m.PositionImpactPoolDistributionRate); err != nil {
			return Network{}, fmt.Errorf("markets[%d] position_impact_pool_distribution_rate: %w", i, err)
		}
		if d.Impact.MinPoolAmount, err = parseAmountValue(m.MinPositionImpactPoolAmount); err != nil {
			return Network{}, fmt.Errorf("markets[%d] min_position_impact_pool_amount: %w", i, err)
		}
		out.Markets = append(out.Markets, d)
	}

	g, err := general.settings()
	if err != nil {
		return Network{}, err
	}
	out.General = g
	return out, nil
}

func (g generalEntry) settings() (model.GeneralSettings, error) {
	var (
		out model.GeneralSettings
		err error
	)
	if out.FeeReceiver, err = optionalAddress(g.FeeReceiver); err != nil {
		return out, fmt.Errorf("general fee_receiver: %w", err)
	}
	if out.HoldingAddress, err = optionalAddress(g.HoldingAddress); err != nil {
		return out, fmt.Errorf("general holding_address: %w", err)
	}
	if out.BorrowingFeeReceiverFactor, err = parseAmountValue(g.BorrowingFeeReceiverFactor); err != nil {
		return out, fmt.Errorf("general borrowing_fee_receiver_factor: %w", err)
	}
	out.SkipBorrowingFeeForSmallerSide = g.SkipBorrowingFeeForSmallerSide
	if out.ClaimableCollateralTimeDivisor, err = parseAmountValue(g.ClaimableCollateralTimeDivisor); err != nil {
		return out, fmt.Errorf("general claimable_collateral_time_divisor: %w", err)
	}
	if out.MaxExecutionFeeMultiplierFactor, err = parseAmountValue(g.MaxExecutionFeeMultiplierFactor); err != nil {
		return out, fmt.Errorf("general max_execution_fee_multiplier_factor: %w", err)
	}
	return out, nil
}

// ParseAmount parses a non-negative integer amount. Empty input means undeclared.
func ParseAmount(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", input)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("amount %q is not an integer", input)
	}
	return d.BigInt(), nil
}

// parseAmountValue accepts a raw network file value. YAML resolves integers
// beyond uint64 and exponent forms to float64, which would round silently, so
// floats are rejected and must be quoted instead.
func parseAmountValue(raw interface{}) (*big.Int, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseAmount(v)
	case int:
		return ParseAmount(strconv.FormatInt(int64(v), 10))
	case int64:
		return ParseAmount(strconv.FormatInt(v, 10))
	case uint64:
		return ParseAmount(strconv.FormatUint(v, 10))
	case float32, float64:
		return nil, fmt.Errorf("unquoted amount %v loses precision, quote it", v)
	default:
		return nil, fmt.Errorf("unsupported amount type %T", raw)
	}
}

func optionalAddress(input string) (*common.Address, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	addr, err := parseAddress(input)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
