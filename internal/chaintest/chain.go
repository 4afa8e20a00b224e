// Package chaintest provides an in-memory stand-in for the DataStore,
// Multicall3, Reader and Config contracts, driven through real ABI encoding.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"configSync/internal/contracts"
)

// Chain keeps DataStore values in maps and answers contract calls against them.
type Chain struct {
	mu sync.Mutex

	DataStore common.Address
	Multicall common.Address
	Reader    common.Address
	Config    common.Address

	Uints     map[common.Hash]*big.Int
	Bools     map[common.Hash]bool
	Addresses map[common.Hash]common.Address
	Markets   []contracts.MarketProps
	Decimals  map[common.Address]uint8
	FailKeys  map[common.Hash]bool

	// SubmitErr makes Submit fail without applying anything.
	SubmitErr error

	AggregateCalls int
	LastAggregate  []contracts.Call3
	Submitted      [][][]byte
}

// New returns an empty chain with fixed contract addresses.
func New() *Chain {
	return &Chain{
		DataStore: common.HexToAddress("0x00000000000000000000000000000000000d5700"),
		Multicall: common.HexToAddress("0x00000000000000000000000000000000000ca113"),
		Reader:    common.HexToAddress("0x0000000000000000000000000000000000000eed"),
		Config:    common.HexToAddress("0x000000000000000000000000000000000000c0f9"),
		Uints:     make(map[common.Hash]*big.Int),
		Bools:     make(map[common.Hash]bool),
		Addresses: make(map[common.Hash]common.Address),
		Decimals:  make(map[common.Address]uint8),
		FailKeys:  make(map[common.Hash]bool),
	}
}

// SetImpact stores the distribution rate and floor for a market token.
func (c *Chain) SetImpact(market common.Address, rate, minAmount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Uints[contracts.PositionImpactPoolDistributionRateKey(market)] = big.NewInt(rate)
	c.Uints[contracts.MinPositionImpactPoolAmountKey(market)] = big.NewInt(minAmount)
}

// Impact returns the stored distribution rate and floor for a market token.
func (c *Chain) Impact(market common.Address) (*big.Int, *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uintAt(contracts.PositionImpactPoolDistributionRateKey(market)), c.uintAt(contracts.MinPositionImpactPoolAmountKey(market))
}

// Uint returns the stored uint for key, zero when unset.
func (c *Chain) Uint(key common.Hash) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uintAt(key)
}

// AddMarket registers a market with the Reader.
func (c *Chain) AddMarket(marketToken, index, long, short common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Markets = append(c.Markets, contracts.MarketProps{
		MarketToken: marketToken,
		IndexToken:  index,
		LongToken:   long,
		ShortToken:  short,
	})
}

// CallContract implements multicall.ContractCaller.
func (c *Chain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if msg.To == nil {
		return nil, fmt.Errorf("missing call target")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch *msg.To {
	case c.Multicall:
		return c.aggregate3(msg.Data)
	case c.Reader:
		return c.getMarkets(msg.Data)
	default:
		return c.call(*msg.To, msg.Data)
	}
}

// Submit applies a Config.multicall batch atomically.
func (c *Chain) Submit(ctx context.Context, calls [][]byte) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SubmitErr != nil {
		return common.Hash{}, c.SubmitErr
	}

	uints := make(map[common.Hash]*big.Int, len(c.Uints))
	for k, v := range c.Uints {
		uints[k] = v
	}
	bools := make(map[common.Hash]bool, len(c.Bools))
	for k, v := range c.Bools {
		bools[k] = v
	}
	addresses := make(map[common.Hash]common.Address, len(c.Addresses))
	for k, v := range c.Addresses {
		addresses[k] = v
	}

	configABI, err := contracts.ConfigABI()
	if err != nil {
		return common.Hash{}, err
	}
	for i, call := range calls {
		method, args, err := contracts.MethodByCallData(configABI, call)
		if err != nil {
			return common.Hash{}, fmt.Errorf("call %d: %w", i, err)
		}
		switch method.Name {
		case "setPositionImpactDistributionRate":
			market := args[0].(common.Address)
			uints[contracts.MinPositionImpactPoolAmountKey(market)] = args[1].(*big.Int)
			uints[contracts.PositionImpactPoolDistributionRateKey(market)] = args[2].(*big.Int)
		case "setUint":
			uints[fullKey(args)] = args[2].(*big.Int)
		case "setBool":
			bools[fullKey(args)] = args[2].(bool)
		case "setAddress":
			addresses[fullKey(args)] = args[2].(common.Address)
		default:
			return common.Hash{}, fmt.Errorf("call %d: unsupported method %s", i, method.Name)
		}
	}

	c.Uints, c.Bools, c.Addresses = uints, bools, addresses
	c.Submitted = append(c.Submitted, calls)

	encoded, err := contracts.EncodeConfigMulticall(calls)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

func fullKey(args []interface{}) common.Hash {
	base := common.Hash(args[0].([32]byte))
	data := args[1].([]byte)
	if len(data) == 0 {
		return base
	}
	return crypto.Keccak256Hash(append(base.Bytes(), data...))
}

func (c *Chain) uintAt(key common.Hash) *big.Int {
	if v, ok := c.Uints[key]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (c *Chain) call(target common.Address, data []byte) ([]byte, error) {
	if target == c.DataStore {
		return c.dataStore(data)
	}
	if decimals, ok := c.Decimals[target]; ok {
		erc20ABI, err := contracts.ERC20ABI()
		if err != nil {
			return nil, err
		}
		return erc20ABI.Methods["decimals"].Outputs.Pack(decimals)
	}
	return nil, fmt.Errorf("no contract at %s", target.Hex())
}

func (c *Chain) dataStore(data []byte) ([]byte, error) {
	dsABI, err := contracts.DataStoreABI()
	if err != nil {
		return nil, err
	}
	method, args, err := contracts.MethodByCallData(dsABI, data)
	if err != nil {
		return nil, err
	}
	key := common.Hash(args[0].([32]byte))
	if c.FailKeys[key] {
		return nil, fmt.Errorf("execution reverted: %s", key.Hex())
	}

	switch method.Name {
	case "getUint":
		return method.Outputs.Pack(c.uintAt(key))
	case "getBool":
		return method.Outputs.Pack(c.Bools[key])
	case "getAddress":
		return method.Outputs.Pack(c.Addresses[key])
	default:
		return nil, fmt.Errorf("unsupported method %s", method.Name)
	}
}

func (c *Chain) aggregate3(data []byte) ([]byte, error) {
	mcABI, err := contracts.Multicall3ABI()
	if err != nil {
		return nil, err
	}
	method, args, err := contracts.MethodByCallData(mcABI, data)
	if err != nil {
		return nil, err
	}
	var calls []contracts.Call3
	if err := method.Inputs.Copy(&calls, args); err != nil {
		return nil, fmt.Errorf("copy aggregate3 args: %w", err)
	}

	c.AggregateCalls++
	c.LastAggregate = calls

	results := make([]contracts.Call3Result, 0, len(calls))
	for i, call := range calls {
		ret, err := c.call(call.Target, call.CallData)
		if err != nil {
			if !call.AllowFailure {
				return nil, fmt.Errorf("multicall3: call %d failed: %w", i, err)
			}
			results = append(results, contracts.Call3Result{Success: false, ReturnData: []byte{}})
			continue
		}
		results = append(results, contracts.Call3Result{Success: true, ReturnData: ret})
	}
	return method.Outputs.Pack(results)
}

func (c *Chain) getMarkets(data []byte) ([]byte, error) {
	readerABI, err := contracts.ReaderABI()
	if err != nil {
		return nil, err
	}
	method, args, err := contracts.MethodByCallData(readerABI, data)
	if err != nil {
		return nil, err
	}
	if args[0].(common.Address) != c.DataStore {
		return nil, fmt.Errorf("unknown data store %s", args[0].(common.Address).Hex())
	}
	start := args[1].(*big.Int).Uint64()
	end := args[2].(*big.Int).Uint64()
	if end > uint64(len(c.Markets)) {
		end = uint64(len(c.Markets))
	}
	page := []contracts.MarketProps{}
	if start < end {
		page = append(page, c.Markets[start:end]...)
	}
	return method.Outputs.Pack(page)
}
