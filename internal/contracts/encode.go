package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Call3 is a single Multicall3.aggregate3 sub-call.
type Call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// Call3Result is the per-call result returned by aggregate3.
type Call3Result struct {
	Success    bool
	ReturnData []byte
}

// MarketProps mirrors the Market.Props struct returned by Reader.getMarkets.
type MarketProps struct {
	MarketToken common.Address
	IndexToken  common.Address
	LongToken   common.Address
	ShortToken  common.Address
}

// EncodeGetUint packs DataStore.getUint(key).
func EncodeGetUint(key common.Hash) ([]byte, error) {
	return pack(dataStoreABI, "getUint", key)
}

// EncodeGetBool packs DataStore.getBool(key).
func EncodeGetBool(key common.Hash) ([]byte, error) {
	return pack(dataStoreABI, "getBool", key)
}

// EncodeGetAddress packs DataStore.getAddress(key).
func EncodeGetAddress(key common.Hash) ([]byte, error) {
	return pack(dataStoreABI, "getAddress", key)
}

// EncodeSetPositionImpactDistributionRate packs the coupled impact pool write.
// Argument order follows the contract: market, min pool amount, distribution rate.
func EncodeSetPositionImpactDistributionRate(market common.Address, minPoolAmount, distributionRate *big.Int) ([]byte, error) {
	if minPoolAmount == nil || distributionRate == nil {
		return nil, fmt.Errorf("setPositionImpactDistributionRate: both values are required")
	}
	return pack(configABI, "setPositionImpactDistributionRate", market, minPoolAmount, distributionRate)
}

// EncodeSetUint packs Config.setUint with empty key data, so the full key equals baseKey.
func EncodeSetUint(baseKey common.Hash, value *big.Int) ([]byte, error) {
	if value == nil {
		return nil, fmt.Errorf("setUint: value is required")
	}
	return pack(configABI, "setUint", baseKey, []byte{}, value)
}

// EncodeSetBool packs Config.setBool with empty key data.
func EncodeSetBool(baseKey common.Hash, value bool) ([]byte, error) {
	return pack(configABI, "setBool", baseKey, []byte{}, value)
}

// EncodeSetAddress packs Config.setAddress with empty key data.
func EncodeSetAddress(baseKey common.Hash, value common.Address) ([]byte, error) {
	return pack(configABI, "setAddress", baseKey, []byte{}, value)
}

// EncodeConfigMulticall packs Config.multicall(bytes[]).
func EncodeConfigMulticall(calls [][]byte) ([]byte, error) {
	return pack(configABI, "multicall", calls)
}

// EncodeAggregate3 packs Multicall3.aggregate3(calls).
func EncodeAggregate3(calls []Call3) ([]byte, error) {
	return pack(multicall3ABI, "aggregate3", calls)
}

// DecodeAggregate3 unpacks the aggregate3 result array.
func DecodeAggregate3(data []byte) ([]Call3Result, error) {
	parsed, err := multicall3ABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse multicall3 abi: %w", err)
	}
	var out []Call3Result
	if err := parsed.UnpackIntoInterface(&out, "aggregate3", data); err != nil {
		return nil, fmt.Errorf("unpack aggregate3: %w", err)
	}
	return out, nil
}

// EncodeGetMarkets packs Reader.getMarkets(dataStore, start, end).
func EncodeGetMarkets(dataStore common.Address, start, end uint64) ([]byte, error) {
	return pack(readerABI, "getMarkets", dataStore, new(big.Int).SetUint64(start), new(big.Int).SetUint64(end))
}

// DecodeGetMarkets unpacks the Reader.getMarkets result.
func DecodeGetMarkets(data []byte) ([]MarketProps, error) {
	parsed, err := readerABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse reader abi: %w", err)
	}
	var out []MarketProps
	if err := parsed.UnpackIntoInterface(&out, "getMarkets", data); err != nil {
		return nil, fmt.Errorf("unpack getMarkets: %w", err)
	}
	return out, nil
}

// EncodeDecimals packs ERC20.decimals().
func EncodeDecimals() ([]byte, error) {
	return pack(erc20ABI, "decimals")
}

// DecodeDecimals unpacks an ERC20.decimals() result.
func DecodeDecimals(data []byte) (uint8, error) {
	values, err := unpack(erc20ABI, "decimals", data)
	if err != nil {
		return 0, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}
	return decimals, nil
}

// DecodeUint unpacks a DataStore.getUint result.
func DecodeUint(data []byte) (*big.Int, error) {
	values, err := unpack(dataStoreABI, "getUint", data)
	if err != nil {
		return nil, err
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getUint unexpected type %T", values[0])
	}
	return value, nil
}

// DecodeBool unpacks a DataStore.getBool result.
func DecodeBool(data []byte) (bool, error) {
	values, err := unpack(dataStoreABI, "getBool", data)
	if err != nil {
		return false, err
	}
	value, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("getBool unexpected type %T", values[0])
	}
	return value, nil
}

// DecodeAddress unpacks a DataStore.getAddress result.
func DecodeAddress(data []byte) (common.Address, error) {
	values, err := unpack(dataStoreABI, "getAddress", data)
	if err != nil {
		return common.Address{}, err
	}
	value, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("getAddress unexpected type %T", values[0])
	}
	return value, nil
}

func pack(l *lazyABI, method string, args ...interface{}) ([]byte, error) {
	parsed, err := l.get()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

func unpack(l *lazyABI, method string, data []byte) ([]interface{}, error) {
	parsed, err := l.get()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	values, err := parsed.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return values, nil
}

// MethodByCallData resolves the ABI method a calldata blob targets.
func MethodByCallData(parsed abi.ABI, data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("unpack %s args: %w", method.Name, err)
	}
	return method, args, nil
}
