package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashStringMatchesABIEncoding(t *testing.T) {
	name := "FEE_RECEIVER"

	// abi.encode(string): head offset, length, right-padded bytes
	encoded := make([]byte, 0, 96)
	encoded = append(encoded, common.LeftPadBytes(big.NewInt(32).Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(big.NewInt(int64(len(name))).Bytes(), 32)...)
	encoded = append(encoded, common.RightPadBytes([]byte(name), 32)...)

	assert.Equal(t, crypto.Keccak256Hash(encoded), HashString(name))
	assert.Equal(t, FeeReceiver, HashString(name))
}

func TestMarketKeysAreDistinct(t *testing.T) {
	marketA := common.HexToAddress("0x1111111111111111111111111111111111111111")
	marketB := common.HexToAddress("0x2222222222222222222222222222222222222222")

	rateA := PositionImpactPoolDistributionRateKey(marketA)
	rateB := PositionImpactPoolDistributionRateKey(marketB)
	minA := MinPositionImpactPoolAmountKey(marketA)

	assert.NotEqual(t, rateA, rateB)
	assert.NotEqual(t, rateA, minA)
	assert.Equal(t, rateA, PositionImpactPoolDistributionRateKey(marketA))

	manual := crypto.Keccak256Hash(append(PositionImpactPoolDistributionRate.Bytes(), common.LeftPadBytes(marketA.Bytes(), 32)...))
	assert.Equal(t, manual, rateA)
}

func TestHashDataArity(t *testing.T) {
	_, err := HashData([]string{"bytes32"}, nil)
	require.Error(t, err)
}

func TestDataStoreDecoders(t *testing.T) {
	parsed, err := DataStoreABI()
	require.NoError(t, err)

	raw, err := parsed.Methods["getUint"].Outputs.Pack(big.NewInt(12345))
	require.NoError(t, err)
	value, err := DecodeUint(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), value.Int64())

	raw, err = parsed.Methods["getBool"].Outputs.Pack(true)
	require.NoError(t, err)
	flag, err := DecodeBool(raw)
	require.NoError(t, err)
	assert.True(t, flag)

	addr := common.HexToAddress("0x3333333333333333333333333333333333333333")
	raw, err = parsed.Methods["getAddress"].Outputs.Pack(addr)
	require.NoError(t, err)
	decoded, err := DecodeAddress(raw)
	require.NoError(t, err)
	assert.Equal(t, addr, decoded)

	_, err = DecodeUint([]byte{0x01})
	assert.Error(t, err)
}

func TestSetPositionImpactDistributionRateArgumentOrder(t *testing.T) {
	market := common.HexToAddress("0x4444444444444444444444444444444444444444")
	data, err := EncodeSetPositionImpactDistributionRate(market, big.NewInt(5), big.NewInt(20))
	require.NoError(t, err)

	parsed, err := ConfigABI()
	require.NoError(t, err)
	method, args, err := MethodByCallData(parsed, data)
	require.NoError(t, err)

	assert.Equal(t, "setPositionImpactDistributionRate", method.Name)
	assert.Equal(t, market, args[0])
	assert.Equal(t, int64(5), args[1].(*big.Int).Int64())
	assert.Equal(t, int64(20), args[2].(*big.Int).Int64())

	_, err = EncodeSetPositionImpactDistributionRate(market, nil, big.NewInt(1))
	assert.Error(t, err)
}

func TestAggregate3RoundTrip(t *testing.T) {
	parsed, err := Multicall3ABI()
	require.NoError(t, err)

	results := []Call3Result{
		{Success: true, ReturnData: []byte{0x01}},
		{Success: false, ReturnData: nil},
	}
	raw, err := parsed.Methods["aggregate3"].Outputs.Pack(results)
	require.NoError(t, err)

	decoded, err := DecodeAggregate3(raw)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.True(t, decoded[0].Success)
	assert.Equal(t, []byte{0x01}, decoded[0].ReturnData)
	assert.False(t, decoded[1].Success)
}
