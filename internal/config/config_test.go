package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const networkYAML = `
tokens:
  - symbol: WETH
    address: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"
    decimals: 18
  - symbol: USDC
    address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831"
markets:
  - index_token: WETH
    long_token: WETH
    short_token: USDC
    position_impact_pool_distribution_rate: "2.5e40"
    min_position_impact_pool_amount: "50000000000000000000"
  - swap_only: true
    long_token: WETH
    short_token: USDC
  - index_token: WETH
    long_token: WETH
    short_token: WETH
    min_position_impact_pool_amount: "1"
general:
  fee_receiver: "0x43ce1d475e06c65dd879f4ec644b8e0e10ff2b6d"
  skip_borrowing_fee_for_smaller_side: true
  max_execution_fee_multiplier_factor: "1e32"
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadNetwork(t *testing.T) {
	network, err := LoadNetwork(writeFile(t, "network.yaml", networkYAML))
	require.NoError(t, err)

	require.Len(t, network.Tokens, 2)
	assert.Equal(t, "WETH", network.Tokens[0].Symbol)
	require.NotNil(t, network.Tokens[0].Decimals)
	assert.Equal(t, uint8(18), *network.Tokens[0].Decimals)
	assert.Nil(t, network.Tokens[1].Decimals)

	require.Len(t, network.Markets, 3)
	first := network.Markets[0]
	assert.Equal(t, "WETH", first.IndexToken)
	assert.Equal(t, "25000000000000000000000000000000000000000", first.Impact.DistributionRate.String())
	assert.Equal(t, "50000000000000000000", first.Impact.MinPoolAmount.String())

	assert.True(t, network.Markets[1].SwapOnly)
	assert.Nil(t, network.Markets[1].Impact.DistributionRate)
	assert.Nil(t, network.Markets[2].Impact.DistributionRate)
	assert.NotNil(t, network.Markets[2].Impact.MinPoolAmount)

	require.NotNil(t, network.General.FeeReceiver)
	assert.Equal(t, common.HexToAddress("0x43ce1d475e06c65dd879f4ec644b8e0e10ff2b6d"), *network.General.FeeReceiver)
	require.NotNil(t, network.General.SkipBorrowingFeeForSmallerSide)
	assert.True(t, *network.General.SkipBorrowingFeeForSmallerSide)
	assert.Nil(t, network.General.HoldingAddress)
	assert.Nil(t, network.General.BorrowingFeeReceiverFactor)
	assert.Equal(t, "100000000000000000000000000000000", network.General.MaxExecutionFeeMultiplierFactor.String())
}

func TestLoadNetworkRejectsBadInput(t *testing.T) {
	_, err := LoadNetwork(writeFile(t, "network.yaml", `
markets:
  - index_token: WETH
    long_token: WETH
`))
	assert.Error(t, err)

	_, err = LoadNetwork(writeFile(t, "network.yaml", `
tokens:
  - symbol: WETH
    address: "not-an-address"
`))
	assert.Error(t, err)

	_, err = LoadNetwork(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadNetworkRejectsLossyUnquotedAmounts(t *testing.T) {
	lossy := []string{
		"position_impact_pool_distribution_rate: 25000000000000000000000000000000000000001",
		"min_position_impact_pool_amount: 50000000000000000001",
		"min_position_impact_pool_amount: 1e10",
	}
	for _, line := range lossy {
		_, err := LoadNetwork(writeFile(t, "network.yaml", `
markets:
  - index_token: WETH
    long_token: WETH
    short_token: USDC
    `+line+`
`))
		assert.Error(t, err, line)
	}

	_, err := LoadNetwork(writeFile(t, "network.yaml", `
general:
  max_execution_fee_multiplier_factor: 100000000000000000000000000000000
`))
	assert.Error(t, err)
}

func TestLoadNetworkAcceptsExactUnquotedIntegers(t *testing.T) {
	network, err := LoadNetwork(writeFile(t, "network.yaml", `
markets:
  - index_token: WETH
    long_token: WETH
    short_token: USDC
    position_impact_pool_distribution_rate: 18446744073709551615
    min_position_impact_pool_amount: 5
general:
  claimable_collateral_time_divisor: 3600
`))
	require.NoError(t, err)
	require.Len(t, network.Markets, 1)
	assert.Equal(t, "18446744073709551615", network.Markets[0].Impact.DistributionRate.String())
	assert.Equal(t, int64(5), network.Markets[0].Impact.MinPoolAmount.Int64())
	assert.Equal(t, int64(3600), network.General.ClaimableCollateralTimeDivisor.Int64())
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseAmount("1e3")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v.Int64())

	v, err = ParseAmount(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	_, err = ParseAmount("1.5")
	assert.Error(t, err)
	_, err = ParseAmount("-1")
	assert.Error(t, err)
	_, err = ParseAmount("abc")
	assert.Error(t, err)
}

func TestLoadMergesEnvAndFlags(t *testing.T) {
	t.Setenv("CONFIGSYNC_DATA_STORE", "0xFD70de6b91282D8017aA4E741e9Ae325CAb992d8")
	t.Setenv("CONFIGSYNC_RETRY_BACKOFF", "2s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Int("max-retries", 5, "")
	require.NoError(t, flags.Parse([]string{"--rpc", "http://localhost:8545", "--max-retries", "2"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryBackoff)
	assert.Equal(t, common.HexToAddress("0xFD70de6b91282D8017aA4E741e9Ae325CAb992d8"), cfg.DataStore)
	assert.Equal(t, common.HexToAddress(Multicall3Address), cfg.Multicall)
	assert.False(t, cfg.Write)
	assert.Equal(t, uint64(1000), cfg.MarketsPageSize)
	require.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateWrite())
}

func TestLoadHonoursBareWriteEnv(t *testing.T) {
	t.Setenv("WRITE", "true")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.True(t, cfg.Write)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
rpc: https://arb1.example.org
data-store: "0xFD70de6b91282D8017aA4E741e9Ae325CAb992d8"
config-contract: "0x1d3dbe2F6dF3D7e1B4bA3CB6c4B4a1e1d3dbe2F6"
private-key: "0x01"
markets-page-size: 50
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://arb1.example.org", cfg.RPCURL)
	assert.Equal(t, uint64(50), cfg.MarketsPageSize)
	require.NoError(t, cfg.ValidateWrite())

	_, err = Load(writeFile(t, "bad.yaml", "reader: nope\n"), nil)
	assert.Error(t, err)
}
