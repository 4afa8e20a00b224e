package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const dataStoreABIJSON = `[
  {
    "inputs": [{"internalType": "bytes32", "name": "key", "type": "bytes32"}],
    "name": "getUint",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes32", "name": "key", "type": "bytes32"}],
    "name": "getBool",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes32", "name": "key", "type": "bytes32"}],
    "name": "getAddress",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const configABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "market", "type": "address"},
      {"internalType": "uint256", "name": "minPositionImpactPoolAmount", "type": "uint256"},
      {"internalType": "uint256", "name": "positionImpactPoolDistributionRate", "type": "uint256"}
    ],
    "name": "setPositionImpactDistributionRate",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes32", "name": "baseKey", "type": "bytes32"},
      {"internalType": "bytes", "name": "data", "type": "bytes"},
      {"internalType": "uint256", "name": "value", "type": "uint256"}
    ],
    "name": "setUint",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes32", "name": "baseKey", "type": "bytes32"},
      {"internalType": "bytes", "name": "data", "type": "bytes"},
      {"internalType": "bool", "name": "value", "type": "bool"}
    ],
    "name": "setBool",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes32", "name": "baseKey", "type": "bytes32"},
      {"internalType": "bytes", "name": "data", "type": "bytes"},
      {"internalType": "address", "name": "value", "type": "address"}
    ],
    "name": "setAddress",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes[]", "name": "data", "type": "bytes[]"}],
    "name": "multicall",
    "outputs": [{"internalType": "bytes[]", "name": "results", "type": "bytes[]"}],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const multicall3ABIJSON = `[
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "target", "type": "address"},
          {"internalType": "bool", "name": "allowFailure", "type": "bool"},
          {"internalType": "bytes", "name": "callData", "type": "bytes"}
        ],
        "internalType": "struct Multicall3.Call3[]",
        "name": "calls",
        "type": "tuple[]"
      }
    ],
    "name": "aggregate3",
    "outputs": [
      {
        "components": [
          {"internalType": "bool", "name": "success", "type": "bool"},
          {"internalType": "bytes", "name": "returnData", "type": "bytes"}
        ],
        "internalType": "struct Multicall3.Result[]",
        "name": "returnData",
        "type": "tuple[]"
      }
    ],
    "stateMutability": "payable",
    "type": "function"
  }
]`

const readerABIJSON = `[
  {
    "inputs": [
      {"internalType": "contract DataStore", "name": "dataStore", "type": "address"},
      {"internalType": "uint256", "name": "start", "type": "uint256"},
      {"internalType": "uint256", "name": "end", "type": "uint256"}
    ],
    "name": "getMarkets",
    "outputs": [
      {
        "components": [
          {"internalType": "address", "name": "marketToken", "type": "address"},
          {"internalType": "address", "name": "indexToken", "type": "address"},
          {"internalType": "address", "name": "longToken", "type": "address"},
          {"internalType": "address", "name": "shortToken", "type": "address"}
        ],
        "internalType": "struct Market.Props[]",
        "name": "",
        "type": "tuple[]"
      }
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const erc20ABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

type lazyABI struct {
	json   string
	once   sync.Once
	parsed abi.ABI
	err    error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.parsed, l.err = abi.JSON(strings.NewReader(l.json))
	})
	return l.parsed, l.err
}

var (
	dataStoreABI  = &lazyABI{json: dataStoreABIJSON}
	configABI     = &lazyABI{json: configABIJSON}
	multicall3ABI = &lazyABI{json: multicall3ABIJSON}
	readerABI     = &lazyABI{json: readerABIJSON}
	erc20ABI      = &lazyABI{json: erc20ABIJSON}
)

// DataStoreABI returns the parsed DataStore read ABI.
func DataStoreABI() (abi.ABI, error) { return dataStoreABI.get() }

// ConfigABI returns the parsed Config write ABI.
func ConfigABI() (abi.ABI, error) { return configABI.get() }

// Multicall3ABI returns the parsed Multicall3 ABI.
func Multicall3ABI() (abi.ABI, error) { return multicall3ABI.get() }

// ReaderABI returns the parsed Reader ABI.
func ReaderABI() (abi.ABI, error) { return readerABI.get() }

// ERC20ABI returns the parsed ERC20 metadata ABI.
func ERC20ABI() (abi.ABI, error) { return erc20ABI.get() }
