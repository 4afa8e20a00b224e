package model

import "github.com/ethereum/go-ethereum/common"

// TokenInfo is a token declared in the network file.
type TokenInfo struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
}

// TokenDecl is a token as written in the network file. Nil Decimals are read from chain.
type TokenDecl struct {
	Symbol   string
	Address  common.Address
	Decimals *uint8
}
