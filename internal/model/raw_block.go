package model

import "fmt"

// RawBlock is the header part of an eth_getBlockByNumber result fetched
// without full transactions.
type RawBlock struct {
	Number        string `json:"number"`
	Hash          string `json:"hash"`
	ParentHash    string `json:"parentHash"`
	Timestamp     string `json:"timestamp"`
	Miner         string `json:"miner"`
	GasLimit      string `json:"gasLimit"`
	GasUsed       string `json:"gasUsed"`
	BaseFeePerGas string `json:"baseFeePerGas,omitempty"`
	Transactions  []any  `json:"transactions"`
}

// ParseRawBlock converts a generic JSON-RPC block result into a RawBlock.
func ParseRawBlock(result any) (RawBlock, error) {
	var out RawBlock
	if err := decodeJSONMap(result, &out); err != nil {
		return RawBlock{}, fmt.Errorf("parse block: %w", err)
	}
	return out, nil
}
