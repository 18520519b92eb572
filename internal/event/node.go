package event

import (
	"fmt"
	"math/big"

	"eventscope/internal/codec"
	"eventscope/internal/model"
)

// BalanceQuery builds an eth_getBalance request. A nil block means latest.
func BalanceQuery(address any, block any) (Request, error) {
	addr, err := codec.Encode(codec.Address(), address)
	if err != nil {
		return Request{}, fmt.Errorf("balance query: address: %w", err)
	}
	tag, err := encodeBound(block)
	if err != nil {
		return Request{}, fmt.Errorf("balance query: block: %w", err)
	}
	return Request{Method: "eth_getBalance", Params: []any{addr, tag}}, nil
}

// DecodeBalance reads the wei balance from an eth_getBalance result.
func DecodeBalance(result any) (*big.Int, error) {
	s, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: balance result is %T", codec.ErrInvalidValue, result)
	}
	v, err := codec.Cast(codec.Quantity(), s)
	if err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	return v.(*big.Int), nil
}

// Block is a decoded block header.
type Block struct {
	Number           *big.Int
	Hash             string
	ParentHash       string
	Timestamp        *big.Int
	Miner            string
	GasLimit         *big.Int
	GasUsed          *big.Int
	BaseFee          *big.Int
	TransactionCount int
	Status           Status
}

// BlockQuery builds an eth_getBlockByNumber request without full
// transactions. A nil number means latest.
func BlockQuery(number any) (Request, error) {
	tag, err := encodeBound(number)
	if err != nil {
		return Request{}, fmt.Errorf("block query: %w", err)
	}
	return Request{Method: "eth_getBlockByNumber", Params: []any{tag, false}}, nil
}

// DecodeBlock decodes an eth_getBlockByNumber result. It returns nil and no
// error when the node does not know the block.
func DecodeBlock(result any) (*Block, error) {
	if result == nil {
		return nil, nil
	}
	raw, err := model.ParseRawBlock(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", codec.ErrMalformedLog, err)
	}

	b := &Block{
		Hash:             raw.Hash,
		ParentHash:       raw.ParentHash,
		Miner:            raw.Miner,
		TransactionCount: len(raw.Transactions),
	}
	if raw.Number == "" {
		b.Status = StatusPending
	} else if b.Number, err = castQuantity("number", raw.Number); err != nil {
		return nil, err
	}
	fields := []struct {
		name string
		src  string
		dst  **big.Int
	}{
		{"timestamp", raw.Timestamp, &b.Timestamp},
		{"gasLimit", raw.GasLimit, &b.GasLimit},
		{"gasUsed", raw.GasUsed, &b.GasUsed},
		{"baseFeePerGas", raw.BaseFeePerGas, &b.BaseFee},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		if *f.dst, err = castQuantity(f.name, f.src); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func castQuantity(field, s string) (*big.Int, error) {
	v, err := codec.Cast(codec.Quantity(), s)
	if err != nil {
		return nil, fmt.Errorf("decode block %s: %w", field, err)
	}
	return v.(*big.Int), nil
}
