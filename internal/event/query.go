package event

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"eventscope/internal/codec"
)

// Request is a JSON-RPC method call ready to be sent to a node.
type Request struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// QueryOptions bounds a log query. A nil bound means "latest". Bounds
// accept anything codec.Quantity encodes: integers, hex strings or tags.
type QueryOptions struct {
	FromBlock any
	ToBlock   any
}

// BuildQuery turns a partially filled record into an eth_getLogs request.
// Set indexed arguments become topic filters and unset ones match anything.
// Data arguments never reach the filter.
func BuildQuery(r *Record, opts QueryOptions) (Request, error) {
	meta := r.Metadata()
	filter := map[string]any{}

	if r.Address != nil {
		addr, err := encodeAddressFilter(r.Address)
		if err != nil {
			return Request{}, fmt.Errorf("query %s: address: %w", meta.Name(), err)
		}
		filter["address"] = addr
	}

	from, err := encodeBound(opts.FromBlock)
	if err != nil {
		return Request{}, fmt.Errorf("query %s: fromBlock: %w", meta.Name(), err)
	}
	to, err := encodeBound(opts.ToBlock)
	if err != nil {
		return Request{}, fmt.Errorf("query %s: toBlock: %w", meta.Name(), err)
	}
	filter["fromBlock"] = from
	filter["toBlock"] = to

	topics := []any{meta.Signature()}
	for _, pos := range meta.indexedPos {
		arg := meta.arguments[pos]
		v := r.values[pos]
		if v == nil {
			topics = append(topics, nil)
			continue
		}
		enc, err := codec.Encode(codec.Topic(arg.Type), v)
		if err != nil {
			return Request{}, fmt.Errorf("query %s: %s: %w", meta.Name(), arg.Name, err)
		}
		topics = append(topics, enc)
	}
	filter["topics"] = topics

	return Request{Method: "eth_getLogs", Params: []any{filter}}, nil
}

func encodeAddressFilter(v any) (any, error) {
	switch v.(type) {
	case string, common.Address, *common.Address:
		return codec.Encode(codec.Address(), v)
	default:
		return codec.EncodeArray(codec.Array(codec.Address()), v)
	}
}

func encodeBound(v any) (string, error) {
	if v == nil {
		return codec.TagLatest, nil
	}
	return codec.Encode(codec.Quantity(), v)
}
