package event

import (
	"fmt"
	"math/big"
	"strings"

	"eventscope/internal/codec"
	"eventscope/internal/model"
)

// Keys set in Header.Extra by DecodeLog.
const (
	ExtraTxHash   = "transaction_hash"
	ExtraTxIndex  = "transaction_index"
	ExtraRemoved  = "removed"
	ExtraDataTail = "data_tail"
)

// DropFunc is told about every log entry BuildResult leaves out.
type DropFunc func(index int, raw model.RawLog, err error)

// BuildResult decodes an eth_getLogs result. Entries that belong to another
// event or are malformed are dropped and reported to onDrop, which may be
// nil; they never fail the batch. Only a result that is not a list fails.
func BuildResult(meta *Metadata, result any, onDrop DropFunc) ([]*Record, error) {
	if result == nil {
		return nil, nil
	}
	entries, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: logs result is %T, want list", codec.ErrMalformedLog, result)
	}

	records := make([]*Record, 0, len(entries))
	for i, entry := range entries {
		raw, err := model.ParseRawLog(entry)
		if err != nil {
			drop(onDrop, i, raw, fmt.Errorf("%w: %w", codec.ErrMalformedLog, err))
			continue
		}
		rec, err := DecodeLog(meta, raw)
		if err != nil {
			drop(onDrop, i, raw, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func drop(onDrop DropFunc, i int, raw model.RawLog, err error) {
	if onDrop != nil {
		onDrop(i, raw, err)
	}
}

// DecodeLog decodes a single raw log into a record of the event. It fails
// with codec.ErrSignatureMismatch when topic zero names another event.
func DecodeLog(meta *Metadata, raw model.RawLog) (*Record, error) {
	if len(raw.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", codec.ErrMalformedLog)
	}
	if !strings.EqualFold(raw.Topics[0], meta.Signature()) {
		return nil, fmt.Errorf("%w: topic0 %s, want %s", codec.ErrSignatureMismatch, raw.Topics[0], meta.Signature())
	}
	if got, want := len(raw.Topics)-1, len(meta.indexedPos); got != want {
		return nil, fmt.Errorf("%w: %d indexed topics, want %d", codec.ErrMalformedLog, got, want)
	}

	rec := NewRecord(meta)
	if err := decodeHeader(&rec.Header, raw); err != nil {
		return nil, err
	}

	for i, pos := range meta.indexedPos {
		arg := meta.arguments[pos]
		v, err := codec.Cast(arg.Type, raw.Topics[i+1])
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", meta.Name(), arg.Name, err)
		}
		rec.values[pos] = v
	}

	types := make([]codec.Type, len(meta.dataPos))
	for i, pos := range meta.dataPos {
		types[i] = codec.Topic(meta.arguments[pos].Type)
	}
	values, rest, err := codec.DecodePacked(types, raw.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s data: %w", meta.Name(), err)
	}
	for i, pos := range meta.dataPos {
		rec.values[pos] = values[i]
	}
	if rest != "" {
		rec.setExtra(ExtraDataTail, "0x"+rest)
	}
	return rec, nil
}

func decodeHeader(h *Header, raw model.RawLog) error {
	if raw.Address == "" {
		return fmt.Errorf("%w: missing address", codec.ErrMalformedLog)
	}
	addr, err := codec.Cast(codec.Address(), raw.Address)
	if err != nil {
		return fmt.Errorf("%w: address: %w", codec.ErrMalformedLog, err)
	}
	h.Address = addr
	h.BlockHash = raw.BlockHash

	switch raw.BlockNumber {
	case "", codec.TagPending:
		h.Status = StatusPending
	default:
		n, err := codec.Cast(codec.Uint(256), raw.BlockNumber)
		if err != nil {
			return fmt.Errorf("%w: blockNumber: %w", codec.ErrMalformedLog, err)
		}
		h.BlockNumber = n.(*big.Int)
		h.Status = StatusMined
	}

	if raw.LogIndex != "" {
		n, err := codec.Cast(codec.Uint(256), raw.LogIndex)
		if err != nil {
			return fmt.Errorf("%w: logIndex: %w", codec.ErrMalformedLog, err)
		}
		h.LogIndex = n.(*big.Int)
	}

	if raw.TransactionHash != "" {
		h.setExtra(ExtraTxHash, raw.TransactionHash)
	}
	if raw.TransactionIndex != "" {
		h.setExtra(ExtraTxIndex, raw.TransactionIndex)
	}
	if raw.Removed {
		h.setExtra(ExtraRemoved, true)
	}
	return nil
}

func (h *Header) setExtra(key string, v any) {
	if h.Extra == nil {
		h.Extra = make(map[string]any)
	}
	h.Extra[key] = v
}
