package model

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// RawLog is a log entry as returned by eth_getLogs. Numeric fields stay in
// their hex quantity form; a pending log carries empty block fields.
type RawLog struct {
	Address          string   `json:"address"`
	BlockHash        string   `json:"blockHash,omitempty"`
	BlockNumber      string   `json:"blockNumber,omitempty"`
	Data             string   `json:"data"`
	LogIndex         string   `json:"logIndex,omitempty"`
	Topics           []string `json:"topics"`
	TransactionHash  string   `json:"transactionHash,omitempty"`
	TransactionIndex string   `json:"transactionIndex,omitempty"`
	Removed          bool     `json:"removed,omitempty"`
}

// Topic0 returns the first topic or an empty string.
func (l RawLog) Topic0() string {
	if len(l.Topics) == 0 {
		return ""
	}
	return l.Topics[0]
}

// ParseRawLog converts one generic JSON-RPC result entry into a RawLog.
func ParseRawLog(entry any) (RawLog, error) {
	var out RawLog
	if err := decodeJSONMap(entry, &out); err != nil {
		return RawLog{}, fmt.Errorf("parse log: %w", err)
	}
	return out, nil
}

func decodeJSONMap(in any, out any) error {
	if _, ok := in.(map[string]any); !ok {
		return fmt.Errorf("expected object, got %T", in)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
