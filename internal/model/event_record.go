package model

// EventRecord is the storage form of a decoded event log. Integer
// arguments are kept as decimal strings to preserve precision in JSON.
type EventRecord struct {
	ChainID     uint64         `json:"chain_id"`
	Event       string         `json:"event"`
	Signature   string         `json:"signature"`
	Address     string         `json:"address"`
	BlockNumber uint64         `json:"block_number"`
	BlockHash   string         `json:"block_hash"`
	TxHash      string         `json:"tx_hash"`
	LogIndex    uint64         `json:"log_index"`
	Status      string         `json:"status"`
	Args        map[string]any `json:"args"`
	Extra       map[string]any `json:"extra,omitempty"`
	IngestedAt  string         `json:"ingested_at"`
}
