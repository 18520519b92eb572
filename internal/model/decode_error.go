package model

// DecodeError records a log that was dropped during decoding.
type DecodeError struct {
	ChainID     uint64 `json:"chain_id"`
	Event       string `json:"event"`
	BlockNumber string `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    string `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Error       string `json:"error"`
}

// NewDecodeError builds a DecodeError from the offending raw log.
func NewDecodeError(chainID uint64, event string, raw RawLog, err error) DecodeError {
	return DecodeError{
		ChainID:     chainID,
		Event:       event,
		BlockNumber: raw.BlockNumber,
		TxHash:      raw.TransactionHash,
		LogIndex:    raw.LogIndex,
		Address:     raw.Address,
		Topic0:      raw.Topic0(),
		Error:       err.Error(),
	}
}
