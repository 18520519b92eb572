package model

// TokenInfo captures ERC20 state read through eth_call.
type TokenInfo struct {
	Address     string `json:"address"`
	Block       string `json:"block"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
	Holder      string `json:"holder,omitempty"`
	Balance     string `json:"balance,omitempty"`
}
