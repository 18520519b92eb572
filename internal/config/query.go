package config

import (
	"github.com/spf13/pflag"
)

// QueryConfig holds settings shared by the one-shot node query commands.
type QueryConfig struct {
	RPCURL   string
	Block    string
	LogLevel string
}

// LoadQuery merges config file, environment variables, and flags into QueryConfig.
func LoadQuery(cfgFile string, flags *pflag.FlagSet) (QueryConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"block":     "latest",
		"log-level": "info",
	})
	if err != nil {
		return QueryConfig{}, err
	}

	return QueryConfig{
		RPCURL:   v.GetString("rpc"),
		Block:    v.GetString("block"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
