package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "EVENTSCOPE"

// Config holds settings for the logs command.
type Config struct {
	RPCURL            string
	Event             string
	Addresses         []string
	Args              map[string]string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	MetricsAddr       string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"event":              "Transfer",
		"batch-size":         uint64(2000),
		"out":                "./data/events.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"log-level":          "info",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		Event:             v.GetString("event"),
		Addresses:         getStringSlice(v, "address"),
		Args:              getStringMap(v, "arg"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
