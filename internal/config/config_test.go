package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func logsFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("logs", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("event", "", "")
	flags.StringSlice("address", nil, "")
	flags.StringSlice("arg", nil, "")
	flags.Uint64("from", 0, "")
	flags.Uint64("to", 0, "")
	flags.Uint64("batch-size", 2000, "")
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags
}

// chdir keeps a stray config.yaml in the working directory out of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadFromFlags(t *testing.T) {
	chdir(t, t.TempDir())

	flags := logsFlags(t,
		"--rpc", "http://localhost:8545",
		"--address", "0x01, 0x02",
		"--arg", "to=0x03",
		"--from", "10",
		"--to", "39",
	)
	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.RPCURL != "http://localhost:8545" || cfg.FromBlock != 10 || cfg.ToBlock != 39 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Addresses, []string{"0x01", "0x02"}) {
		t.Fatalf("addresses mismatch: %v", cfg.Addresses)
	}
	if !reflect.DeepEqual(cfg.Args, map[string]string{"to": "0x03"}) {
		t.Fatalf("args mismatch: %v", cfg.Args)
	}
	if cfg.Event != "Transfer" || cfg.MaxRetries != 5 || cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFromEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eventscope.yaml")
	body := "event: \"Approval(address indexed owner, address indexed spender, uint256 value)\"\n" +
		"arg:\n  owner: \"0x01\"\n" +
		"pg-dsn: postgres://localhost/events\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EVENTSCOPE_METRICS_ADDR", ":9100")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Fatalf("metrics addr from env not applied: %q", cfg.MetricsAddr)
	}
	if cfg.PGDSN != "postgres://localhost/events" {
		t.Fatalf("pg dsn mismatch: %q", cfg.PGDSN)
	}
	if !reflect.DeepEqual(cfg.Args, map[string]string{"owner": "0x01"}) {
		t.Fatalf("args mismatch: %v", cfg.Args)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoadQueryDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadQuery("", nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Block != "latest" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseStringMap(t *testing.T) {
	got := parseStringMap("from=0x01, to = 0x02,bad,=x")
	want := map[string]string{"from": "0x01", "to": "0x02"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("map mismatch: %v != %v", got, want)
	}
}
