package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"eventscope/internal/chain"
	"eventscope/internal/config"
	"eventscope/internal/event"
	"eventscope/internal/indexer"
	"eventscope/internal/metrics"
	"eventscope/internal/storage"
	"eventscope/internal/storage/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "eventscope",
		Short:        "Typed Ethereum event and node queries over JSON-RPC",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Fetch, decode and store the logs of one event",
		RunE:  runLogs,
	}

	logsCmd.Flags().String("rpc", "", "JSON-RPC URL")
	logsCmd.Flags().String("event", "Transfer", "built-in event name or declaration, e.g. \"Transfer(address indexed from, address indexed to, uint256 value)\"")
	logsCmd.Flags().StringSlice("address", nil, "contract addresses (comma-separated)")
	logsCmd.Flags().StringSlice("arg", nil, "indexed argument filters as name=value (repeatable)")
	logsCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	logsCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	logsCmd.Flags().Uint64("batch-size", 2000, "blocks per eth_getLogs call")
	logsCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	logsCmd.Flags().String("pg-dsn", "", "Postgres DSN; stores events and checkpoints in Postgres instead of files")
	logsCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	logsCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	logsCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	logsCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	logsCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	logsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(logsCmd)
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newBalanceCmd(), newBlockCmd(), newTokenCmd())
	root.AddCommand(newSignatureCmd())

	return root
}

func runLogs(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	meta, err := event.Lookup(cfg.Event)
	if err != nil {
		return err
	}
	filter, err := indexer.BuildFilter(meta, cfg.Addresses, cfg.Args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var (
		sink       storage.Storage
		checkpoint indexer.Checkpointer
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sink = store
		if cfg.CheckpointEnabled {
			checkpoint = indexer.NewStateCheckpoint(store, "logs:"+meta.Signature())
		}
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
		if cfg.CheckpointEnabled {
			checkpoint = indexer.NewCheckpointStore(cfg.Checkpoint, meta.Signature())
		}
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		Filter:       filter,
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, sink, checkpoint, logger)

	logger.Info("logs start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("event", meta.CanonicalName()),
		zap.String("topic0", meta.Signature()),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(cfg.Addresses)),
		zap.Int("arg_filters", len(cfg.Args)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	return runner.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
