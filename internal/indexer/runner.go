package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"eventscope/internal/codec"
	"eventscope/internal/event"
	"eventscope/internal/metrics"
	"eventscope/internal/model"
	"eventscope/internal/storage"
)

// Caller is the part of chain.Client the runner needs.
type Caller interface {
	ChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	Call(ctx context.Context, req event.Request) (any, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	Filter       *event.Record
	FromBlock    uint64
	ToBlock      uint64
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Runner streams one event's logs from the chain and writes them to storage.
type Runner struct {
	cfg        RunConfig
	chain      Caller
	storage    storage.Storage
	checkpoint Checkpointer
	logger     *zap.Logger
	seen       map[string]struct{}
}

// NewRunner builds a Runner with its dependencies. checkpoint may be nil.
func NewRunner(cfg RunConfig, chainClient Caller, storageSink storage.Storage, checkpoint Checkpointer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		storage:    storageSink,
		checkpoint: checkpoint,
		logger:     logger,
		seen:       make(map[string]struct{}),
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.Filter == nil {
		return fmt.Errorf("event filter is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	meta := r.cfg.Filter.Metadata()

	chainID, err := r.chain.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		last, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return err
		}
		if ok && last >= from {
			from = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch logs", zap.String("event", meta.ID()), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		req, err := event.BuildQuery(r.cfg.Filter, blockRange.Options())
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		result, err := r.callWithRetry(ctx, req)
		if err != nil {
			return fmt.Errorf("get logs: %w", err)
		}

		decoded, err := event.BuildResult(meta, result, r.onDrop(meta))
		if err != nil {
			return fmt.Errorf("decode logs %d-%d: %w", blockRange.From, blockRange.To, err)
		}

		ingestedAt := time.Now().UTC()
		records := make([]model.EventRecord, 0, len(decoded))
		for _, rec := range decoded {
			if r.isDuplicate(rec) {
				continue
			}
			records = append(records, rec.Model(chainIDValue, ingestedAt))
		}

		if err := r.storage.PutEventBatch(ctx, records); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		metrics.DecodedLogsCounter.WithLabelValues(meta.ID()).Add(float64(len(records)))

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(ctx, blockRange.To); err != nil {
				return err
			}
		}
		metrics.LastProcessedBlockGauge.WithLabelValues(meta.ID()).Set(float64(blockRange.To))

		r.logger.Info("batch complete", zap.Int("events", len(records)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	return nil
}

func (r *Runner) callWithRetry(ctx context.Context, req event.Request) (any, error) {
	var result any
	policy := newRetryPolicy(r.cfg.MaxRetries, r.cfg.RetryBackoff)
	err := policy.do(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.chain.Call(ctx, req)
		if err != nil {
			metrics.RPCErrorsCounter.WithLabelValues(req.Method).Inc()
		}
		return err
	}, func(attempt int, wait time.Duration, err error) {
		r.logger.Warn("rpc call failed, retrying",
			zap.String("method", req.Method),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	return result, err
}

func (r *Runner) onDrop(meta *event.Metadata) event.DropFunc {
	return func(i int, raw model.RawLog, err error) {
		reason := DropReason(err)
		metrics.DroppedLogsCounter.WithLabelValues(meta.ID(), reason).Inc()

		// Unrelated logs are expected when the filter is broad.
		level := r.logger.Warn
		if reason == "signature_mismatch" {
			level = r.logger.Debug
		}
		level("log dropped",
			zap.Int("index", i),
			zap.String("reason", reason),
			zap.String("block_number", raw.BlockNumber),
			zap.String("tx_hash", raw.TransactionHash),
			zap.Error(err),
		)
	}
}

func (r *Runner) isDuplicate(rec *event.Record) bool {
	id := fmt.Sprintf("%s:%s:%s", rec.BlockHash, rec.Extra[event.ExtraTxHash], rec.LogIndex)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}

// DropReason maps a decode error to a short metrics label.
func DropReason(err error) string {
	switch {
	case errors.Is(err, codec.ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, codec.ErrMalformedLog):
		return "malformed"
	case errors.Is(err, codec.ErrTruncated):
		return "truncated"
	case errors.Is(err, codec.ErrOverflow), errors.Is(err, codec.ErrTooLong):
		return "overflow"
	case errors.Is(err, codec.ErrInvalidHex), errors.Is(err, codec.ErrInvalidValue):
		return "invalid_value"
	default:
		return "other"
	}
}
