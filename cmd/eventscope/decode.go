package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventscope/internal/codec"
	"eventscope/internal/config"
	"eventscope/internal/event"
	"eventscope/internal/model"
	"eventscope/internal/storage"
)

func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw eth_getLogs entries from JSONL into event records",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("event", "Transfer", "built-in event name or declaration")
	decodeCmd.Flags().Uint64("chain-id", 0, "chain id stamped on output records")
	decodeCmd.Flags().String("in", "", "input raw logs JSONL, one eth_getLogs entry per line")
	decodeCmd.Flags().String("out", "./data/events.jsonl", "output event records JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return decodeCmd
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	meta, err := event.Lookup(cfg.Event)
	if err != nil {
		return err
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("event", meta.CanonicalName()),
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
	)

	stats, err := decodeStream(meta, cfg.ChainID, inputFile, outWriter, errWriter)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)

	return nil
}

type recordWriter interface {
	Write(value interface{}) error
}

type decodeStats struct {
	total, decoded, skipped, failed int
}

// decodeStream decodes every line of in. Logs of other events are skipped;
// lines that fail to parse or decode go to errs.
func decodeStream(meta *event.Metadata, chainID uint64, in io.Reader, out, errs recordWriter) (decodeStats, error) {
	var stats decodeStats

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.total++

		var raw model.RawLog
		if err := json.Unmarshal(line, &raw); err != nil {
			stats.failed++
			_ = errs.Write(model.DecodeError{ChainID: chainID, Event: meta.ID(), Error: err.Error()})
			continue
		}

		rec, err := event.DecodeLog(meta, raw)
		if errors.Is(err, codec.ErrSignatureMismatch) {
			stats.skipped++
			continue
		}
		if err != nil {
			stats.failed++
			_ = errs.Write(model.NewDecodeError(chainID, meta.ID(), raw, err))
			continue
		}

		if err := out.Write(rec.Model(chainID, time.Now())); err != nil {
			return stats, err
		}
		stats.decoded++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}
