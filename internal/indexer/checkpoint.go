package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Checkpointer persists the last block range end written to storage.
type Checkpointer interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, lastProcessed uint64) error
}

// Checkpoint tracks the last processed block of one event filter.
type Checkpoint struct {
	Event              string `json:"event"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk. A file written for another
// event is treated as absent.
type CheckpointStore struct {
	path  string
	event string
}

// NewCheckpointStore keys the checkpoint at path by event, usually the
// filter's topic zero.
func NewCheckpointStore(path, event string) *CheckpointStore {
	return &CheckpointStore{path: path, event: event}
}

func (c *CheckpointStore) Load(context.Context) (uint64, bool, error) {
	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return 0, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	if !strings.EqualFold(cp.Event, c.event) {
		return 0, false, nil
	}

	return cp.LastProcessedBlock, true, nil
}

func (c *CheckpointStore) Save(_ context.Context, lastProcessed uint64) error {
	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp := Checkpoint{
		Event:              c.event,
		LastProcessedBlock: lastProcessed,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}

// StateStore keeps named checkpoints, as postgres.Store does.
type StateStore interface {
	LoadCheckpoint(ctx context.Context, name string) (uint64, bool, error)
	SaveCheckpoint(ctx context.Context, name string, block uint64) error
}

type stateCheckpoint struct {
	store StateStore
	name  string
}

// NewStateCheckpoint stores the checkpoint under name in store.
func NewStateCheckpoint(store StateStore, name string) Checkpointer {
	return stateCheckpoint{store: store, name: name}
}

func (s stateCheckpoint) Load(ctx context.Context) (uint64, bool, error) {
	return s.store.LoadCheckpoint(ctx, s.name)
}

func (s stateCheckpoint) Save(ctx context.Context, lastProcessed uint64) error {
	return s.store.SaveCheckpoint(ctx, s.name, lastProcessed)
}
