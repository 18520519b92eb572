package storage

import (
	"context"

	"eventscope/internal/model"
)

// Storage defines a sink for decoded event records.
type Storage interface {
	PutEventBatch(ctx context.Context, records []model.EventRecord) error
}
