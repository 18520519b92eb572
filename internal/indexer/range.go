package indexer

import (
	"fmt"

	"eventscope/internal/event"
)

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// Options returns the range as eth_getLogs block bounds.
func (r BlockRange) Options() event.QueryOptions {
	return event.QueryOptions{FromBlock: r.From, ToBlock: r.To}
}

// SplitRange splits [from, to] into consecutive ranges of at most batchSize
// blocks.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; ; start += batchSize {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
	}
}
