package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventscope/internal/codec"
	"eventscope/internal/event"
	"eventscope/internal/model"
)

type mockCaller struct {
	mock.Mock
}

func (m *mockCaller) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *mockCaller) LatestBlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockCaller) Call(ctx context.Context, req event.Request) (any, error) {
	args := m.Called(ctx, req)
	return args.Get(0), args.Error(1)
}

type memoryStorage struct {
	records []model.EventRecord
}

func (s *memoryStorage) PutEventBatch(_ context.Context, records []model.EventRecord) error {
	s.records = append(s.records, records...)
	return nil
}

const (
	token  = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	holder = "0x1f7acda376ef37ec371235a094113df9cb4efee1"
)

func logEntry(t *testing.T, meta *event.Metadata, block uint64, logIndex int, value int64) map[string]any {
	t.Helper()
	from, err := codec.Encode(codec.Topic(codec.Address()), holder)
	require.NoError(t, err)
	to, err := codec.Encode(codec.Topic(codec.Address()), token)
	require.NoError(t, err)
	data, err := codec.Encode(codec.Topic(codec.Uint(256)), value)
	require.NoError(t, err)

	return map[string]any{
		"address":         token,
		"blockHash":       fmt.Sprintf("0x%064x", block),
		"blockNumber":     fmt.Sprintf("0x%x", block),
		"data":            data,
		"logIndex":        fmt.Sprintf("0x%x", logIndex),
		"topics":          []any{meta.Signature(), from, to},
		"transactionHash": fmt.Sprintf("0x%064x", block*100+uint64(logIndex)),
	}
}

func forRange(from, to string) any {
	return mock.MatchedBy(func(req event.Request) bool {
		if req.Method != "eth_getLogs" || len(req.Params) != 1 {
			return false
		}
		filter, ok := req.Params[0].(map[string]any)
		return ok && filter["fromBlock"] == from && filter["toBlock"] == to
	})
}

func TestRunnerDecodesDropsAndCheckpoints(t *testing.T) {
	caller := new(mockCaller)
	caller.On("ChainID", mock.Anything).Return(big.NewInt(1), nil)

	first := []any{
		logEntry(t, event.Transfer, 10, 0, 100),
		logEntry(t, event.Approval, 11, 1, 5),
	}
	second := []any{
		logEntry(t, event.Transfer, 10, 0, 100),
		logEntry(t, event.Transfer, 13, 2, 7),
	}
	caller.On("Call", mock.Anything, forRange("0xa", "0xb")).Return(first, nil).Once()
	caller.On("Call", mock.Anything, forRange("0xc", "0xd")).Return(nil, errors.New("timeout")).Once()
	caller.On("Call", mock.Anything, forRange("0xc", "0xd")).Return(second, nil).Once()

	filter, err := BuildFilter(event.Transfer, []string{token}, nil)
	require.NoError(t, err)

	sink := &memoryStorage{}
	cp := NewCheckpointStore(filepath.Join(t.TempDir(), "cp.json"), transferTopic)
	runner := NewRunner(RunConfig{
		Filter:       filter,
		FromBlock:    10,
		ToBlock:      13,
		BatchSize:    2,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, caller, sink, cp, nil)

	require.NoError(t, runner.Run(context.Background()))
	caller.AssertExpectations(t)

	require.Len(t, sink.records, 2)
	assert.Equal(t, uint64(10), sink.records[0].BlockNumber)
	assert.Equal(t, "100", sink.records[0].Args["value"])
	assert.Equal(t, uint64(13), sink.records[1].BlockNumber)
	assert.Equal(t, "7", sink.records[1].Args["value"])
	assert.Equal(t, token, sink.records[1].Args["to"])

	last, ok, err := cp.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(13), last)
}

func TestRunnerResumesFromCheckpointAndLatest(t *testing.T) {
	caller := new(mockCaller)
	caller.On("ChainID", mock.Anything).Return(big.NewInt(56), nil)
	caller.On("LatestBlockNumber", mock.Anything).Return(uint64(39), nil)
	caller.On("Call", mock.Anything, forRange("0x26", "0x27")).Return([]any{}, nil).Once()

	cp := NewCheckpointStore(filepath.Join(t.TempDir(), "cp.json"), transferTopic)
	require.NoError(t, cp.Save(context.Background(), 37))

	runner := NewRunner(RunConfig{
		Filter:    event.NewRecord(event.Transfer),
		BatchSize: 100,
	}, caller, &memoryStorage{}, cp, nil)

	require.NoError(t, runner.Run(context.Background()))
	caller.AssertExpectations(t)
}

func TestRunnerNothingToSync(t *testing.T) {
	caller := new(mockCaller)
	caller.On("ChainID", mock.Anything).Return(big.NewInt(1), nil)

	cp := NewCheckpointStore(filepath.Join(t.TempDir(), "cp.json"), transferTopic)
	require.NoError(t, cp.Save(context.Background(), 50))

	runner := NewRunner(RunConfig{
		Filter:    event.NewRecord(event.Transfer),
		FromBlock: 10,
		ToBlock:   20,
		BatchSize: 5,
	}, caller, &memoryStorage{}, cp, nil)

	require.NoError(t, runner.Run(context.Background()))
	caller.AssertNotCalled(t, "Call", mock.Anything, mock.Anything)
}

func TestRunnerFailsOnNonListResult(t *testing.T) {
	caller := new(mockCaller)
	caller.On("ChainID", mock.Anything).Return(big.NewInt(1), nil)
	caller.On("Call", mock.Anything, mock.Anything).Return("0x01", nil)

	runner := NewRunner(RunConfig{
		Filter:    event.NewRecord(event.Transfer),
		FromBlock: 1,
		ToBlock:   1,
		BatchSize: 1,
	}, caller, &memoryStorage{}, nil, nil)

	err := runner.Run(context.Background())
	assert.ErrorIs(t, err, codec.ErrMalformedLog)
}

func TestRunnerValidatesConfig(t *testing.T) {
	caller := new(mockCaller)
	runner := NewRunner(RunConfig{Filter: event.NewRecord(event.Transfer)}, caller, &memoryStorage{}, nil, nil)
	assert.ErrorContains(t, runner.Run(context.Background()), "batch size")

	runner = NewRunner(RunConfig{BatchSize: 1}, caller, &memoryStorage{}, nil, nil)
	assert.ErrorContains(t, runner.Run(context.Background()), "event filter")
}

func TestDropReason(t *testing.T) {
	cases := map[error]string{
		fmt.Errorf("x: %w", codec.ErrSignatureMismatch): "signature_mismatch",
		fmt.Errorf("x: %w", codec.ErrMalformedLog):      "malformed",
		fmt.Errorf("x: %w", codec.ErrTruncated):         "truncated",
		codec.ErrTooLong:                                "overflow",
		codec.ErrInvalidHex:                             "invalid_value",
		errors.New("boom"):                              "other",
	}
	for err, want := range cases {
		assert.Equal(t, want, DropReason(err), err.Error())
	}
}
