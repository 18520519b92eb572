package event

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscope/internal/codec"
	"eventscope/internal/model"
)

const hundredWord = "0x0000000000000000000000000000000000000000000000000000000000000064"

func transferEntry() map[string]any {
	return map[string]any{
		"address":          "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"blockHash":        "0x8243343df08b9751f5ca0c5f8c9c0460d8a9b6351066fae0acbd4d3e776de8bb",
		"blockNumber":      "0x429d3b",
		"data":             hundredWord,
		"logIndex":         "0x56",
		"topics":           []any{transferSig, fromTopic, toTopic},
		"transactionHash":  "0xab059a62e22e230fe0f56d8555340a29b2e9532360368f810595453f6fdd213b",
		"transactionIndex": "0xac",
		"removed":          false,
	}
}

func TestDecodeTransferLog(t *testing.T) {
	records, err := BuildResult(Transfer, []any{transferEntry()}, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, fromAddr, rec.Get("from"))
	assert.Equal(t, toAddr, rec.Get("to"))
	assert.Equal(t, "100", rec.Get("value").(fmt.Stringer).String())

	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", rec.Address)
	assert.Equal(t, "4365627", rec.BlockNumber.String())
	assert.Equal(t, "86", rec.LogIndex.String())
	assert.Equal(t, StatusMined, rec.Status)
	assert.Equal(t, "0xab059a62e22e230fe0f56d8555340a29b2e9532360368f810595453f6fdd213b", rec.Extra[ExtraTxHash])

	transfer, err := TransferFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, fromAddr, transfer.From)
	assert.Equal(t, int64(100), transfer.Value.Int64())
}

func TestBuildResultDropsOtherEvents(t *testing.T) {
	other := transferEntry()
	other["topics"] = []any{Approval.Signature(), fromTopic, toTopic}

	var dropped []int
	records, err := BuildResult(Transfer, []any{other, transferEntry()}, func(i int, raw model.RawLog, err error) {
		dropped = append(dropped, i)
		assert.ErrorIs(t, err, codec.ErrSignatureMismatch)
		assert.Equal(t, Approval.Signature(), raw.Topic0())
	})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, []int{0}, dropped)
}

func TestBuildResultDropsMalformedEntries(t *testing.T) {
	noTopics := transferEntry()
	noTopics["topics"] = []any{}

	shortTopics := transferEntry()
	shortTopics["topics"] = []any{transferSig, fromTopic}

	shortData := transferEntry()
	shortData["data"] = "0x64"

	badBlock := transferEntry()
	badBlock["blockNumber"] = "0xzz"

	noAddress := transferEntry()
	delete(noAddress, "address")

	entries := []any{"0x01", noTopics, shortTopics, shortData, badBlock, noAddress, transferEntry()}
	errs := map[int]error{}
	records, err := BuildResult(Transfer, entries, func(i int, _ model.RawLog, err error) {
		errs[i] = err
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, errs, 6)

	assert.ErrorIs(t, errs[0], codec.ErrMalformedLog)
	assert.ErrorIs(t, errs[1], codec.ErrMalformedLog)
	assert.ErrorIs(t, errs[2], codec.ErrMalformedLog)
	assert.ErrorIs(t, errs[3], codec.ErrTruncated)
	assert.ErrorIs(t, errs[4], codec.ErrMalformedLog)
	assert.ErrorIs(t, errs[4], codec.ErrInvalidHex)
	assert.ErrorIs(t, errs[5], codec.ErrMalformedLog)
}

func TestBuildResultRejectsNonList(t *testing.T) {
	_, err := BuildResult(Transfer, map[string]any{}, nil)
	assert.ErrorIs(t, err, codec.ErrMalformedLog)

	records, err := BuildResult(Transfer, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeLogPending(t *testing.T) {
	raw := model.RawLog{
		Address: fromAddr,
		Data:    hundredWord,
		Topics:  []string{"0x" + strings.ToUpper(transferSig[2:]), fromTopic, toTopic},
	}

	rec, err := DecodeLog(Transfer, raw)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Nil(t, rec.BlockNumber)
	assert.Nil(t, rec.LogIndex)

	raw.BlockNumber = "pending"
	rec, err = DecodeLog(Transfer, raw)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)
}

func TestDecodeLogKeepsDataTail(t *testing.T) {
	raw := model.RawLog{
		Address:     fromAddr,
		BlockNumber: "0x1",
		Data:        hundredWord + "abcd",
		Topics:      []string{transferSig, fromTopic, toTopic},
	}
	rec, err := DecodeLog(Transfer, raw)
	require.NoError(t, err)
	assert.Equal(t, "0xabcd", rec.Extra[ExtraDataTail])
}

func TestDecodeLogSignedData(t *testing.T) {
	meta, err := ParseDeclaration("Moved(int24 indexed tick, int256 delta, bool up, bytes4 tag)")
	require.NoError(t, err)

	tick, err := codec.Encode(codec.Topic(codec.Int(24)), -5)
	require.NoError(t, err)
	delta, err := codec.Encode(codec.Topic(codec.Int(256)), -1000)
	require.NoError(t, err)
	up, err := codec.Encode(codec.Topic(codec.Bool()), true)
	require.NoError(t, err)
	tag, err := codec.Encode(codec.Topic(codec.Bytes(4)), "foo")
	require.NoError(t, err)

	rec, err := DecodeLog(meta, model.RawLog{
		Address:     fromAddr,
		BlockNumber: "0x10",
		Topics:      []string{meta.Signature(), tick},
		Data:        delta + up[2:] + tag[2:],
	})
	require.NoError(t, err)
	assert.Equal(t, "-5", rec.Get("tick").(fmt.Stringer).String())
	assert.Equal(t, "-1000", rec.Get("delta").(fmt.Stringer).String())
	assert.Equal(t, true, rec.Get("up"))
	assert.Equal(t, "0x666f6f00", rec.Get("tag"))
}

func TestRecordModel(t *testing.T) {
	records, err := BuildResult(Transfer, []any{transferEntry()}, nil)
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := records[0].Model(1, at)
	assert.Equal(t, uint64(1), out.ChainID)
	assert.Equal(t, "Transfer", out.Event)
	assert.Equal(t, transferSig, out.Signature)
	assert.Equal(t, uint64(4365627), out.BlockNumber)
	assert.Equal(t, uint64(86), out.LogIndex)
	assert.Equal(t, "mined", out.Status)
	assert.Equal(t, "0xab059a62e22e230fe0f56d8555340a29b2e9532360368f810595453f6fdd213b", out.TxHash)
	assert.Equal(t, "100", out.Args["value"])
	assert.Equal(t, fromAddr, out.Args["from"])
	assert.Equal(t, map[string]any{ExtraTxIndex: "0xac"}, out.Extra)
	assert.Equal(t, "2024-01-01T00:00:00Z", out.IngestedAt)
}

func TestTransferFromRecordRejectsOtherEvents(t *testing.T) {
	_, err := TransferFromRecord(NewRecord(Approval))
	assert.True(t, errors.Is(err, codec.ErrSignatureMismatch))

	_, err = TransferFromRecord(NewRecord(Transfer))
	assert.Error(t, err)
}

func TestDecodeLogSmallDataArgsUseFullWords(t *testing.T) {
	meta, err := ParseDeclaration("Tuned(uint8 level, uint16 ratio)")
	require.NoError(t, err)

	level := "0x" + strings.Repeat("0", 62) + "07"
	ratio := strings.Repeat("0", 60) + "0100"

	rec, err := DecodeLog(meta, model.RawLog{
		Address:     fromAddr,
		BlockNumber: "0x10",
		Topics:      []string{meta.Signature()},
		Data:        level + ratio,
	})
	require.NoError(t, err)
	assert.Equal(t, "7", rec.Get("level").(fmt.Stringer).String())
	assert.Equal(t, "256", rec.Get("ratio").(fmt.Stringer).String())
	assert.NotContains(t, rec.Extra, ExtraDataTail)

	// Natural-width packing (one byte, then two) is shorter than one word.
	_, err = DecodeLog(meta, model.RawLog{
		Address:     fromAddr,
		BlockNumber: "0x10",
		Topics:      []string{meta.Signature()},
		Data:        "0x070100",
	})
	assert.ErrorIs(t, err, codec.ErrTruncated)
}

func TestDecodeLogRejectsMisalignedBytesWord(t *testing.T) {
	meta, err := ParseDeclaration("Tagged(bytes4 tag)")
	require.NoError(t, err)

	_, err = DecodeLog(meta, model.RawLog{
		Address:     fromAddr,
		BlockNumber: "0x10",
		Topics:      []string{meta.Signature()},
		Data:        "0x" + strings.Repeat("0", 56) + "666f6f00",
	})
	assert.ErrorIs(t, err, codec.ErrTooLong)
}
