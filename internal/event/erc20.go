package event

import (
	"fmt"
	"math/big"

	"eventscope/internal/codec"
)

var (
	Transfer = New("Transfer").
		Indexed("from", codec.Address()).
		Indexed("to", codec.Address()).
		Arg("value", codec.Uint(256)).
		MustBuild()

	Approval = New("Approval").
		Indexed("owner", codec.Address()).
		Indexed("spender", codec.Address()).
		Arg("value", codec.Uint(256)).
		MustBuild()
)

// ERC20 view functions used by the token command.
const (
	DecimalsSig    = "decimals()"
	TotalSupplySig = "totalSupply()"
	BalanceOfSig   = "balanceOf(address)"
)

// Builtin maps the event IDs known without a declaration to their metadata.
var Builtin = map[string]*Metadata{
	Transfer.ID(): Transfer,
	Approval.ID(): Approval,
}

// TransferEvent is a typed view of a decoded Transfer record.
type TransferEvent struct {
	Header
	From  string
	To    string
	Value *big.Int
}

// TransferFromRecord converts a decoded Transfer record.
func TransferFromRecord(r *Record) (TransferEvent, error) {
	if r.Metadata().Signature() != Transfer.Signature() {
		return TransferEvent{}, fmt.Errorf("%w: record is %s", codec.ErrSignatureMismatch, r.Metadata().Name())
	}
	from, _ := r.Get("from").(string)
	to, _ := r.Get("to").(string)
	value, _ := r.Get("value").(*big.Int)
	if from == "" || to == "" || value == nil {
		return TransferEvent{}, fmt.Errorf("transfer record is not fully decoded")
	}
	return TransferEvent{Header: r.Header, From: from, To: to, Value: value}, nil
}

// Lookup resolves a built-in event ID such as "Transfer", or parses s as a
// declaration.
func Lookup(s string) (*Metadata, error) {
	if meta, ok := Builtin[s]; ok {
		return meta, nil
	}
	return ParseDeclaration(s)
}
