package event

import (
	"fmt"
	"math/big"
	"time"

	"eventscope/internal/model"
)

// Status reports whether a log is part of a mined block.
type Status int

const (
	StatusMined Status = iota
	StatusPending
)

func (s Status) String() string {
	if s == StatusPending {
		return "pending"
	}
	return "mined"
}

// Header holds the log fields that are not event arguments. When a record
// is used as a query, Address may be a single address or a list of them.
type Header struct {
	Address     any
	BlockHash   string
	BlockNumber *big.Int
	LogIndex    *big.Int
	Status      Status
	Extra       map[string]any
}

// Record is one event instance: a header plus one value per declared
// argument. A nil value means "any" when the record is a query.
type Record struct {
	Header
	meta   *Metadata
	values []any
}

// NewRecord returns an empty record for the event.
func NewRecord(meta *Metadata) *Record {
	return &Record{meta: meta, values: make([]any, meta.Arity())}
}

func (r *Record) Metadata() *Metadata { return r.meta }

// Set assigns the named argument. A nil value clears it.
func (r *Record) Set(name string, v any) error {
	i, ok := r.meta.ArgIndex(name)
	if !ok {
		return fmt.Errorf("event %s has no argument %q", r.meta.Name(), name)
	}
	r.values[i] = v
	return nil
}

// MustSet is Set for argument names known to exist. It returns the record
// so filters can be chained.
func (r *Record) MustSet(name string, v any) *Record {
	if err := r.Set(name, v); err != nil {
		panic(err)
	}
	return r
}

func (r *Record) Get(name string) any {
	i, ok := r.meta.ArgIndex(name)
	if !ok {
		return nil
	}
	return r.values[i]
}

// Value returns the argument at position i.
func (r *Record) Value(i int) any {
	return r.values[i]
}

// Args returns the arguments keyed by name.
func (r *Record) Args() map[string]any {
	out := make(map[string]any, len(r.values))
	for i, arg := range r.meta.arguments {
		out[arg.Name] = r.values[i]
	}
	return out
}

// AddressString returns the header address when it is a single string.
func (r *Record) AddressString() string {
	s, _ := r.Address.(string)
	return s
}

// Model converts a decoded record into its storage form.
func (r *Record) Model(chainID uint64, ingestedAt time.Time) model.EventRecord {
	args := make(map[string]any, len(r.values))
	for i, arg := range r.meta.arguments {
		args[arg.Name] = storable(r.values[i])
	}

	out := model.EventRecord{
		ChainID:    chainID,
		Event:      r.meta.ID(),
		Signature:  r.meta.Signature(),
		Address:    r.AddressString(),
		BlockHash:  r.BlockHash,
		Status:     r.Status.String(),
		Args:       args,
		IngestedAt: ingestedAt.UTC().Format(time.RFC3339),
	}
	if r.BlockNumber != nil && r.BlockNumber.IsUint64() {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	if r.LogIndex != nil && r.LogIndex.IsUint64() {
		out.LogIndex = r.LogIndex.Uint64()
	}
	if len(r.Extra) > 0 {
		out.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			if k == ExtraTxHash {
				out.TxHash, _ = v.(string)
				continue
			}
			out.Extra[k] = v
		}
		if len(out.Extra) == 0 {
			out.Extra = nil
		}
	}
	return out
}

func storable(v any) any {
	if n, ok := v.(*big.Int); ok && n != nil {
		return n.String()
	}
	return v
}
