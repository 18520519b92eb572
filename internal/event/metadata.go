package event

import (
	"fmt"

	"eventscope/internal/codec"
)

// maxIndexed is the number of topics left after topic zero.
const maxIndexed = 3

// Argument is one declared event argument.
type Argument struct {
	Name    string
	Type    codec.Type
	Indexed bool
}

// Metadata describes a declared event. It is built once and never changes,
// so a single value can be shared by any number of goroutines.
type Metadata struct {
	id            string
	name          string
	canonicalName string
	signature     string
	arguments     []Argument
	indexedPos    []int
	dataPos       []int
}

func (m *Metadata) ID() string            { return m.id }
func (m *Metadata) Name() string          { return m.name }
func (m *Metadata) Arity() int            { return len(m.arguments) }
func (m *Metadata) CanonicalName() string { return m.canonicalName }

// Signature is topic zero of every log emitted for this event.
func (m *Metadata) Signature() string { return m.signature }

// Arguments returns a copy of the declared arguments in order.
func (m *Metadata) Arguments() []Argument {
	out := make([]Argument, len(m.arguments))
	copy(out, m.arguments)
	return out
}

// IndexedArguments returns the arguments carried in topics, in order.
func (m *Metadata) IndexedArguments() []Argument {
	return m.pick(m.indexedPos)
}

// DataArguments returns the arguments carried in the data payload, in order.
func (m *Metadata) DataArguments() []Argument {
	return m.pick(m.dataPos)
}

func (m *Metadata) pick(pos []int) []Argument {
	out := make([]Argument, len(pos))
	for i, p := range pos {
		out[i] = m.arguments[p]
	}
	return out
}

// ArgIndex returns the position of the named argument.
func (m *Metadata) ArgIndex(name string) (int, bool) {
	for i, arg := range m.arguments {
		if arg.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (m *Metadata) String() string {
	return m.canonicalName
}

// Builder declares an event argument by argument.
//
//	transfer, err := event.New("Transfer").
//		Indexed("from", codec.Address()).
//		Indexed("to", codec.Address()).
//		Arg("value", codec.Uint(256)).
//		Build()
type Builder struct {
	id   string
	name string
	args []Argument
}

// New starts a declaration for the named event.
func New(name string) *Builder {
	return &Builder{name: name}
}

// WithID sets the identifier reported by Metadata.ID. It defaults to the
// event name.
func (b *Builder) WithID(id string) *Builder {
	b.id = id
	return b
}

// Indexed appends an argument stored in the log topics.
func (b *Builder) Indexed(name string, t codec.Type) *Builder {
	b.args = append(b.args, Argument{Name: name, Type: t, Indexed: true})
	return b
}

// Arg appends an argument stored in the log data.
func (b *Builder) Arg(name string, t codec.Type) *Builder {
	b.args = append(b.args, Argument{Name: name, Type: t})
	return b
}

// Build validates the declaration and computes its signature.
func (b *Builder) Build() (*Metadata, error) {
	if b.name == "" {
		return nil, fmt.Errorf("event name is required")
	}

	m := &Metadata{
		id:        b.id,
		name:      b.name,
		arguments: make([]Argument, len(b.args)),
	}
	if m.id == "" {
		m.id = b.name
	}

	seen := make(map[string]struct{}, len(b.args))
	types := make([]codec.Type, len(b.args))
	for i, arg := range b.args {
		if arg.Name == "" {
			arg.Name = fmt.Sprintf("arg%d", i)
		}
		if _, dup := seen[arg.Name]; dup {
			return nil, fmt.Errorf("event %s: duplicate argument %q", b.name, arg.Name)
		}
		seen[arg.Name] = struct{}{}

		if err := validateArgType(arg.Type); err != nil {
			return nil, fmt.Errorf("event %s: argument %q: %w", b.name, arg.Name, err)
		}

		m.arguments[i] = arg
		types[i] = arg.Type
		if arg.Indexed {
			m.indexedPos = append(m.indexedPos, i)
		} else {
			m.dataPos = append(m.dataPos, i)
		}
	}
	if len(m.indexedPos) > maxIndexed {
		return nil, fmt.Errorf("event %s: %d indexed arguments, max %d", b.name, len(m.indexedPos), maxIndexed)
	}

	m.canonicalName = codec.CanonicalName(b.name, types)
	m.signature = codec.Signature(m.canonicalName)
	return m, nil
}

// MustBuild is like Build but panics on an invalid declaration. It is meant
// for package-level event variables.
func (b *Builder) MustBuild() *Metadata {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func validateArgType(t codec.Type) error {
	if err := t.Validate(); err != nil {
		return err
	}
	switch t.Kind {
	case codec.BoolKind, codec.AddressKind, codec.UintKind, codec.IntKind, codec.BytesKind:
		return nil
	default:
		return fmt.Errorf("%w: %s cannot be an event argument", codec.ErrUnrecognizedType, t)
	}
}
