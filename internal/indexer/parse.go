package indexer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"eventscope/internal/event"
)

// ParseAddresses validates contract addresses and returns them trimmed.
func ParseAddresses(inputs []string) ([]string, error) {
	addresses := make([]string, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, input)
	}
	return addresses, nil
}

// BuildFilter turns addresses and name=value argument filters into a query
// record for meta. Only indexed arguments can be filtered on.
func BuildFilter(meta *event.Metadata, addresses []string, args map[string]string) (*event.Record, error) {
	addrs, err := ParseAddresses(addresses)
	if err != nil {
		return nil, err
	}

	rec := event.NewRecord(meta)
	switch len(addrs) {
	case 0:
	case 1:
		rec.Address = addrs[0]
	default:
		rec.Address = addrs
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	arguments := meta.Arguments()
	for _, name := range names {
		i, ok := meta.ArgIndex(name)
		if !ok {
			return nil, fmt.Errorf("event %s has no argument %q", meta.Name(), name)
		}
		arg := arguments[i]
		if !arg.Indexed {
			return nil, fmt.Errorf("argument %q of %s is not indexed", name, meta.Name())
		}
		v, err := event.ParseValue(arg.Type, args[name])
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		if err := rec.Set(name, v); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
