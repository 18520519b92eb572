package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventscope/internal/codec"
	"eventscope/internal/event"
)

func newSignatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signature <declaration>",
		Short: "Print the canonical name, topic0 and selector of a declaration",
		Example: `  eventscope signature "Transfer(address indexed from, address indexed to, uint256 value)"
  eventscope signature Approval`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := event.Lookup(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "canonical: %s\n", meta.CanonicalName())
			fmt.Fprintf(out, "topic0:    %s\n", meta.Signature())
			fmt.Fprintf(out, "selector:  %s\n", codec.Selector(meta.CanonicalName()))
			return nil
		},
	}
}
