package main

import (
	"fmt"
	"iter"

	"github.com/spf13/cobra"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print candidate messages without posting",
		Long:  "Run the generator once over the stored corpus and print up to N messages. The corpus is neither updated nor saved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			b, _, err := newBot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			seq, err := b.Messages(cmd.Context(), cfg.Language)
			if err != nil {
				return err
			}
			for _, msg := range take(seq, count) {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of messages to print (0 prints all)")
	return cmd
}

// take collects the first n values of seq, or all of them when n <= 0.
func take(seq iter.Seq[string], n int) []string {
	var out []string
	for v := range seq {
		out = append(out, v)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
