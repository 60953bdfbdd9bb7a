package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/filippog/doaddoad/internal/corpus"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			store := corpus.NewStore(cfg.StateFile)
			if err := store.Load(cmd.Context()); err != nil {
				return err
			}
			saved, err := store.SavedAt(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), store, saved, time.Now())
			return nil
		},
	}
}

type langCount struct {
	code  string
	count int
}

func printStats(w io.Writer, store *corpus.Store, saved, now time.Time) {
	fmt.Fprintf(w, "State file:    %s\n", store.Path())
	fmt.Fprintf(w, "Posts:         %d\n", store.Len())

	if ids := store.IDs(); len(ids) > 0 {
		fmt.Fprintf(w, "Lowest id:     %d\n", ids[0])
		fmt.Fprintf(w, "Highest id:    %d\n", ids[len(ids)-1])
	}

	if saved.IsZero() {
		fmt.Fprintf(w, "Last save:     never\n")
	} else {
		fmt.Fprintf(w, "Last save:     %s (%s ago)\n", saved.Local().Format(time.RFC3339), now.Sub(saved).Round(time.Minute))
	}

	counts := map[string]int{}
	authors := map[string]bool{}
	for _, p := range store.Posts() {
		counts[p.LanguageCode()]++
		if p.Author != "" {
			authors[p.Author] = true
		}
	}
	fmt.Fprintf(w, "Authors:       %d\n", len(authors))

	if len(counts) == 0 {
		return
	}
	langs := make([]langCount, 0, len(counts))
	for code, n := range counts {
		langs = append(langs, langCount{code, n})
	}
	slices.SortFunc(langs, func(a, b langCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.code, b.code)
	})

	fmt.Fprintf(w, "\nLanguages (%d):\n", len(langs))
	for _, l := range langs {
		code := l.code
		if code == "" {
			code = "unknown"
		}
		fmt.Fprintf(w, "  %-10s %6d  %5.1f%%\n", code, l.count, float64(l.count)/float64(store.Len())*100)
	}
}
