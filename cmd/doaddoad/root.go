package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/filippog/doaddoad/internal/bot"
	"github.com/filippog/doaddoad/internal/config"
	"github.com/filippog/doaddoad/internal/coord"
	"github.com/filippog/doaddoad/internal/corpus"
	"github.com/filippog/doaddoad/internal/fetch"
	"github.com/filippog/doaddoad/internal/generator"
	"github.com/filippog/doaddoad/internal/logging"
	"github.com/filippog/doaddoad/internal/social"
	"github.com/filippog/doaddoad/internal/ui"
)

// pickerCandidates is how many messages the interactive picker shows.
const pickerCandidates = 20

// options holds the command line flags. Flags left unset do not override
// the configuration file.
type options struct {
	configFile  string
	stateFile   string
	generator   string
	lang        string
	logFile     string
	debug       bool
	dryRun      bool
	refresh     time.Duration
	trim        int
	status      string
	maxUpdates  int
	interactive bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "doaddoad",
		Short:         "Markov chain bot fed by its followers",
		Long:          "doaddoad reads the timelines of the accounts following it, runs them through dadadodo and posts the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "doaddoad.yaml", "configuration file")
	pf.StringVarP(&opts.stateFile, "state-file", "f", "", "corpus state file")
	pf.StringVar(&opts.generator, "generator", "", "path to the dadadodo binary")
	pf.StringVarP(&opts.lang, "lang", "l", "", "only use posts in this language (ISO 639-1 code)")
	pf.StringVarP(&opts.logFile, "logfile", "L", "", "append logs to this file instead of stderr")
	pf.BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")

	f := rootCmd.Flags()
	f.BoolVarP(&opts.dryRun, "dry-run", "n", false, "do not update the corpus nor post; print the message")
	f.DurationVarP(&opts.refresh, "refresh", "r", 0, "refresh the corpus when older than this")
	f.IntVarP(&opts.trim, "trim", "t", 0, "keep at most this many posts in the corpus (0 keeps all)")
	f.StringVarP(&opts.status, "status", "s", "", "post this text instead of a generated message")
	f.IntVarP(&opts.maxUpdates, "maxupdates", "m", 0, "read at most this many follower timelines per update (0 reads all)")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "choose the message to post interactively")

	rootCmd.AddCommand(newGenerateCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))

	return rootCmd
}

// loadConfig merges the configuration file, the environment and the flags
// that were set, validates the result and sets up logging.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile, ".env")
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("state-file") {
		cfg.StateFile = opts.stateFile
	}
	if flags.Changed("generator") {
		cfg.Generator.Path = opts.generator
	}
	if flags.Changed("lang") {
		cfg.Language = opts.lang
	}
	if flags.Changed("logfile") {
		cfg.LogFile = opts.logFile
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if flags.Lookup("dry-run") != nil {
		if flags.Changed("dry-run") {
			cfg.DryRun = opts.dryRun
		}
		if flags.Changed("refresh") {
			cfg.Refresh = opts.refresh
		}
		if flags.Changed("trim") {
			cfg.Trim = opts.trim
		}
		if flags.Changed("maxupdates") {
			cfg.MaxUpdates = opts.maxUpdates
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		if w, err = logging.OpenFile(cfg.LogFile); err != nil {
			return nil, err
		}
	}
	logging.Init(w, cfg.Debug)
	return cfg, nil
}

// newBot checks the language filter and builds the generator (failing
// early when the binary is missing), then loads the corpus and wires the
// bot on top. Nothing is fetched or saved before these checks pass.
func newBot(ctx context.Context, cfg *config.Config) (*bot.Bot, *corpus.Store, error) {
	if err := bot.ValidateLanguage(cfg.Language); err != nil {
		return nil, nil, err
	}
	gen, err := generator.NewDadadodo(cfg.Generator.Path, generator.WithTimeout(cfg.Generator.Timeout))
	if err != nil {
		return nil, nil, err
	}

	store := corpus.NewStore(cfg.StateFile)
	if err := store.Load(ctx); err != nil {
		return nil, nil, err
	}
	logging.Info("Corpus loaded", "path", cfg.StateFile, "posts", store.Len())

	return bot.New(store, gen, bot.WithMaxLength(cfg.MaxLength)), store, nil
}

func newClient(cfg *config.Config) social.Client {
	if !cfg.HasSocial() {
		return nil
	}
	return social.NewMastodon(cfg.Social.Server, cfg.Social.AccessToken,
		social.WithRequestsPerSecond(cfg.Social.RequestsPerSecond))
}

func sources(cfg *config.Config) []fetch.Source {
	out := make([]fetch.Source, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		out[i] = fetch.Source{Name: f.Name, URL: f.URL}
	}
	return out
}

func run(ctx context.Context, out io.Writer, cfg *config.Config, opts *options) error {
	b, store, err := newBot(ctx, cfg)
	if err != nil {
		return err
	}
	client := newClient(cfg)

	if !cfg.DryRun {
		if err := refresh(ctx, cfg, store, client); err != nil {
			return err
		}
	}

	if opts.interactive {
		return pick(ctx, out, cfg, b, client)
	}

	message := opts.status
	if message == "" {
		seq, err := b.Messages(ctx, cfg.Language)
		if err != nil {
			return err
		}
		if message, err = bot.First(seq); err != nil {
			logging.Error("Didn't get a message to post")
			return err
		}
	}

	if cfg.DryRun {
		logging.Info("Dry run, not posting", "message", message)
		fmt.Fprintln(out, message)
		return nil
	}
	if client == nil {
		return errors.New("no social account configured, use --dry-run or set social.server and social.access_token")
	}

	st, err := client.PostUpdate(ctx, message)
	if err != nil {
		return fmt.Errorf("post update: %w", err)
	}
	logging.Info("Posted", "id", st.ID, "message", message)
	return nil
}

// refresh updates and saves the corpus when it is stale. A failed update
// is logged and the existing corpus is used; the state is then left
// untouched so the next run retries.
func refresh(ctx context.Context, cfg *config.Config, store *corpus.Store, client social.Client) error {
	c := coord.NewCoordinator(store, client, fetch.NewFetcher(30*time.Second), coord.Config{
		TimelineCount: cfg.TimelineCount,
		Concurrency:   cfg.Concurrency,
		Sources:       sources(cfg),
	})

	due, err := c.Due(ctx, cfg.Refresh)
	if err != nil {
		return err
	}
	if !due {
		logging.Debug("Corpus is fresh, skipping update", "refresh", cfg.Refresh)
		return nil
	}

	if _, err := c.Update(ctx, cfg.MaxUpdates); err != nil {
		if ctx.Err() != nil {
			return err
		}
		logging.Error("Corpus update failed", "err", err)
		return nil
	}
	return store.Save(ctx, cfg.Trim)
}

// pick runs the interactive picker. In dry-run the chosen message is
// printed instead of posted.
func pick(ctx context.Context, out io.Writer, cfg *config.Config, b *bot.Bot, client social.Client) error {
	generate := func() tea.Cmd {
		return func() tea.Msg {
			seq, err := b.Messages(ctx, cfg.Language)
			if err != nil {
				return ui.MessagesGenerated{Err: err}
			}
			return ui.MessagesGenerated{Messages: take(seq, pickerCandidates)}
		}
	}

	var post func(string) tea.Cmd
	if !cfg.DryRun {
		if client == nil {
			return errors.New("no social account configured, use --dry-run or set social.server and social.access_token")
		}
		post = func(text string) tea.Cmd {
			return func() tea.Msg {
				_, err := client.PostUpdate(ctx, text)
				return ui.MessagePosted{Text: text, Err: err}
			}
		}
	}

	chosen, err := ui.Run(ctx, ui.NewPicker(generate, post))
	if err != nil {
		return err
	}
	if chosen == "" {
		logging.Info("Nothing chosen")
		return nil
	}
	if cfg.DryRun {
		fmt.Fprintln(out, chosen)
		return nil
	}
	logging.Info("Posted", "message", chosen)
	return nil
}
