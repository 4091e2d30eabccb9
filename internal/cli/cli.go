package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/campus-events/internal/classify"
	"github.com/pfrederiksen/campus-events/internal/config"
	"github.com/pfrederiksen/campus-events/internal/logger"
	"github.com/pfrederiksen/campus-events/internal/notifier"
	"github.com/pfrederiksen/campus-events/internal/patterns"
	"github.com/pfrederiksen/campus-events/internal/scraper"
	"github.com/pfrederiksen/campus-events/internal/storage"
	"github.com/pfrederiksen/campus-events/internal/telegram"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// app holds the global flags and the exit code chosen by a command
type app struct {
	configPath   string
	dataDir      string
	patternsFile string
	format       string
	verbose      bool

	exitCode int
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campus-events",
		Short: "Extract and track academic events from institutional listing pages",
		Long: `A CLI tool that scrapes university event-listing pages, extracts
canonical event records, and keeps one record per event across runs.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Data directory for the event store (overrides config)")
	cmd.PersistentFlags().StringVar(&a.patternsFile, "patterns", "", "Pattern tables override file (overrides config)")
	cmd.PersistentFlags().StringVar(&a.format, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newScrapeCmd(a),
		newExtractCmd(a),
		newListCmd(a),
		newReconcileCmd(a),
		newSweepCmd(a),
		newICSCmd(a),
		newChangesCmd(a),
	)

	return cmd
}

// env is what most commands need after flag and config resolution
type env struct {
	cfg    config.Config
	tables *patterns.Tables
	format OutputFormat
	out    io.Writer
	errOut io.Writer
}

// setup resolves config, flag overrides, logging and pattern tables
func (a *app) setup(cmd *cobra.Command) (*env, error) {
	format := OutputFormat(strings.ToLower(a.format))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", a.format)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.patternsFile != "" {
		cfg.PatternsFile = a.patternsFile
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if a.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	tables, err := patterns.Load(cfg.PatternsFile)
	if err != nil {
		return nil, fmt.Errorf("loading patterns: %w", err)
	}

	logger.Debug("Configuration loaded", logger.Fields{
		"data_dir":         cfg.DataDir,
		"patterns_version": tables.Version(),
		"sources":          len(cfg.Sources),
		"ai_enabled":       cfg.AIEnabled(),
	})

	return &env{cfg: cfg, tables: tables, format: format, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}, nil
}

func (e *env) openStore() (*storage.Store, error) {
	store, err := storage.Open(e.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

func (e *env) fetcher() *scraper.Scraper {
	return scraper.NewWithOptions(scraper.Options{
		Timeout:        e.cfg.Fetch.Timeout,
		MaxRetries:     e.cfg.Fetch.MaxRetries,
		InitialBackoff: e.cfg.Fetch.Backoff,
		UserAgent:      e.cfg.Fetch.UserAgent,
	})
}

// categorizer returns the AI categorizer wrapped in the keyword fallback,
// or nil when AI is off and extraction's keyword categories stand
func (e *env) categorizer() classify.Categorizer {
	if !e.cfg.AIEnabled() {
		return nil
	}
	return &classify.Fallback{
		Primary:   classify.NewOpenAICategorizer(e.cfg.OpenAI.APIKey, e.cfg.OpenAI.BaseURL, e.cfg.OpenAI.Model, e.tables),
		Secondary: classify.NewKeywordCategorizer(e.tables),
	}
}

// notifier builds the configured notification backends. A dry run prints
// posts to stderr instead of sending them.
func (e *env) notifier(dryRun bool) (notifier.Notifier, error) {
	if dryRun {
		return notifier.NewDryRunNotifier(e.errOut), nil
	}

	var backends notifier.Multi
	if tg := e.cfg.Notify.Telegram; tg.Enabled {
		client, err := telegram.NewClient(tg.BotToken, tg.ChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		backends = append(backends, notifier.NewTelegramNotifier(client))
	}
	if e.cfg.Notify.Twitter.Enabled {
		tw, err := notifier.NewTwitterNotifier()
		if err != nil {
			return nil, fmt.Errorf("twitter: %w", err)
		}
		backends = append(backends, tw)
	}
	if len(backends) == 0 {
		return nil, errors.New("no notification backend enabled in the config file")
	}
	return backends, nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(a.exitCode)
}
