package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zuo-Peng/ai-session-index/internal/config"
	"github.com/Zuo-Peng/ai-session-index/internal/index"
	"github.com/Zuo-Peng/ai-session-index/internal/logger"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/Zuo-Peng/ai-session-index/internal/render"
	"github.com/Zuo-Peng/ai-session-index/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	verbose    bool

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "ais",
		Short:         "AI Session Index - index and browse Claude, Codex, Gemini, Qwen, iFlow and Droid transcripts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.config/ais/config.toml, or $"+config.EnvPath+")")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	rootCmd.AddCommand(indexCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(searchCmd(a))
	rootCmd.AddCommand(showCmd(a))
	rootCmd.AddCommand(resumeCmd(a))
	rootCmd.AddCommand(openCmd(a))
	rootCmd.AddCommand(statsCmd(a))
	rootCmd.AddCommand(pruneCmd(a))
	rootCmd.AddCommand(doctorCmd(a))
	rootCmd.AddCommand(browseCmd(a))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.verbose {
		level = string(logger.LevelDebug)
	}
	logger.Configure(logger.ParseLevel(level), term.IsTerminal(int(os.Stderr.Fd())))
	return nil
}

// openIndexer opens the database and builds an indexer over the configured
// roots. The caller closes the returned DB.
func (a *app) openIndexer() (*index.Indexer, *store.DB, error) {
	roots, err := a.cfg.ScanRoots()
	if err != nil {
		return nil, nil, err
	}
	platforms, err := a.cfg.EnabledPlatforms()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	return index.New(store.New(db), roots, platforms), db, nil
}

// refresh brings the index up to date before a read. Failures are logged so
// the read can still serve what is already indexed. Progress lines only show
// at debug level.
func refresh(ctx context.Context, ix *index.Indexer) {
	if logger.Logger.GetLevel() == zerolog.InfoLevel {
		ix.SetLogger(logger.WithField("component", "refresh").Level(zerolog.WarnLevel))
	}
	stats, err := ix.IndexAll(ctx)
	if err != nil {
		logger.Warnf("refresh index: %v", err)
		return
	}
	logger.Debugf("refresh index: %s", stats)
}

func colorEnabled() bool {
	return os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))
}

func formatFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "format", "f", string(render.FormatTable), "Output format: table, json, yaml")
}

func platformFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "platform", "p", "", "Filter by platform (claude, codex, gemini, qwen, iflow, droid)")
}

// optionalPlatform parses a --platform value, where empty means all.
func optionalPlatform(s string) (parse.Platform, error) {
	if s == "" {
		return "", nil
	}
	return parse.ParsePlatform(s)
}
