// Package main implements the pondr CLI, a local decision journal with weekly
// insights and reflections.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/Pondr/internal/config"
	"github.com/BTreeMap/Pondr/internal/genai"
	"github.com/BTreeMap/Pondr/internal/lockfile"
	"github.com/BTreeMap/Pondr/internal/review"
	"github.com/BTreeMap/Pondr/internal/store"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs one pondr invocation and always releases the journal.
func execute(args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

// Flags holds persistent flag values
type Flags struct {
	configPath string
	stateDir   string
	dbDSN      string
	logLevel   string
}

// app is the per-invocation state shared by subcommands.
type app struct {
	cfg   config.Config
	store store.Store
	svc   *review.Service
	lock  *lockfile.Lock
}

func newRootCmd(a *app) *cobra.Command {
	var flags Flags
	root := &cobra.Command{
		Use:   "pondr",
		Short: "A quiet, local decision journal",
		Long: `pondr logs short decisions and reflects them back as weekly insights.

Everything is computed from your local history. Reflections describe patterns;
they never tell you what to do.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.open(cmd, flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.yaml (default: <state-dir>/config.yaml)")
	root.PersistentFlags().StringVar(&flags.stateDir, "state-dir", "", "state directory (overrides $PONDR_STATE_DIR)")
	root.PersistentFlags().StringVar(&flags.dbDSN, "db-dsn", "", "database DSN, SQLite path or Postgres URL (overrides $DATABASE_URL)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides $PONDR_LOG_LEVEL)")

	root.AddCommand(
		newLogCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newInsightsCmd(a),
		newReviewCmd(a),
		newReflectCmd(a),
		newStatusCmd(a),
		newSettingsCmd(a),
		newVersionCmd(),
	)
	return root
}

// open loads configuration, takes the state directory lock and builds the service.
func (a *app) open(cmd *cobra.Command, flags Flags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	initializeLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	a.cfg = cfg

	if a.lock, err = lockfile.Acquire(cfg.StateDir, cmd.Name()); err != nil {
		return err
	}
	if a.store, err = buildStore(cfg); err != nil {
		a.close()
		return err
	}
	a.svc = review.NewService(a.store, buildReviewOptions(cfg)...)
	return nil
}

func (a *app) close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.lock != nil {
		a.lock.Release()
		a.lock = nil
	}
	return err
}

// applyFlags overlays non-empty persistent flags onto cfg.
func applyFlags(cfg *config.Config, flags Flags) {
	if flags.stateDir != "" {
		cfg.StateDir = flags.stateDir
	}
	if flags.dbDSN != "" {
		cfg.DatabaseURL = flags.dbDSN
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
}

// initializeLogger sets up structured logging at the configured level
func initializeLogger(w io.Writer, level string) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}

// buildStore opens the backend selected by the configured DSN.
func buildStore(cfg config.Config) (store.Store, error) {
	dsn := cfg.DSN()
	slog.Debug("Opening store", "dsn_type", store.DetectDSNType(dsn))
	return store.Open(dsn)
}

// buildGenAIOptions maps configuration onto the OpenAI client.
func buildGenAIOptions(cfg config.Config) []genai.Option {
	opts := []genai.Option{genai.WithAPIKey(cfg.OpenAIKey)}
	if cfg.OpenAIModel != "" {
		opts = append(opts, genai.WithModel(cfg.OpenAIModel))
	}
	if cfg.GenAIDebug {
		opts = append(opts, genai.WithDebug(cfg.StateDir))
	}
	return opts
}

// buildReviewOptions maps configuration onto the review service.
func buildReviewOptions(cfg config.Config) []review.Option {
	engine := cfg.Engine()
	opts := []review.Option{
		review.WithEngine(engine),
		review.WithPolicy(cfg.Policy()),
		review.WithDays(cfg.RollingDays),
	}
	if cfg.WeekStartDay != nil {
		opts = append(opts, review.WithWeekStartDay(time.Weekday(*cfg.WeekStartDay)))
	}
	if engine == review.EngineRemote {
		client, err := genai.NewClient(buildGenAIOptions(cfg)...)
		if err != nil {
			slog.Warn("remote reflections disabled", "error", err)
		} else {
			opts = append(opts, review.WithReflector(client))
		}
	}
	return opts
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pondr version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pondr", version)
		},
	}
}
