package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"lunchreports/internal/backend"
	"lunchreports/internal/config"
	"lunchreports/internal/log"
)

// Set at build time with -ldflags "-X lunchreports/internal/cli.version=...".
var (
	version = "dev"
	commit  = "none"
)

// rootOptions are the persistent flags every subcommand shares.
type rootOptions struct {
	backend  string
	dbPath   string
	seedFile string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	defaults := defaultOptions()

	cmd := &cobra.Command{
		Use:           "lunchctl",
		Short:         "Manage lunch orders and print order reports",
		Long:          "lunchctl seeds the lunch order database, records items, teachers, students and orders, and prints the item and combined order reports.",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			SetupLogger(cmd.ErrOrStderr(), opts.logLevel, "text")
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.backend, "backend", defaults.backend, "data backend: sqlite or memory")
	flags.StringVar(&opts.dbPath, "db", defaults.dbPath, "SQLite database path")
	flags.StringVar(&opts.seedFile, "seed-file", defaults.seedFile, "seed file loaded by the memory backend")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newItemCmd(opts))
	cmd.AddCommand(newTeacherCmd(opts))
	cmd.AddCommand(newStudentCmd(opts))
	cmd.AddCommand(newOrderCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	return cmd
}

// defaultOptions takes flag defaults from the environment so lunchctl and
// the server agree on where the data lives.
func defaultOptions() rootOptions {
	opts := rootOptions{backend: "sqlite", dbPath: "./data/lunchreports.db", seedFile: "./data/seed.yaml"}
	cfg, err := config.Load()
	if err != nil {
		return opts
	}
	opts.backend = cfg.DataBackend
	opts.dbPath = cfg.SQLiteDBPath
	opts.seedFile = cfg.SeedFile
	return opts
}

// open creates the configured backend. The caller must call the returned
// cleanup function.
func (o *rootOptions) open(ctx context.Context) (backend.Backend, func(), error) {
	result, err := backend.NewFactory(nil).CreateBackend(ctx, backend.Config{
		Type:         backend.BackendType(o.backend),
		SQLiteDBPath: o.dbPath,
		SeedFile:     o.seedFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", o.backend, err)
	}
	cleanup := func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}
	return result.Backend, cleanup, nil
}

// appLogger writes through the handler installed by SetupLogger.
func appLogger() *log.Logger {
	return log.New(log.Config{Component: log.ComponentCLI, Handler: slog.Default().Handler()})
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs lunchctl and prints any command error to stderr.
func Execute() error {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
