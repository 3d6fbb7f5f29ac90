package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	DSN     string
	Config  string
	Verbose bool
}

// NewRootCommand builds the relq command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relq",
		Short: "relq - expression-tree SQL toolkit for PostgreSQL",
		Long: "relq compiles expression trees to parameterized PostgreSQL and manages\n" +
			"context-scoped transactions over pgx pools. The CLI covers the workflow\n" +
			"around it: an interactive shell, dumps, migration scaffolding and ad-hoc\n" +
			"statements, all against the same resolved DSN the library would use.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "postgres DSN, overrides RELQ_DSN and config file")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to relq.json (default: ./relq.json, then $HOME/relq.json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewGenMigrateCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))

	return cmd
}
