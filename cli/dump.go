package cli

import (
	"github.com/spf13/cobra"
)

// NewDumpCommand shells out to pg_dump against the resolved DSN. Trailing
// arguments after -- are passed through, so `relq dump -- -s` does a
// schema-only dump.
func NewDumpCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [-- pg_dump-args...]",
		Short: "Dump the configured database with pg_dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := ResolveDSN(opts)
			if err != nil {
				return err
			}
			return runClient("pg_dump", dsn, args)
		},
	}
}
