package cli

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// NewShellCommand opens an interactive psql session against the resolved
// DSN. Trailing arguments after -- are passed through to psql.
func NewShellCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell [-- psql-args...]",
		Short: "Open a psql session against the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := ResolveDSN(opts)
			if err != nil {
				return err
			}
			return runClient("psql", dsn, args)
		},
	}
}

func runClient(binary, dsn string, extra []string) error {
	info, err := parseDSN(dsn)
	if err != nil {
		return err
	}

	pgpass, cleanup, err := writePgpass(info)
	if err != nil {
		return err
	}
	defer cleanup()

	args := append(clientArgs(info), extra...)
	child := exec.Command(binary, args...)
	child.Env = clientEnv(pgpass)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	return child.Run()
}
