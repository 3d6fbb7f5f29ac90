package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/relq-dev/relq/query"
)

const migrationsDir = "migrations"

const configStub = `{
  "databases": {
    "default": {
      "dsn": "postgres://localhost:5432/postgres"
    }
  }
}
`

// NewGenMigrateCommand scaffolds a pair of migration files under
// migrations/, versioned with a ULID so lexical order is creation order.
// With --model the up file starts from a CREATE TABLE stub named after the
// model.
func NewGenMigrateCommand(opts *RootOptions) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "gen-migrate <name>",
		Short: "Scaffold up/down migration files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, down, err := genMigrate(afero.NewOsFs(), args[0], model)
			if err != nil {
				return err
			}
			cmd.Println(up)
			cmd.Println(down)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model name to derive a CREATE TABLE stub from")
	return cmd
}

func genMigrate(fs afero.Fs, name, model string) (up, down string, err error) {
	name = slugify(name)
	if name == "" {
		return "", "", fmt.Errorf("migration name is empty after slugifying")
	}

	if err := fs.MkdirAll(migrationsDir, 0o755); err != nil {
		return "", "", err
	}

	version := ulid.Make().String()
	base := filepath.Join(migrationsDir, version+"_"+name)
	up = base + ".up.sql"
	down = base + ".down.sql"

	upBody := "-- " + name + "\n"
	downBody := "-- revert " + name + "\n"
	if model != "" {
		table := query.TableNameFor(model)
		upBody += fmt.Sprintf("CREATE TABLE %q (\n    id bigserial PRIMARY KEY\n);\n", table)
		downBody += fmt.Sprintf("DROP TABLE %q;\n", table)
	}

	if err := afero.WriteFile(fs, up, []byte(upBody), 0o644); err != nil {
		return "", "", err
	}
	if err := afero.WriteFile(fs, down, []byte(downBody), 0o644); err != nil {
		return "", "", err
	}

	// First scaffold also drops a config stub so `relq shell` works out of
	// the box once the DSN is filled in.
	if ok, _ := afero.Exists(fs, configName+".json"); !ok {
		if err := afero.WriteFile(fs, configName+".json", []byte(configStub), 0o644); err != nil {
			return "", "", err
		}
	}
	return up, down, nil
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
