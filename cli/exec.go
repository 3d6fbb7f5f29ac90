package cli

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/relq-dev/relq/connector"
)

// NewExecCommand runs one SQL statement on the resolved DSN and renders the
// result set as a table. Statements without a result set report the affected
// row count instead.
func NewExecCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a single SQL statement and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := ResolveDSN(opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := connector.ConnectDSN(ctx, dsn, connector.PoolConfig{})
			if err != nil {
				return err
			}
			defer pool.Close()

			rows, err := pool.Query(ctx, args[0])
			if err != nil {
				return err
			}
			defer rows.Close()

			header := make([]string, 0, len(rows.FieldDescriptions()))
			for _, fd := range rows.FieldDescriptions() {
				header = append(header, fd.Name)
			}

			w := tablewriter.NewWriter(cmd.OutOrStdout())
			w.SetHeader(header)

			count := 0
			for rows.Next() {
				values, err := rows.Values()
				if err != nil {
					return err
				}
				cells := make([]string, len(values))
				for i, v := range values {
					if v == nil {
						cells[i] = "NULL"
						continue
					}
					cells[i] = fmt.Sprint(v)
				}
				w.Append(cells)
				count++
			}
			if err := rows.Err(); err != nil {
				return err
			}

			if len(header) == 0 {
				cmd.Printf("%s\n", rows.CommandTag())
				return nil
			}
			w.Render()
			cmd.Printf("(%d rows)\n", count)
			return nil
		},
	}
}
