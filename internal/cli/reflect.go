package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tipresias/tipresias-sub001/dialect"
	"github.com/tipresias/tipresias-sub001/driver"
)

// ReflectOptions holds flags for the reflect command.
type ReflectOptions struct {
	*RootOptions
	URL string
}

// TableSchema is the reflect command's per-table payload.
type TableSchema struct {
	Name        string               `json:"name"`
	Columns     []dialect.Column     `json:"columns"`
	PrimaryKey  []string             `json:"primary_key"`
	ForeignKeys []dialect.ForeignKey `json:"foreign_keys,omitempty"`
	Indexes     []dialect.Index      `json:"indexes,omitempty"`
}

// ReflectResult is the reflect command's success payload.
type ReflectResult struct {
	Tables []string     `json:"tables,omitempty"`
	Schema *TableSchema `json:"schema,omitempty"`
}

// NewReflectCommand creates the reflect command.
func NewReflectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReflectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reflect [table]",
		Short: "Inspect the schema recorded in the database",
		Long: `List the tables recorded in the database, or describe one table's
columns, keys and indexes. A database that has no schema metadata yet
reflects as empty.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl := ""
			if len(args) == 1 {
				tbl = args[0]
			}
			return runReflect(opts, tbl, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "database DSN (scheme://secret@host:port)")

	return cmd
}

func runReflect(opts *ReflectOptions, tableName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := resolveConnection(opts.RootOptions, opts.URL)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, err.Error(), nil)
	}

	conn := driver.Connect(cfg)
	defer conn.Close()
	d := dialect.New(conn)
	ctx := cmd.Context()

	if tableName == "" {
		tables, err := d.TableNames(ctx)
		if err != nil {
			return outputExecError(formatter, err)
		}
		if formatter.Format == "json" {
			return formatter.Success(ReflectResult{Tables: tables})
		}
		if len(tables) == 0 {
			fmt.Fprintln(formatter.Writer, "(no tables)")
			return nil
		}
		for _, t := range tables {
			fmt.Fprintln(formatter.Writer, t)
		}
		return nil
	}

	schema, err := describeTable(ctx, d, tableName)
	if err != nil {
		return outputExecError(formatter, err)
	}
	if schema == nil {
		_ = formatter.Error(ErrCodeQuery, fmt.Sprintf("table %q does not exist", tableName), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("table %q does not exist", tableName))
	}

	if formatter.Format == "json" {
		return formatter.Success(ReflectResult{Schema: schema})
	}
	renderTableSchema(formatter.Writer, schema)
	return nil
}

func describeTable(ctx context.Context, d *dialect.Dialect, name string) (*TableSchema, error) {
	exists, err := d.HasTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	columns, err := d.Columns(ctx, name)
	if err != nil {
		return nil, err
	}
	pk, err := d.PrimaryKeyColumns(ctx, name)
	if err != nil {
		return nil, err
	}
	fks, err := d.ForeignKeys(ctx, name)
	if err != nil {
		return nil, err
	}
	indexes, err := d.Indexes(ctx, name)
	if err != nil {
		return nil, err
	}

	return &TableSchema{
		Name:        name,
		Columns:     columns,
		PrimaryKey:  pk,
		ForeignKeys: fks,
		Indexes:     indexes,
	}, nil
}

func renderTableSchema(w io.Writer, schema *TableSchema) {
	fmt.Fprintf(w, "Table: %s\n", schema.Name)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"column", "type", "nullable", "default"})
	for _, col := range schema.Columns {
		def := ""
		if col.Default != nil {
			def = fmt.Sprintf("%v", col.Default)
		}
		t.AppendRow(table.Row{col.Name, col.Type, col.Nullable, def})
	}
	t.Render()

	fmt.Fprintf(w, "Primary key: %s\n", strings.Join(schema.PrimaryKey, ", "))
	for _, fk := range schema.ForeignKeys {
		fmt.Fprintf(w, "Foreign key: %s -> %s.id\n", fk.Column, fk.ReferredTable)
	}
	for _, idx := range schema.Indexes {
		kind := "index"
		if idx.Unique {
			kind = "unique index"
		}
		fmt.Fprintf(w, "%s: %s (%s)\n", kind, idx.Name, idx.Column)
	}
}
