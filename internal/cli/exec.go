package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tipresias/tipresias-sub001/driver"
	"github.com/tipresias/tipresias-sub001/internal/client"
	"github.com/tipresias/tipresias-sub001/internal/model"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	URL string // DSN, scheme://secret@host:port
}

// ExecResult is the exec command's success payload.
type ExecResult struct {
	SQL          string       `json:"sql"`
	Columns      []string     `json:"columns,omitempty"`
	Rows         []driver.Row `json:"rows,omitempty"`
	RowCount     int          `json:"row_count"`
	LastInsertID string       `json:"last_insert_id,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Execute a SQL statement against a database",
		Long: `Translate one SQL statement to FQL, execute it against the configured
database, and print the result. Query rows render as a table in text
format and as JSON arrays in json format.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "database DSN (scheme://secret@host:port)")

	return cmd
}

func runExec(opts *ExecOptions, sql string, cmd *cobra.Command) error {
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

	cursor := conn.Cursor()
	defer cursor.Close()

	formatter.VerboseLog("executing against %s", cfg.Host)

	if err := cursor.Execute(cmd.Context(), sql); err != nil {
		return outputExecError(formatter, err)
	}

	result := ExecResult{
		SQL:          sql,
		RowCount:     cursor.RowCount(),
		LastInsertID: cursor.LastInsertID(),
	}
	for _, col := range cursor.Description() {
		result.Columns = append(result.Columns, col.Name)
	}
	if len(result.Columns) > 0 {
		rows, err := cursor.FetchAll()
		if err != nil {
			return outputExecError(formatter, err)
		}
		result.Rows = rows
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return renderExecResult(formatter.Writer, result)
}

// outputExecError maps execution failures onto error codes: rejected
// SQL is a statement failure, everything else a command error.
func outputExecError(formatter *OutputFormatter, err error) error {
	code := ErrCodeQuery
	exit := ExitCommandError
	if model.IsNotSupported(err) {
		code = ErrCodeSQL
		exit = ExitFailure
	}
	var remote *client.RemoteError
	if errors.As(err, &remote) {
		exit = ExitFailure
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, err.Error()), nil)
}

// renderExecResult prints the text form: a table for rows, a summary
// line for writes and DDL.
func renderExecResult(w io.Writer, result ExecResult) error {
	if len(result.Columns) == 0 {
		if result.LastInsertID != "" {
			fmt.Fprintf(w, "%d row(s) affected, id %s\n", result.RowCount, result.LastInsertID)
		} else {
			fmt.Fprintf(w, "%d row(s) affected\n", result.RowCount)
		}
		return nil
	}

	if len(result.Rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range result.Rows {
		cells := make(table.Row, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprintf("%v", v)
		}
		t.AppendRow(cells)
	}

	t.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(result.Rows))
	return nil
}
