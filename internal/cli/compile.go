package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tipresias/tipresias-sub001/internal/fqlgen"
	"github.com/tipresias/tipresias-sub001/internal/model"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Compact bool // emit the wire form instead of indented JSON
}

// CompileResult is the compile command's success payload.
type CompileResult struct {
	SQL       string          `json:"sql"`
	Statement string          `json:"statement"`
	FQL       json.RawMessage `json:"fql"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <sql>",
		Short: "Translate a SQL statement to FQL without executing it",
		Long: `Translate one SQL statement to its FQL wire form and print it.

No connection is made; the translation is purely local. Statements the
translator rejects exit with code 1 and an explanation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "print the exact wire form on one line")

	return cmd
}

func runCompile(opts *CompileOptions, sql string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	stmt, expr, err := fqlgen.Compile(sql)
	if err != nil {
		code := ErrCodeGeneric
		if model.IsNotSupported(err) {
			code = ErrCodeSQL
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, err.Error()), nil)
	}

	wire, err := json.Marshal(expr)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("encoding FQL: %v", err), nil)
		return WrapExitError(ExitCommandError, "encoding FQL", err)
	}

	formatter.VerboseLog("compiled %s statement (%d bytes of FQL)", statementKind(stmt), len(wire))

	if formatter.Format == "json" {
		return formatter.Success(CompileResult{
			SQL:       sql,
			Statement: statementKind(stmt),
			FQL:       wire,
		})
	}

	if opts.Compact {
		fmt.Fprintln(formatter.Writer, string(wire))
		return nil
	}

	var indented []byte
	indented, err = json.MarshalIndent(json.RawMessage(wire), "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding FQL", err)
	}
	fmt.Fprintln(formatter.Writer, string(indented))
	return nil
}

// statementKind names a statement model for output.
func statementKind(stmt model.Statement) string {
	switch stmt.(type) {
	case *model.Select:
		return "select"
	case *model.Insert:
		return "insert"
	case *model.Update:
		return "update"
	case *model.Delete:
		return "delete"
	case *model.CreateTable:
		return "create_table"
	case *model.CreateIndex:
		return "create_index"
	case *model.AlterTable:
		return "alter_table"
	default:
		return "unknown"
	}
}
