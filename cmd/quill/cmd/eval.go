package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quill"
)

func newEvalCmd() *cobra.Command {
	var withTrace bool
	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "fully evaluate a program and print its value",
		Long: `eval forces the program all the way down — every record field and list
element — and prints the resulting value as JSON, including hidden
(underscore-prefixed) fields. Use export for the pruned, serialization-
ready view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTerm(args[0])
			if err != nil {
				return err
			}
			ctx := quill.New()
			if withTrace {
				ctx.Trace(cmd.ErrOrStderr())
			}
			val, err := ctx.EvalDeep(t)
			if err != nil {
				return err
			}
			out, err := quill.Dump(val)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withTrace, "trace", false, "write std.trace output to stderr")
	return cmd
}
