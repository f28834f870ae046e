package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quill"
)

func newExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "evaluate a program and export it to a data format",
		Long: `export evaluates the program and renders the result as JSON, YAML, or
TOML. Hidden (underscore-prefixed) record fields are pruned, and the
program must reduce to plain data: functions and contract seals have no
encoding and fail the export.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTerm(args[0])
			if err != nil {
				return err
			}
			ctx := quill.New()
			val := ctx.Compile(t)
			var out []byte
			switch format {
			case "json":
				out, err = quill.ToJSON(val)
			case "yaml":
				out, err = quill.ToYAML(val)
			case "toml":
				out, err = quill.ToTOML(val)
			default:
				return fmt.Errorf("unknown output format %q (want json, yaml, or toml)", format)
			}
			if err != nil {
				return err
			}
			out = bytes.TrimRight(out, "\n")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "out", "json", "output format: json, yaml, or toml")
	return cmd
}
