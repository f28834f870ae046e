package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quill"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "type-check a program without evaluating it",
		Long: `check runs the bidirectional type checker over the program. The top
level is permissive: only promise annotations written in the program
switch into strict checking, so a program with no annotations always
passes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTerm(args[0])
			if err != nil {
				return err
			}
			if err := quill.New().Check(t); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
