// Package cmd implements the quill command-line tool: a thin Cobra
// front-end over the quill embedding API, one subcommand per top-level
// entry point (eval, export, check).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quill/internal/core/term"
	"github.com/quill-lang/quill/internal/termjson"
)

// Main runs the tool and returns the process exit code, so main() and
// the script tests share one entry point.
func Main() int {
	if err := New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "quill:", err)
		return 1
	}
	return 0
}

// New returns the root command with every subcommand attached.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:   "quill",
		Short: "quill evaluates lazily-typed configuration programs",
		Long: `quill drives a program — a term tree in the JSON format described by
internal/termjson — through the lazy evaluator and prints the result,
exports it to a data format, or runs the type checker over it without
evaluating anything.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newEvalCmd(),
		newExportCmd(),
		newCheckCmd(),
	)
	return root
}

func loadTerm(path string) (term.Term, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return termjson.Decode(data)
}
