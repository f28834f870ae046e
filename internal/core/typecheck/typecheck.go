package typecheck

import "github.com/quill-lang/quill/internal/core/term"

// CheckProgram runs the checker over a whole program the way the
// evaluator's top-level entry points do: infer top to bottom in
// permissive mode, so only the Promise boundaries a program actually
// wrote switch into strict checking (an Assume's body stays
// permissive) — a program with no type
// annotations at all type-checks trivially. Typing is opt-in.
func CheckProgram(t term.Term) error {
	return CheckProgramWith(t, nil)
}

// CheckProgramWith is CheckProgram with an import source, so
// ResolvedImport nodes check their target file (once each) instead of
// typing as Dyn.
func CheckProgramWith(t term.Term, imports ImportSource) error {
	c := New()
	c.Imports = imports
	_, err := c.Infer(t, Permissive)
	return err
}
