package env

// Step is the result of one dispatch through a strict operator: either
// a final WHNF Value, or a Next Closure the trampoline must keep
// reducing before the operator's result is known —
// Ite returning a branch, MapRec building a fresh application term,
// ChunksConcat still having chunks left to render). Both operation and
// merge hand results back up to the evaluator's driver loop in this
// shape, so neither package needs to import the driver itself.
type Step struct {
	Value Value
	Next  *Closure
}

// Done wraps a final WHNF value.
func Done(v Value) Step { return Step{Value: v} }

// Continue wraps a closure that still needs reducing.
func Continue(c Closure) Step { return Step{Next: &c} }

// IsDone reports whether s carries a final value rather than a closure
// to keep reducing.
func (s Step) IsDone() bool { return s.Next == nil }
