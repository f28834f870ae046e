package operation

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/stack"
	"github.com/quill-lang/quill/internal/core/term"
)

// sanitizeStr replaces ill-formed UTF-8 sequences before folding an
// interpolated chunk's rendered Str into the accumulator, so a
// malformed byte sequence produced upstream (e.g. at a bytes-typed
// embedding boundary) never corrupts the rest of the literal.
func sanitizeStr(s string) string {
	clean, _, err := transform.String(runes.ReplaceIllFormed(), s)
	if err != nil {
		return s
	}
	return clean
}

// StartChunks begins reducing a StrChunks literal: literal text is
// folded in directly, and the first interpolated expression (if any)
// is handed back as the next thing to reduce, with a continuation
// pushed for whatever chunks remain. Called by the evaluator's driver
// the moment it sees a *term.StrChunks node.
func StartChunks(st *stack.Stack, opEnv *env.Environment, chunks []term.Chunk) (env.Step, *evalerr.Error) {
	return chunksStep(st, opEnv, "", chunks)
}

// chunksConcatOp resumes a ChunksConcat continuation once the
// preceding interpolated expression has reduced to a Str.
func chunksConcatOp(st *stack.Stack, opEnv *env.Environment, o term.ChunksConcat, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	s, ok := v.(env.VStr)
	if !ok {
		return env.Step{}, typeErr("Str", "chunks_concat", 0, v, pos)
	}
	return chunksStep(st, opEnv, o.Acc+sanitizeStr(s.S), o.Tail)
}

func chunksStep(st *stack.Stack, opEnv *env.Environment, acc string, chunks []term.Chunk) (env.Step, *evalerr.Error) {
	for len(chunks) > 0 {
		lit, ok := chunks[0].(term.Literal)
		if !ok {
			break
		}
		acc += lit.Text
		chunks = chunks[1:]
	}
	if len(chunks) == 0 {
		return env.Done(env.VStr{S: acc}), nil
	}
	expr, ok := chunks[0].(term.Expr)
	if !ok {
		return env.Step{}, evalerr.Other("string interpolation: malformed chunk", nil)
	}
	st.Push(stack.Op1Cont{Op: term.ChunksConcat{Acc: acc, Tail: chunks[1:]}, Env: opEnv})
	return env.Continue(env.Closure{Term: expr.Term, Env: opEnv}), nil
}
