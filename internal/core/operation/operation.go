// Package operation implements the strict primitive operators dispatched
// once their operands reach weak-head normal form. It is
// deliberately a leaf relative to the evaluator: handlers only ever see
// already-reduced env.Value operands plus whatever stack/IDGen access
// they need to push further continuations or mint fresh bindings, and
// they hand control back to the driver loop via env.Step rather than
// calling back into it.
package operation

import (
	"fmt"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/stack"
	"github.com/quill-lang/quill/internal/core/term"
	"github.com/quill-lang/quill/internal/core/trace"
)

// DispatchUnary runs the handler for op once its single strict operand
// v has reached WHNF. opEnv is only consulted by operators whose
// resumption needs an environment beyond v itself (Switch, MapRec,
// ChunksConcat); other handlers ignore it. sink is the machine's trace
// destination, consulted only by Trace (a nil sink makes Trace drop its
// message and behave exactly like Seq).
func DispatchUnary(st *stack.Stack, gen *env.IDGen, opEnv *env.Environment, sink *trace.Sink, op term.UnaryOp, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	switch o := op.(type) {
	case term.Ite:
		return iteOp(st, gen, v, pos)
	case term.IsZero:
		return isZeroOp(v, pos)
	case term.IsNum:
		return env.Done(env.VBool{B: isKind[env.VNum](v)}), nil
	case term.IsBool:
		return env.Done(env.VBool{B: isKind[env.VBool](v)}), nil
	case term.IsStr:
		return env.Done(env.VBool{B: isKind[env.VStr](v)}), nil
	case term.IsFun:
		return env.Done(env.VBool{B: isFunValue(v)}), nil
	case term.IsList:
		return env.Done(env.VBool{B: isKind[env.VList](v)}), nil
	case term.IsRecord:
		return env.Done(env.VBool{B: isKind[env.VRecord](v)}), nil
	case term.Blame:
		return blameOp(v, pos)
	case term.Embed:
		return embedOp(o, v, pos)
	case term.Switch:
		return switchOp(o, opEnv, v, pos)
	case term.ChangePolarity:
		return changePolarityOp(v, pos)
	case term.GoDom:
		return goDomOp(v, pos)
	case term.GoCodom:
		return goCodomOp(v, pos)
	case term.TagOp:
		return tagOp(o, v, pos)
	case term.Pol:
		return polOp(v, pos)
	case term.Wrap:
		return wrapOp(v, pos)
	case term.StaticAccess:
		return staticAccessOp(gen, o, v, pos)
	case term.FieldsOf:
		return fieldsOfOp(v, pos)
	case term.MapRec:
		return mapRecOp(gen, opEnv, o, v, pos)
	case term.Seq:
		return seqOp(st, gen, v, pos)
	case term.Trace:
		return traceOp(st, gen, sink, v, pos)
	case term.DeepSeq:
		return deepSeqOp(gen, v, pos)
	case term.ListHead:
		return listHeadOp(gen, v, pos)
	case term.ListTail:
		return listTailOp(v, pos)
	case term.ListLength:
		return listLengthOp(v, pos)
	case term.ChunksConcat:
		return chunksConcatOp(st, opEnv, o, v, pos)
	default:
		return env.Step{}, evalerr.Other(fmt.Sprintf("unhandled unary operator %s", op.Name()), pos)
	}
}

// DispatchBinary runs the handler for op once both strict operands have
// reached WHNF. opEnv is only consulted by DynExtend, whose new field
// term must be evaluated in the environment the operator was written
// in, not in either operand's own environment.
func DispatchBinary(gen *env.IDGen, opEnv *env.Environment, op term.BinaryOp, first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	switch o := op.(type) {
	case term.Plus:
		return plusOp(first, second, pos)
	case term.PlusStr:
		return plusStrOp(first, second, pos)
	case term.Unwrap:
		return unwrapOp(gen, first, second, pos)
	case term.EqBool:
		return eqBoolOp(first, second, pos)
	case term.DynAccess:
		return dynAccessOp(gen, first, second, pos)
	case term.DynExtend:
		return dynExtendOp(opEnv, o, first, second, pos)
	case term.DynRemove:
		return dynRemoveOp(first, second, pos)
	case term.HasField:
		return hasFieldOp(first, second, pos)
	case term.ListConcat:
		return listConcatOp(first, second, pos)
	case term.ListMap:
		return listMapOp(gen, first, second, pos)
	case term.ListElemAt:
		return listElemAtOp(gen, first, second, pos)
	case term.Merge:
		return mergeOp(gen, first, second, pos)
	default:
		return env.Step{}, evalerr.Other(fmt.Sprintf("unhandled binary operator %s", op.Name()), pos)
	}
}

func isKind[T env.Value](v env.Value) bool {
	_, ok := v.(T)
	return ok
}

func isFunValue(v env.Value) bool {
	switch v.(type) {
	case env.VFun, env.VBuiltin:
		return true
	default:
		return false
	}
}

// kindName names v's outermost constructor for TypeError messages.
func kindName(v env.Value) string {
	switch v.(type) {
	case env.VNull:
		return "Null"
	case env.VBool:
		return "Bool"
	case env.VNum:
		return "Num"
	case env.VStr:
		return "Str"
	case env.VEnum:
		return "Enum"
	case env.VFun, env.VBuiltin:
		return "Fun"
	case env.VRecord:
		return "Record"
	case env.VList:
		return "List"
	case env.VWrapped:
		return "Wrapped"
	case env.VSym:
		return "Sym"
	case env.VLabel:
		return "Label"
	case env.VDefault:
		return "Default"
	default:
		return "?"
	}
}

func typeErr(expected, opName string, argPos int, v env.Value, pos *term.Span) *evalerr.Error {
	return evalerr.TypeMismatch(expected, opName, argPos, kindName(v), pos)
}
