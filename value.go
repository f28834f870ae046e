package quill

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cockroachdb/apd/v2"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/term"
)

// Kind identifies the shape of a Value's weak-head normal form.
type Kind int

const (
	BottomKind Kind = iota
	NullKind
	BoolKind
	NumKind
	StrKind
	EnumKind
	RecordKind
	ListKind
	FuncKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case NumKind:
		return "number"
	case StrKind:
		return "string"
	case EnumKind:
		return "enum"
	case RecordKind:
		return "record"
	case ListKind:
		return "list"
	case FuncKind:
		return "function"
	default:
		return "bottom"
	}
}

// Value is a lazily-forced handle onto a term being evaluated by a
// Context. Forcing happens once, on first use, and is cached on the
// Value itself — the Value-level mirror of the Thunk caching that
// already happens inside the evaluator. A Value is rooted either in a
// top-level (term, environment) pair (Context.Compile) or in a
// *env.Thunk shared with the evaluator (a record field, list element,
// or enum payload reached via a parent Value).
type Value struct {
	ctx     *Context
	closure env.Closure
	thunk   *env.Thunk
	forced  bool
	v       env.Value
	err     error
}

func (val *Value) force() (env.Value, error) {
	if val.forced {
		return val.v, val.err
	}
	val.forced = true
	var v env.Value
	var everr *evalerr.Error
	if val.thunk != nil {
		v, everr = val.ctx.machine.ForceThunk(val.thunk)
	} else {
		v, everr = val.ctx.machine.Eval(val.closure.Term, val.closure.Env)
	}
	if everr != nil {
		val.err = everr
		return nil, everr
	}
	stripped, everr := val.ctx.machine.StripDefault(v)
	if everr != nil {
		val.err = everr
		return nil, everr
	}
	val.v = stripped
	return val.v, nil
}

// Err forces val and returns any evaluation error, or nil.
func (val *Value) Err() error {
	_, err := val.force()
	return err
}

// Kind forces val and reports its Kind. A Value that failed to
// evaluate reports BottomKind.
func (val *Value) Kind() Kind {
	v, err := val.force()
	if err != nil {
		return BottomKind
	}
	return kindOf(v)
}

func kindOf(v env.Value) Kind {
	switch v.(type) {
	case env.VNull:
		return NullKind
	case env.VBool:
		return BoolKind
	case env.VNum:
		return NumKind
	case env.VStr:
		return StrKind
	case env.VEnum:
		return EnumKind
	case env.VRecord:
		return RecordKind
	case env.VList:
		return ListKind
	case env.VFun, env.VBuiltin:
		return FuncKind
	default:
		return BottomKind
	}
}

// Bool forces val and returns its boolean payload.
func (val *Value) Bool() (bool, error) {
	v, err := val.force()
	if err != nil {
		return false, err
	}
	b, ok := v.(env.VBool)
	if !ok {
		return false, fmt.Errorf("quill: value is %s, not bool", kindOf(v))
	}
	return b.B, nil
}

// Str forces val and returns its string payload.
func (val *Value) Str() (string, error) {
	v, err := val.force()
	if err != nil {
		return "", err
	}
	s, ok := v.(env.VStr)
	if !ok {
		return "", fmt.Errorf("quill: value is %s, not string", kindOf(v))
	}
	return s.S, nil
}

// Decimal forces val and returns its numeric payload as an exact
// apd.Decimal, so a caller can tell 0.1 from the nearest float64 to
// 0.1 when it matters. Internal arithmetic still happens in float64;
// this conversion only happens at the export boundary.
func (val *Value) Decimal() (*apd.Decimal, error) {
	v, err := val.force()
	if err != nil {
		return nil, err
	}
	n, ok := v.(env.VNum)
	if !ok {
		return nil, fmt.Errorf("quill: value is %s, not number", kindOf(v))
	}
	// The shortest decimal that round-trips through the float64 is the
	// number the program wrote, so parsing it back gives an exact
	// boundary representation free of binary-fraction artifacts.
	d, _, err := apd.NewFromString(strconv.FormatFloat(n.N, 'g', -1, 64))
	if err != nil {
		return nil, fmt.Errorf("quill: number %v has no decimal representation: %w", n.N, err)
	}
	return d, nil
}

// Tag forces val and returns its enum tag and, if present, the payload
// Value (nil otherwise).
func (val *Value) Tag() (string, *Value, error) {
	v, err := val.force()
	if err != nil {
		return "", nil, err
	}
	e, ok := v.(env.VEnum)
	if !ok {
		return "", nil, fmt.Errorf("quill: value is %s, not an enum", kindOf(v))
	}
	if e.Payload == nil {
		return string(e.Tag), nil, nil
	}
	return string(e.Tag), val.thunkChild(e.Payload), nil
}

// Len forces val and returns the number of elements in its list.
func (val *Value) Len() (int, error) {
	v, err := val.force()
	if err != nil {
		return 0, err
	}
	l, ok := v.(env.VList)
	if !ok {
		return 0, fmt.Errorf("quill: value is %s, not a list", kindOf(v))
	}
	return len(l.Elems), nil
}

// Elems forces val and returns one lazily-wrapped Value per list
// element, in order.
func (val *Value) Elems() ([]*Value, error) {
	v, err := val.force()
	if err != nil {
		return nil, err
	}
	l, ok := v.(env.VList)
	if !ok {
		return nil, fmt.Errorf("quill: value is %s, not a list", kindOf(v))
	}
	out := make([]*Value, len(l.Elems))
	for i, th := range l.Elems {
		out[i] = val.thunkChild(th)
	}
	return out, nil
}

// Fields forces val and returns its record fields as lazily-wrapped
// Values, keyed by field name. Hidden fields (leading "_", per
// term.Ident.Exported) are included; use FieldNames for the exported
// subset export.go relies on.
func (val *Value) Fields() (map[string]*Value, error) {
	v, err := val.force()
	if err != nil {
		return nil, err
	}
	r, ok := v.(env.VRecord)
	if !ok {
		return nil, fmt.Errorf("quill: value is %s, not a record", kindOf(v))
	}
	out := make(map[string]*Value, len(r.Fields))
	for name, th := range r.Fields {
		out[string(name)] = val.thunkChild(th)
	}
	return out, nil
}

// FieldNames forces val and returns its exported field names, sorted.
func (val *Value) FieldNames() ([]string, error) {
	v, err := val.force()
	if err != nil {
		return nil, err
	}
	r, ok := v.(env.VRecord)
	if !ok {
		return nil, fmt.Errorf("quill: value is %s, not a record", kindOf(v))
	}
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		if !name.Exported() {
			continue
		}
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names, nil
}

// LookupField forces val and returns the named field.
func (val *Value) LookupField(name string) (*Value, error) {
	v, err := val.force()
	if err != nil {
		return nil, err
	}
	r, ok := v.(env.VRecord)
	if !ok {
		return nil, fmt.Errorf("quill: value is %s, not a record", kindOf(v))
	}
	th, ok := r.Fields[term.Ident(name)]
	if !ok {
		return nil, &evalerrNotFound{name: name}
	}
	return val.thunkChild(th), nil
}

func (val *Value) thunkChild(th *env.Thunk) *Value {
	return &Value{ctx: val.ctx, thunk: th}
}

type evalerrNotFound struct{ name string }

func (e *evalerrNotFound) Error() string { return fmt.Sprintf("quill: no field %q", e.name) }
