// Package termjson decodes the JSON tree format cmd/quill reads program
// input from. There is no surface-syntax parser in this repository;
// this format is the
// machine-readable substitute a CLI and its script tests need to name a
// program at all, structurally mirroring term.Term's own tagged union
// rather than inventing a textual grammar.
package termjson

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/quill-lang/quill/internal/core/term"
)

// node is the wire shape: "kind" selects the term.Term variant, and
// the remaining fields are interpreted according to it.
type node struct {
	Kind    string          `json:"kind"`
	Value   json.RawMessage `json:"value,omitempty"`
	Tag     string          `json:"tag,omitempty"`
	Name    string          `json:"name,omitempty"`
	Param   string          `json:"param,omitempty"`
	Body    *node           `json:"body,omitempty"`
	Bound   *node           `json:"bound,omitempty"`
	Fun     *node           `json:"fun,omitempty"`
	Arg     *node           `json:"arg,omitempty"`
	Left    *node           `json:"left,omitempty"`
	Right   *node           `json:"right,omitempty"`
	Op      string          `json:"op,omitempty"`
	Fields  map[string]node `json:"fields,omitempty"`
	Elems   []node          `json:"elems,omitempty"`
	Payload *node           `json:"payload,omitempty"`
	Type    *typeNode       `json:"type,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// typeNode is the wire shape for the syntactic types a promise/assume
// node carries, mirroring term.Type's variants.
type typeNode struct {
	Kind   string               `json:"kind"`
	Name   string               `json:"name,omitempty"`
	Body   *typeNode            `json:"body,omitempty"`
	Dom    *typeNode            `json:"dom,omitempty"`
	Cod    *typeNode            `json:"cod,omitempty"`
	Fields map[string]*typeNode `json:"fields,omitempty"`
	Tags   []string             `json:"tags,omitempty"`
	Tail   string               `json:"tail,omitempty"` // "" means a closed row; otherwise a row-variable name
	Field  *typeNode            `json:"field,omitempty"`
}

// Decode parses data into a term.Term.
func Decode(data []byte) (term.Term, error) {
	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("termjson: %w", err)
	}
	return build(&n)
}

func build(n *node) (term.Term, error) {
	if n == nil {
		return nil, fmt.Errorf("termjson: nil node")
	}
	switch n.Kind {
	case "null":
		return &term.Null{}, nil
	case "bool":
		var b bool
		if err := json.Unmarshal(n.Value, &b); err != nil {
			return nil, fmt.Errorf("termjson: bool: %w", err)
		}
		return &term.Bool{Value: b}, nil
	case "num":
		var f float64
		if err := json.Unmarshal(n.Value, &f); err != nil {
			return nil, fmt.Errorf("termjson: num: %w", err)
		}
		return &term.Num{Value: f}, nil
	case "str":
		var s string
		if err := json.Unmarshal(n.Value, &s); err != nil {
			return nil, fmt.Errorf("termjson: str: %w", err)
		}
		return &term.Str{Value: s}, nil
	case "enum":
		return &term.Enum{Tag: term.Ident(n.Tag)}, nil
	case "var":
		return &term.Var{Name: term.Ident(n.Name)}, nil
	case "fun":
		body, err := build(n.Body)
		if err != nil {
			return nil, err
		}
		return &term.Fun{Param: term.Ident(n.Param), Body: body}, nil
	case "let":
		bound, err := build(n.Bound)
		if err != nil {
			return nil, err
		}
		body, err := build(n.Body)
		if err != nil {
			return nil, err
		}
		return &term.Let{Name: term.Ident(n.Name), Bound: bound, Body: body}, nil
	case "app":
		fn, err := build(n.Fun)
		if err != nil {
			return nil, err
		}
		arg, err := build(n.Arg)
		if err != nil {
			return nil, err
		}
		return &term.App{Fun: fn, Arg: arg}, nil
	case "record", "recrecord":
		fields := make(map[term.Ident]term.Term, len(n.Fields))
		for k, v := range n.Fields {
			fv, err := build(&v)
			if err != nil {
				return nil, err
			}
			fields[term.Ident(k)] = fv
		}
		if n.Kind == "recrecord" {
			return &term.RecRecord{Fields: fields}, nil
		}
		return &term.Record{Fields: fields}, nil
	case "list":
		elems := make([]term.Term, len(n.Elems))
		for i := range n.Elems {
			ev, err := build(&n.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = ev
		}
		return &term.List{Elems: elems}, nil
	case "op2":
		left, err := build(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := build(n.Right)
		if err != nil {
			return nil, err
		}
		op, err := binaryOp(n.Op)
		if err != nil {
			return nil, err
		}
		return &term.Op2{Op: op, Left: left, Right: right}, nil
	case "op1":
		arg, err := build(n.Arg)
		if err != nil {
			return nil, err
		}
		if n.Op == "static_access" {
			return &term.Op1{Op: term.StaticAccess{Field: term.Ident(n.Name)}, Arg: arg}, nil
		}
		op, err := unaryOp(n.Op)
		if err != nil {
			return nil, err
		}
		return &term.Op1{Op: op, Arg: arg}, nil
	case "promise", "assume":
		inner, err := build(n.Body)
		if err != nil {
			return nil, err
		}
		ty, err := buildType(n.Type)
		if err != nil {
			return nil, err
		}
		lbl := &term.Label{Tag: n.Tag, Polarity: true}
		if n.Kind == "promise" {
			return &term.Promise{Type: &ty, Label: lbl, Inner: inner}, nil
		}
		return &term.Assume{Type: &ty, Label: lbl, Inner: inner}, nil
	case "default":
		inner, err := build(n.Body)
		if err != nil {
			return nil, err
		}
		return &term.DefaultValue{Inner: inner}, nil
	case "contract_default":
		inner, err := build(n.Body)
		if err != nil {
			return nil, err
		}
		ty, err := buildType(n.Type)
		if err != nil {
			return nil, err
		}
		lbl := &term.Label{Tag: n.Tag, Polarity: true}
		return &term.ContractWithDefault{Type: &ty, Label: lbl, Inner: inner}, nil
	case "docstring":
		inner, err := build(n.Body)
		if err != nil {
			return nil, err
		}
		return &term.Docstring{Text: n.Text, Inner: inner}, nil
	case "import":
		return &term.Import{Path: n.Name}, nil
	default:
		return nil, fmt.Errorf("termjson: unknown node kind %q", n.Kind)
	}
}

func buildType(n *typeNode) (term.Type, error) {
	if n == nil {
		return nil, fmt.Errorf("termjson: missing type")
	}
	switch n.Kind {
	case "dyn":
		return term.Dyn{}, nil
	case "num":
		return term.NumT{}, nil
	case "bool":
		return term.BoolT{}, nil
	case "str":
		return term.StrT{}, nil
	case "sym":
		return term.SymT{}, nil
	case "list":
		return term.ListT{}, nil
	case "arrow":
		dom, err := buildType(n.Dom)
		if err != nil {
			return nil, err
		}
		cod, err := buildType(n.Cod)
		if err != nil {
			return nil, err
		}
		return term.ArrowT{Dom: dom, Cod: cod}, nil
	case "forall":
		body, err := buildType(n.Body)
		if err != nil {
			return nil, err
		}
		return term.ForallT{Name: term.Ident(n.Name), Body: body}, nil
	case "tvar":
		return term.VarT{Name: term.Ident(n.Name)}, nil
	case "record":
		row, err := buildRow(n)
		if err != nil {
			return nil, err
		}
		return term.StaticRecordT{Row: row}, nil
	case "enum":
		var row term.Type = term.RowEmpty{}
		if n.Tail != "" {
			row = term.VarT{Name: term.Ident(n.Tail)}
		}
		for i := len(n.Tags) - 1; i >= 0; i-- {
			row = term.RowExtend{Label: term.Ident(n.Tags[i]), Tail: row}
		}
		return term.EnumT{Row: row}, nil
	case "dynrecord":
		ft, err := buildType(n.Field)
		if err != nil {
			return nil, err
		}
		return term.DynRecordT{FieldType: ft}, nil
	default:
		return nil, fmt.Errorf("termjson: unknown type kind %q", n.Kind)
	}
}

func buildRow(n *typeNode) (term.Type, error) {
	names := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	var row term.Type = term.RowEmpty{}
	if n.Tail != "" {
		row = term.VarT{Name: term.Ident(n.Tail)}
	}
	for i := len(names) - 1; i >= 0; i-- {
		ft, err := buildType(n.Fields[names[i]])
		if err != nil {
			return nil, err
		}
		row = term.RowExtend{Label: term.Ident(names[i]), FieldType: ft, Tail: row}
	}
	return row, nil
}

func binaryOp(name string) (term.BinaryOp, error) {
	switch name {
	case "plus":
		return term.Plus{}, nil
	case "plus_str":
		return term.PlusStr{}, nil
	case "merge":
		return term.Merge{}, nil
	case "eq_bool":
		return term.EqBool{}, nil
	case "list_concat":
		return term.ListConcat{}, nil
	case "list_elem_at":
		return term.ListElemAt{}, nil
	case "has_field":
		return term.HasField{}, nil
	case "dyn_access":
		return term.DynAccess{}, nil
	case "dyn_remove":
		return term.DynRemove{}, nil
	default:
		return nil, fmt.Errorf("termjson: unknown binary op %q", name)
	}
}

func unaryOp(name string) (term.UnaryOp, error) {
	switch name {
	case "is_zero":
		return term.IsZero{}, nil
	case "fields_of":
		return term.FieldsOf{}, nil
	case "seq":
		return term.Seq{}, nil
	case "deep_seq":
		return term.DeepSeq{}, nil
	case "list_head":
		return term.ListHead{}, nil
	case "list_tail":
		return term.ListTail{}, nil
	case "list_length":
		return term.ListLength{}, nil
	case "ite":
		return term.Ite{}, nil
	case "trace":
		return term.Trace{}, nil
	case "is_num":
		return term.IsNum{}, nil
	case "is_bool":
		return term.IsBool{}, nil
	case "is_str":
		return term.IsStr{}, nil
	case "is_fun":
		return term.IsFun{}, nil
	case "is_list":
		return term.IsList{}, nil
	case "is_record":
		return term.IsRecord{}, nil
	default:
		return nil, fmt.Errorf("termjson: unknown unary op %q", name)
	}
}
