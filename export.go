package quill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v2"
	"gopkg.in/yaml.v3"
)

// treeOpts selects between the two tree walks: the export walk (zero
// value) prunes hidden fields and refuses enum variants, Dump's
// diagnostic walk keeps both.
type treeOpts struct {
	includeHidden bool
	allowVariants bool
}

// buildTree walks val into a plain Go value tree (map[string]any,
// []any, string, bool, nil, and whatever numConv produces for a
// number), the shared shape all three export encoders below consume.
// Deep forcing happens as a side effect of the walk itself — there is
// no separate eval-deep pass — since every field/element access below
// routes through Value.force, which already strips defaults. Hidden
// fields (leading "_") are pruned: this is the export walk; Dump below
// keeps them.
func buildTree(val *Value, numConv func(*apd.Decimal) (interface{}, error)) (interface{}, error) {
	return buildTreeOpt(val, numConv, treeOpts{})
}

func buildTreeOpt(val *Value, numConv func(*apd.Decimal) (interface{}, error), opts treeOpts) (interface{}, error) {
	switch val.Kind() {
	case BottomKind:
		return nil, val.Err()
	case NullKind:
		return nil, nil
	case BoolKind:
		return val.Bool()
	case StrKind:
		return val.Str()
	case NumKind:
		d, err := val.Decimal()
		if err != nil {
			return nil, err
		}
		return numConv(d)
	case EnumKind:
		tag, payload, err := val.Tag()
		if err != nil {
			return nil, err
		}
		if payload == nil {
			return tag, nil
		}
		// A bare tag exports as its name, but a variant carrying a
		// payload has no canonical encoding in any of the data formats;
		// exporting one fails the same way a function would.
		if !opts.allowVariants {
			return nil, fmt.Errorf("quill: enum variant %q has no canonical encoding", tag)
		}
		pv, err := buildTreeOpt(payload, numConv, opts)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"tag": tag, "value": pv}, nil
	case ListKind:
		elems, err := val.Elems()
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			tv, err := buildTreeOpt(e, numConv, opts)
			if err != nil {
				return nil, err
			}
			out[i] = tv
		}
		return out, nil
	case RecordKind:
		names, err := fieldNamesOpt(val, opts.includeHidden)
		if err != nil {
			return nil, err
		}
		out := make(map[string]interface{}, len(names))
		for _, name := range names {
			fv, err := val.LookupField(name)
			if err != nil {
				return nil, err
			}
			tv, err := buildTreeOpt(fv, numConv, opts)
			if err != nil {
				return nil, err
			}
			out[name] = tv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("quill: cannot export a value of kind %s", val.Kind())
	}
}

func fieldNamesOpt(val *Value, includeHidden bool) ([]string, error) {
	if !includeHidden {
		return val.FieldNames()
	}
	fields, err := val.Fields()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Dump is ToJSON without the export restrictions: every record field,
// exported or not, appears in the output, and an enum variant renders
// as a {"tag", "value"} pair. This is the "evaluate and show me
// everything" entry cmd/quill's eval subcommand uses, as opposed to
// the export subcommand's pruned, canonical tree.
func Dump(val *Value) ([]byte, error) {
	tree, err := buildTreeOpt(val, jsonNumConv, treeOpts{includeHidden: true, allowVariants: true})
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(tree, "", "  ")
}

func jsonNumConv(d *apd.Decimal) (interface{}, error) {
	return json.Number(d.String()), nil
}

func floatNumConv(d *apd.Decimal) (interface{}, error) {
	f, err := strconv.ParseFloat(d.String(), 64)
	if err != nil {
		return nil, fmt.Errorf("quill: number %s has no float64 representation: %w", d.String(), err)
	}
	return f, nil
}

// ToJSON forces val fully and renders it as JSON. Numbers round-trip
// exactly: encoding/json.Number preserves the decimal's own digits
// rather than re-quantizing through float64.
func ToJSON(val *Value) ([]byte, error) {
	tree, err := buildTree(val, jsonNumConv)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(tree, "", "  ")
}

// ToYAML forces val fully and renders it via gopkg.in/yaml.v3.
func ToYAML(val *Value) ([]byte, error) {
	tree, err := buildTree(val, floatNumConv)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}

// ToTOML forces val fully and renders it as TOML. The encoder only
// supports the subset buildTree ever produces (tables, arrays,
// strings, bools, floats), not the full TOML grammar: a nested record
// becomes a [section] table, and a record inside an array (which would
// need an inline table) is rejected.
func ToTOML(val *Value) ([]byte, error) {
	tree, err := buildTree(val, floatNumConv)
	if err != nil {
		return nil, err
	}
	top, ok := tree.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("quill: TOML export requires a record at the top level, got %s", val.Kind())
	}
	var buf bytes.Buffer
	if err := writeTOMLTable(&buf, "", top); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTOMLTable(buf *bytes.Buffer, prefix string, table map[string]interface{}) error {
	names := make([]string, 0, len(table))
	for k := range table {
		names = append(names, k)
	}
	sort.Strings(names)

	var subtables []string
	for _, name := range names {
		v := table[name]
		if _, ok := v.(map[string]interface{}); ok {
			subtables = append(subtables, name)
			continue
		}
		line, err := tomlScalarLine(name, v)
		if err != nil {
			return err
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	for _, name := range subtables {
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		fmt.Fprintf(buf, "\n[%s]\n", full)
		if err := writeTOMLTable(buf, full, table[name].(map[string]interface{})); err != nil {
			return err
		}
	}
	return nil
}

func tomlScalarLine(name string, v interface{}) (string, error) {
	rendered, err := tomlScalarValue(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", tomlKey(name), rendered), nil
}

func tomlKey(name string) string {
	bare := true
	for _, r := range name {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			bare = false
			break
		}
	}
	if bare && name != "" {
		return name
	}
	return strconv.Quote(name)
}

func tomlScalarValue(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return `""`, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case string:
		return strconv.Quote(x), nil
	case []interface{}:
		parts := make([]string, len(x))
		for i, el := range x {
			s, err := tomlScalarValue(el)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case map[string]interface{}:
		return "", fmt.Errorf("quill: nested inline tables are not supported by this TOML encoder")
	default:
		return "", fmt.Errorf("quill: cannot render %T as TOML", v)
	}
}
