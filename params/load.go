package params

import (
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/ardnew/ttc/tmpl"
)

// Extensions lists the parameter file extensions understood by [Load].
func Extensions() []string { return []string{".yaml", ".yml", ".json", ".hcl"} }

// Load reads a parameter file. The format is chosen by extension: YAML and
// JSON documents must have a mapping at the top level; HCL files contribute
// their attributes, and each block becomes a nested map keyed by its type
// and labels.
func Load(path string) (tmpl.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("path", path))
	}

	return Decode(path, data)
}

// Decode parses data as a parameter file named name. Only the extension of
// name is significant, except that it also appears in HCL diagnostics.
func Decode(name string, data []byte) (tmpl.Params, error) {
	var (
		p   tmpl.Params
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml", ".json":
		p, err = decodeYAML(data)

	case ".hcl":
		p, err = decodeHCL(name, data)

	default:
		return nil, ErrUnsupported.With(
			slog.String("path", name),
			slog.String("ext", ext),
		)
	}

	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("path", name))
	}

	return p, nil
}

func decodeYAML(data []byte) (tmpl.Params, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	switch m := normalize(doc).(type) {
	case nil:
		return tmpl.Params{}, nil
	case map[string]any:
		return m, nil
	default:
		return nil, fmt.Errorf("top level is %T, not a mapping", m)
	}
}

// normalize rewrites decoded YAML so maps are keyed by string and integers
// are int64, matching what [Parse] produces.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			val[k] = normalize(e)
		}

		return val

	case map[any]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[fmt.Sprint(k)] = normalize(e)
		}

		return m

	case []any:
		for i, e := range val {
			val[i] = normalize(e)
		}

		return val

	case int:
		return int64(val)

	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}

		return val

	default:
		return v
	}
}

func decodeHCL(name string, data []byte) (tmpl.Params, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, diags
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unexpected HCL body %T", file.Body)
	}

	m, diags := hclBody(body)
	if diags.HasErrors() {
		return nil, diags
	}

	return m, nil
}

func hclBody(body *hclsyntax.Body) (map[string]any, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	m := make(map[string]any, len(body.Attributes))

	for name, attr := range body.Attributes {
		v, d := attr.Expr.Value(nil)
		diags = append(diags, d...)

		if d.HasErrors() {
			continue
		}

		native, err := ctyToNative(v)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported parameter value",
				Detail:   err.Error(),
				Subject:  attr.SrcRange.Ptr(),
			})

			continue
		}

		m[name] = native
	}

	for _, blk := range body.Blocks {
		child, d := hclBody(blk.Body)
		diags = append(diags, d...)

		path := append([]string{blk.Type}, blk.Labels...)
		target := m

		for _, key := range path[:len(path)-1] {
			next, ok := target[key].(map[string]any)
			if !ok {
				next = map[string]any{}
				target[key] = next
			}

			target = next
		}

		last := path[len(path)-1]
		if existing, ok := target[last].(map[string]any); ok {
			mergeMap(existing, child)
		} else {
			target[last] = child
		}
	}

	return m, diags
}

// ctyToNative converts a cty value to plain Go values: strings, bool,
// int64 or float64 numbers, []any and map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}

		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}

		return f, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		s := make([]any, 0, v.LengthInt())

		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()

			n, err := ctyToNative(e)
			if err != nil {
				return nil, err
			}

			s = append(s, n)
		}

		return s, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any, v.LengthInt())

		for it := v.ElementIterator(); it.Next(); {
			k, e := it.Element()

			n, err := ctyToNative(e)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}

			m[k.AsString()] = n
		}

		return m, nil

	default:
		return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}
