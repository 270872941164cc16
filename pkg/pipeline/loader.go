package pipeline

import (
	"github.com/ohler55/ojg/jp"
	"k8s.io/apimachinery/pkg/util/json"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/value"
)

// GetJSONPathExp evaluates a JSONPath expression on a decoded JSON object. An expression with
// wildcards or unions returns the list of all matches, otherwise the single match is returned.
// Returns nil if nothing matches.
func GetJSONPathExp(query string, object any) (any, error) {
	je, err := jp.ParseString(query)
	if err != nil {
		return nil, dperr.NewRawError("failed to parse JSONpath %q: %s", query, err)
	}

	values := je.Get(object)
	switch {
	case len(values) == 0:
		return nil, nil
	case len(values) == 1 && !isMultiMatch(je):
		return values[0], nil
	}
	return values, nil
}

func isMultiMatch(x jp.Expr) bool {
	for _, f := range x {
		switch f.(type) {
		case jp.Wildcard, jp.Descent, jp.Union, jp.Slice, *jp.Filter:
			return true
		}
	}
	return false
}

// LoadData decodes a JSON document, selects the input with path (the root if empty) and converts
// it into a member candidate of the described domain. Numeric atoms are cast to the kind of the
// domain, so that JSON integers may feed a float domain.
func LoadData(raw []byte, path string, dc DomainConfig) (value.Value, error) {
	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, dperr.NewRawError("failed to decode data: %s", err)
	}

	if path != "" {
		sel, err := GetJSONPathExp(path, obj)
		if err != nil {
			return nil, err
		}
		if sel == nil {
			return nil, dperr.NewRawError("JSONpath %q matches nothing", path)
		}
		obj = sel
	}

	v, err := value.FromJSON(obj)
	if err != nil {
		return nil, err
	}
	return conform(v, dc)
}

// conform casts the numeric atoms of v to the kinds of dc.
func conform(v value.Value, dc DomainConfig) (value.Value, error) {
	switch dc.Type {
	case "numeric":
		s, ok := v.(value.Scalar)
		if !ok {
			return v, nil
		}
		k, err := dc.numericKind()
		if err != nil {
			return nil, err
		}
		return s.CastDecimal(k)
	case "vector":
		vec, ok := v.(value.Vector)
		if !ok || dc.Atom == nil || dc.Atom.Type != "numeric" {
			return v, nil
		}
		k, err := dc.Atom.numericKind()
		if err != nil {
			return nil, err
		}
		return vec.CastDecimal(k)
	case "dataframe":
		df, ok := v.(value.Dataframe)
		if !ok {
			return v, nil
		}
		// keep only the described columns, in order
		ret := value.NewDataframe()
		for _, c := range dc.Columns {
			col, err := df.Column(c.Name)
			if err != nil {
				return nil, err
			}
			if col, err = conform(col, c.Domain); err != nil {
				return nil, dperr.NewRawError("column %q: %s", c.Name, err)
			}
			ret = ret.With(c.Name, col)
		}
		return ret, nil
	}
	return v, nil
}
