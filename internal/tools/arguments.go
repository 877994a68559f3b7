package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Arguments are the validated arguments of a tool call. Values have
// already been checked against the tool's ParamSpecs, so the typed
// accessors only fall back when a parameter is absent.
type Arguments map[string]interface{}

// String returns a string argument or def
func (a Arguments) String(name, def string) string {
	if v, ok := a[name].(string); ok {
		return v
	}
	return def
}

// Int returns an integer argument or def
func (a Arguments) Int(name string, def int) int {
	switch v := a[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return clampToInt(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return clampToInt(f)
		}
	}
	return def
}

// clampToInt converts f to int, saturating at the int range
func clampToInt(f float64) int {
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

// Float returns a number argument or def
func (a Arguments) Float(name string, def float64) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

// Bool returns a boolean argument or def
func (a Arguments) Bool(name string, def bool) bool {
	if v, ok := a[name].(bool); ok {
		return v
	}
	return def
}

// Strings returns an array-of-string argument
func (a Arguments) Strings(name string) []string {
	switch v := a[name].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Has reports whether the argument was supplied
func (a Arguments) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// validateArguments checks raw arguments against the tool's parameters and
// returns every problem found, in a stable order.
func validateArguments(spec ToolSpec, raw map[string]interface{}) []string {
	var problems []string

	for _, name := range spec.paramOrder() {
		p := spec.Params[name]
		v, ok := raw[name]
		if !ok || v == nil {
			if p.Required {
				problems = append(problems, fmt.Sprintf("missing required parameter %q", name))
			}
			continue
		}
		if msg := checkType(p.Type, p.Items, v); msg != "" {
			problems = append(problems, fmt.Sprintf("parameter %q %s", name, msg))
		}
	}

	var unexpected []string
	for name := range raw {
		if _, ok := spec.Params[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	sort.Strings(unexpected)
	for _, name := range unexpected {
		problems = append(problems, fmt.Sprintf("unexpected parameter %q", name))
	}
	return problems
}

func checkType(t, items ParamType, v interface{}) string {
	switch t {
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("must be a string, got %s", describe(v))
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("must be a boolean, got %s", describe(v))
		}
	case TypeNumber:
		if _, ok := number(v); !ok {
			return fmt.Sprintf("must be a number, got %s", describe(v))
		}
	case TypeInteger:
		f, ok := number(v)
		if !ok {
			return fmt.Sprintf("must be an integer, got %s", describe(v))
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return fmt.Sprintf("must be an integer, got %s", strconv.FormatFloat(f, 'g', -1, 64))
		}
	case TypeArray:
		list, ok := v.([]interface{})
		if !ok {
			if _, isStrings := v.([]string); isStrings && items == TypeString {
				return ""
			}
			return fmt.Sprintf("must be an array, got %s", describe(v))
		}
		for i, item := range list {
			if msg := checkType(items, "", item); msg != "" {
				return fmt.Sprintf("item %d %s", i, msg)
			}
		}
	}
	return ""
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func describe(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return "number"
	case []interface{}, []string:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
