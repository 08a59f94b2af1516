package bser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// FromJSON parses data as JSON and converts the result to a Value,
// for CLI and test code that accepts commands as JSON text. JSON
// objects decode to *Object with keys in sorted order, JSON numbers
// decode to Number, and JSON null decodes to NullValue.
func FromJSON(data []byte) (Value, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("bser: parse json: %w", err)
	}
	return fromAny(v)
}

func jsonObjectKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return NullValue, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("bser: json number %q: %w", t, err)
		}
		return Number(f), nil
	case []any:
		arr := make(Array, len(t))
		for i, elem := range t {
			ev, err := fromAny(elem)
			if err != nil {
				return nil, err
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		obj := NewObject()
		for _, k := range jsonObjectKeys(t) {
			ev, err := fromAny(t[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, ev)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("bser: unsupported json value of type %T", v)
	}
}

// ToNative converts v to the plain any (map[string]any, []any, string,
// float64, bool, nil) tree that encoding/json and gopkg.in/yaml.v3
// marshal directly, for printing a decoded response with the CLI's
// table/json/yaml renderers.
func ToNative(v Value) any {
	switch t := v.(type) {
	case nullValue:
		return nil
	case undefinedValue:
		return nil
	case Bool:
		return bool(t)
	case String:
		return string(t)
	case Number:
		return float64(t)
	case Int64:
		return int64(t)
	case Array:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = ToNative(elem)
		}
		return out
	case *Object:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			if IsUndefined(val) {
				continue
			}
			out[k] = ToNative(val)
		}
		return out
	default:
		return nil
	}
}
