package docstore

import (
	"reflect"
	"strings"
	"time"
)

// Compact returns a copy of data with nil values removed at every depth.
// Sentinel values are kept as they are.
func Compact(data Data) Data {
	out := make(Data, len(data))
	for key, value := range data {
		if value == nil {
			continue
		}
		switch v := value.(type) {
		case map[string]interface{}:
			out[key] = Compact(v)
		default:
			if isNilValue(value) {
				continue
			}
			out[key] = value
		}
	}
	return out
}

func isNilValue(value interface{}) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Clone deep copies maps and slices of a document body.
func Clone(data Data) Data {
	if data == nil {
		return nil
	}
	out := make(Data, len(data))
	for key, value := range data {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return Clone(v)
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = cloneValue(item)
		}
		return items
	case []string:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = item
		}
		return items
	default:
		return v
	}
}

// Resolve returns a copy of data for a full overwrite: timestamps are
// stamped, array transforms become plain arrays and deletes are dropped.
func Resolve(data Data, now time.Time) Data {
	out := make(Data, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case map[string]interface{}:
			out[key] = Resolve(v, now)
		case ArrayUnionValue:
			out[key] = union(nil, v.Elements)
		case ArrayRemoveValue:
			out[key] = []interface{}{}
		default:
			if IsDeleteField(value) {
				continue
			}
			if IsServerTimestamp(value) {
				out[key] = now
				continue
			}
			out[key] = cloneValue(value)
		}
	}
	return out
}

// ApplyUpdate applies dotted-path updates to a copy of data.
func ApplyUpdate(data Data, updates Data, now time.Time) Data {
	out := Clone(data)
	if out == nil {
		out = Data{}
	}
	for field, value := range updates {
		applyField(out, strings.Split(field, "."), value, now)
	}
	return out
}

// ApplyMerge deep merges data into a copy of existing. Nested maps are
// merged key by key; other values replace what was there.
func ApplyMerge(existing Data, data Data, now time.Time) Data {
	out := Clone(existing)
	if out == nil {
		out = Data{}
	}
	mergeInto(out, data, now)
	return out
}

func mergeInto(dst Data, src Data, now time.Time) {
	for key, value := range src {
		if nested, ok := value.(map[string]interface{}); ok {
			child, ok := dst[key].(map[string]interface{})
			if !ok {
				child = Data{}
				dst[key] = child
			}
			mergeInto(child, nested, now)
			continue
		}
		applyField(dst, []string{key}, value, now)
	}
}

func applyField(dst Data, segments []string, value interface{}, now time.Time) {
	for _, segment := range segments[:len(segments)-1] {
		child, ok := dst[segment].(map[string]interface{})
		if !ok {
			if IsDeleteField(value) {
				return
			}
			child = Data{}
			dst[segment] = child
		}
		dst = child
	}
	last := segments[len(segments)-1]
	switch v := value.(type) {
	case ArrayUnionValue:
		dst[last] = union(asSlice(dst[last]), v.Elements)
	case ArrayRemoveValue:
		dst[last] = remove(asSlice(dst[last]), v.Elements)
	case map[string]interface{}:
		dst[last] = Resolve(v, now)
	default:
		switch {
		case IsDeleteField(value):
			delete(dst, last)
		case IsServerTimestamp(value):
			dst[last] = now
		default:
			dst[last] = cloneValue(value)
		}
	}
}

func asSlice(value interface{}) []interface{} {
	switch v := value.(type) {
	case []interface{}:
		return v
	case []string:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	}
	return nil
}

func union(existing []interface{}, elements []interface{}) []interface{} {
	out := make([]interface{}, 0, len(existing)+len(elements))
	out = append(out, existing...)
	for _, element := range elements {
		if !containsValue(out, element) {
			out = append(out, element)
		}
	}
	return out
}

func remove(existing []interface{}, elements []interface{}) []interface{} {
	out := make([]interface{}, 0, len(existing))
	for _, item := range existing {
		if !containsValue(elements, item) {
			out = append(out, item)
		}
	}
	return out
}

func containsValue(items []interface{}, value interface{}) bool {
	for _, item := range items {
		if ValuesEqual(item, value) {
			return true
		}
	}
	return false
}

// Lookup resolves a dotted field path inside data.
func Lookup(data Data, field string) (interface{}, bool) {
	var current interface{} = data
	for _, segment := range strings.Split(field, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Matches reports whether data satisfies every filter.
func Matches(data Data, filters []Filter) bool {
	for _, f := range filters {
		value, ok := Lookup(data, f.Field)
		if !ok {
			return false
		}
		switch f.Op {
		case OpArrayContains:
			if !containsValue(asSlice(value), f.Value) {
				return false
			}
		default:
			if !ValuesEqual(value, f.Value) {
				return false
			}
		}
	}
	return true
}

// ValuesEqual compares two document values, treating all numeric kinds as equal
// when they hold the same number.
func ValuesEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
