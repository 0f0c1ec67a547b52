// Package fieldpath resolves dotted paths such as "transfer.to_location.id"
// against nested maps, structs and slices.
package fieldpath

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Getter resolves a dotted path to a value. ok is false when any segment is missing.
type Getter interface {
	Get(path string) (v any, ok bool)
}

// Map is the plain nested-map Getter used for event contexts.
type Map map[string]any

func (m Map) Get(path string) (any, bool) {
	return Lookup(map[string]any(m), path)
}

// Layered consults each Getter in order and returns the first hit.
type Layered []Getter

func (l Layered) Get(path string) (any, bool) {
	for _, g := range l {
		if g == nil {
			continue
		}
		if v, ok := g.Get(path); ok {
			return v, true
		}
	}
	return nil, false
}

// Lookup walks data one segment at a time. Maps are indexed by key, structs by
// json tag (falling back to the Go field name), slices by integer segment.
func Lookup(data any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	cur := reflect.ValueOf(data)
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil, false
		}
		cur = indirect(cur)
		if !cur.IsValid() {
			return nil, false
		}
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	cur = indirect(cur)
	if !cur.IsValid() {
		return nil, true
	}
	return cur.Interface(), true
}

// String reads path from g and stringifies the result; missing paths yield "".
func String(g Getter, path string) string {
	if g == nil {
		return ""
	}
	v, _ := g.Get(path)
	return Stringify(v)
}

// Stringify renders a resolved value the way templates and conditions see it.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return ""
		}
		return Stringify(*t)
	case fmt.Stringer:
		return t.String()
	}

	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return ""
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64, reflect.Bool:
		return Stringify(rv.Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct:
		b, err := json.Marshal(rv.Interface())
		if err != nil {
			return ""
		}
		return string(b)
	}
	return fmt.Sprint(rv.Interface())
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func step(v reflect.Value, seg string) (reflect.Value, bool) {
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		val := v.MapIndex(reflect.ValueOf(seg).Convert(v.Type().Key()))
		if !val.IsValid() {
			return reflect.Value{}, false
		}
		return val, true
	case reflect.Struct:
		return structField(v, seg)
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(i), true
	}
	return reflect.Value{}, false
}

func structField(v reflect.Value, seg string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == seg || (name == "" && f.Name == seg) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
