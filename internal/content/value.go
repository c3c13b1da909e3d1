package content

import (
	"fmt"
	"time"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	// KindLocalized is a mapping holding one string per locale.
	KindLocalized
	// KindLocation is a mapping carrying numeric lat and lon keys.
	KindLocation
	// KindObject is any other nested mapping.
	KindObject
	// KindList is a JSON array. Lists are not mappings and not scalars.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindLocalized:
		return "localized"
	case KindLocation:
		return "location"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	}

	return "invalid"
}

// Value is one node of a schemaless document. The zero Value is absent.
type Value struct {
	kind   Kind
	str    string
	num    float64
	flag   bool
	t      time.Time
	fields map[string]Value
	items  []Value
}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

func (v Value) Kind() Kind { return v.kind }

// IsPresent reports whether v holds anything at all.
func (v Value) IsPresent() bool { return v.kind != KindInvalid }

func (v Value) IsMapping() bool {
	return v.kind == KindLocalized || v.kind == KindLocation || v.kind == KindObject
}

// Map builds a mapping value and classifies it: numeric lat and lon make
// a location, all-string values make a localized text, anything else is
// a nested object.
func Map(fields map[string]Value) Value {
	copied := make(map[string]Value, len(fields))
	allStrings := true
	for k, f := range fields {
		copied[k] = f
		if f.kind != KindString {
			allStrings = false
		}
	}

	kind := KindObject
	switch {
	case copied["lat"].kind == KindNumber && copied["lon"].kind == KindNumber:
		kind = KindLocation
	case allStrings && len(copied) > 0:
		kind = KindLocalized
	}

	return Value{kind: kind, fields: copied}
}

// List builds a list value. Absent items are dropped.
func List(items []Value) Value {
	copied := make([]Value, 0, len(items))
	for _, item := range items {
		if item.IsPresent() {
			copied = append(copied, item)
		}
	}
	return Value{kind: KindList, items: copied}
}

// FromAny converts a decoded JSON/YAML tree into a Value.
func FromAny(raw any) (Value, error) {
	switch r := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return String(r), nil
	case bool:
		return Bool(r), nil
	case float64:
		return Number(r), nil
	case float32:
		return Number(float64(r)), nil
	case int:
		return Number(float64(r)), nil
	case int64:
		return Number(float64(r)), nil
	case time.Time:
		return Time(r), nil
	case map[string]any:
		fields := make(map[string]Value, len(r))
		for k, child := range r {
			v, err := FromAny(child)
			if err != nil {
				return Value{}, fmt.Errorf("field %q: %w", k, err)
			}
			if v.IsPresent() {
				fields[k] = v
			}
		}
		return Map(fields), nil
	case []any:
		items := make([]Value, 0, len(r))
		for i, child := range r {
			v, err := FromAny(child)
			if err != nil {
				return Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, v)
		}
		return List(items), nil
	case []string:
		items := make([]Value, 0, len(r))
		for _, item := range r {
			items = append(items, String(item))
		}
		return List(items), nil
	case map[string]string:
		fields := make(map[string]Value, len(r))
		for k, s := range r {
			fields[k] = String(s)
		}
		return Map(fields), nil
	}

	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

// Str returns the value if it is a plain string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// Get looks a key up in any mapping kind. Non-mappings have no keys.
func (v Value) Get(key string) Value {
	if !v.IsMapping() {
		return Value{}
	}
	return v.fields[key]
}

// Items returns the elements of a list, or nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Localized returns the string stored under locale, if v is a mapping.
func (v Value) Localized(locale string) (string, bool) {
	return v.Get(locale).Str()
}

// Interface converts the value back into plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	case KindTime:
		return v.t
	case KindLocalized, KindLocation, KindObject:
		out := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			out[k] = f.Interface()
		}
		return out
	case KindList:
		out := make([]any, 0, len(v.items))
		for _, item := range v.items {
			out = append(out, item.Interface())
		}
		return out
	}

	return nil
}
