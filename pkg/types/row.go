package types

import (
	"fmt"
	"maps"
	"strconv"
)

// Row maps column keys to scalar values (string, number, bool or nil) plus
// an optional identity field.
type Row map[string]any

// ID resolves the row identity: id, then _id, then key. The first non-nil
// value wins and is coerced to a string. The second result is false when the
// row has no identity.
func (r Row) ID() (string, bool) {
	for _, field := range identityFields {
		if v, ok := r[field]; ok && v != nil {
			return Stringify(v), true
		}
	}
	return "", false
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return Row{}
	}
	return maps.Clone(r)
}

// StripIdentity returns a copy of the row without identity and foreign-key
// fields, suitable as an update payload.
func (r Row) StripIdentity() Row {
	out := r.Clone()
	for _, field := range strippedFields {
		delete(out, field)
	}
	return out
}

// Stringify renders a scalar row value as text. Nil renders as "".
// Whole floats render without a fraction so JSON numbers such as 3 print
// as "3" rather than "3.000000".
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Numeric reports whether v holds a Go numeric type and returns it as a
// float64.
func Numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
