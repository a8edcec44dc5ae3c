package grid

import "github.com/mesh-intelligence/planbook/pkg/types"

// checkDuplicates applies the unique-key and whole-row policies of the
// schema to payload against the cached rows. The row identified by
// ignoreID is skipped.
func (e *Engine) checkDuplicates(payload types.Row, ignoreID string) error {
	if keys := e.schema.UniqueKeys; len(keys) > 0 {
		if e.anyOther(ignoreID, func(r types.Row) bool { return sameOn(r, payload, keys) }) {
			labels := make([]string, len(keys))
			for i, k := range keys {
				labels[i] = e.schema.ColumnLabel(k)
			}
			return &DuplicateError{Kind: types.ErrDuplicateKey, Labels: labels}
		}
	}

	if e.schema.PreventDuplicateRows {
		keys := make([]string, len(e.schema.Columns))
		for i, c := range e.schema.Columns {
			keys[i] = c.Key
		}
		if e.anyOther(ignoreID, func(r types.Row) bool { return sameOn(r, payload, keys) }) {
			return &DuplicateError{Kind: types.ErrDuplicateRow}
		}
	}
	return nil
}

func (e *Engine) anyOther(ignoreID string, match func(types.Row) bool) bool {
	for _, r := range e.rows {
		if ignoreID != "" {
			if id, ok := r.ID(); ok && id == ignoreID {
				continue
			}
		}
		if match(r) {
			return true
		}
	}
	return false
}

// sameOn compares a and b on keys, trimmed and case-insensitively.
func sameOn(a, b types.Row, keys []string) bool {
	for _, k := range keys {
		if normalizeValue(a[k]) != normalizeValue(b[k]) {
			return false
		}
	}
	return true
}
