package grid

import (
	"cmp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// fold returns the case-folded form of s. A Caser keeps state, so each
// call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// normalizeValue is the comparison form used by the duplicate policies.
func normalizeValue(v any) string {
	return fold(strings.TrimSpace(types.Stringify(v)))
}

// isNil reports a missing or null cell.
func isNil(v any) bool {
	return v == nil
}

// compareValues orders two non-nil cells of col. Dates compare by
// timestamp when both parse, numbers numerically, everything else by
// case-folded text.
func compareValues(col types.ColumnDef, a, b any) int {
	if col.IsDate() {
		at, aok := ParseDate(types.Stringify(a))
		bt, bok := ParseDate(types.Stringify(b))
		if aok && bok {
			return at.Compare(bt)
		}
	}

	if an, ok := types.Numeric(a); ok {
		if bn, ok := types.Numeric(b); ok {
			return cmp.Compare(an, bn)
		}
	}
	if col.NumericOnly {
		an, aerr := strconv.ParseFloat(strings.TrimSpace(types.Stringify(a)), 64)
		bn, berr := strconv.ParseFloat(strings.TrimSpace(types.Stringify(b)), 64)
		if aerr == nil && berr == nil {
			return cmp.Compare(an, bn)
		}
	}

	return strings.Compare(fold(types.Stringify(a)), fold(types.Stringify(b)))
}
