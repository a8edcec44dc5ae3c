package grid

import (
	"sort"
	"strings"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Direction is a sort order.
type Direction int

// Sort directions.
const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// SortState is the active sort. An empty Key keeps backend order.
type SortState struct {
	Key       string
	Direction Direction
}

// normalizeQuery trims and folds a search query.
func normalizeQuery(q string) string {
	return fold(strings.TrimSpace(q))
}

// matchRow reports whether any column of row contains q. Date columns
// match on their display form. q must already be normalised.
func matchRow(row types.Row, columns []types.ColumnDef, q string) bool {
	if q == "" {
		return true
	}
	for _, col := range columns {
		v := row[col.Key]
		if isNil(v) {
			continue
		}
		s := types.Stringify(v)
		if col.IsDate() {
			s = FormatDate(s)
		}
		if strings.Contains(fold(s), q) {
			return true
		}
	}
	return false
}

// filterRows returns the rows that match q, in their original order.
func filterRows(rows []types.Row, columns []types.ColumnDef, q string) []types.Row {
	out := make([]types.Row, 0, len(rows))
	for _, r := range rows {
		if matchRow(r, columns, q) {
			out = append(out, r)
		}
	}
	return out
}

// sortRows orders rows in place by s. Nil cells go last in both
// directions and ties keep their relative order.
func sortRows(rows []types.Row, schema types.TableSchema, s SortState) {
	if s.Key == "" {
		return
	}
	col, ok := schema.Column(s.Key)
	if !ok {
		col = types.ColumnDef{Key: s.Key}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][s.Key], rows[j][s.Key]
		switch {
		case isNil(a):
			return false
		case isNil(b):
			return true
		}
		c := compareValues(col, a, b)
		if s.Direction == Desc {
			c = -c
		}
		return c < 0
	})
}
