package grid

import (
	"strings"
	"time"
)

// StorageDateLayout is the canonical form of date values sent to a
// repository.
const StorageDateLayout = "2006-01-02"

// DisplayDateLayout is the medium date style used for rendering and for
// matching search queries against date columns.
const DisplayDateLayout = "Jan 02, 2006"

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	StorageDateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// ParseDate parses s with the accepted layouts. Values that carry a zone
// are converted to UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// NormalizeDate returns s as YYYY-MM-DD. Unparseable input is returned
// unchanged.
func NormalizeDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format(StorageDateLayout)
}

// FormatDate renders s in the display layout. Unparseable input is
// returned unchanged.
func FormatDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format(DisplayDateLayout)
}
