package types

import (
	"fmt"
	"regexp"
	"strings"
)

// Column input types.
const (
	InputTypeDate = "date"
	InputTypeText = "text"
)

// dateLabel matches labels that contain the whole word "date".
var dateLabel = regexp.MustCompile(`(?i)\bdate\b`)

// ColumnDef describes one field of a section table.
type ColumnDef struct {
	// Key identifies the column within its table. It must be stable
	// across renders and unique within the table.
	Key string `json:"key" yaml:"key"`

	// Label is the display name.
	Label string `json:"label" yaml:"label"`

	// InputType is the explicit editor type ("date", "text"). When set it
	// decides date handling on its own.
	InputType string `json:"input_type,omitempty" yaml:"input_type,omitempty"`

	// Type is the explicit value type marker. Consulted when InputType is
	// empty.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// NumericOnly hints that string values hold numbers and should sort
	// numerically.
	NumericOnly bool `json:"numeric_only,omitempty" yaml:"numeric_only,omitempty"`
}

// IsDate reports whether the column holds dates. An explicit input type
// wins, then an explicit type, then a label containing the word "date".
func (c ColumnDef) IsDate() bool {
	if c.InputType != "" {
		return c.InputType == InputTypeDate
	}
	if c.Type != "" {
		return c.Type == InputTypeDate
	}
	return dateLabel.MatchString(c.Label)
}

// ExtraColumnPrefix starts the row key of every extra column.
const ExtraColumnPrefix = "extra_"

// ExtraColumn is a column one project added to a table at run time, such
// as a delivery milestone. Its values live in the table rows under Key.
type ExtraColumn struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Section   string `json:"section"`
	TableName string `json:"table_name"`
	Label     string `json:"column_name"`
	Order     int    `json:"order"`
}

// Key returns the row key holding the column's values.
func (c ExtraColumn) Key() string { return ExtraColumnPrefix + c.ID }

// Def returns the column as a plain text column.
func (c ExtraColumn) Def() ColumnDef {
	return ColumnDef{Key: c.Key(), Label: c.Label, InputType: InputTypeText}
}

// CheckColumnLabel trims label and rejects it when it is empty or when a
// base or extra column already carries it, ignoring case.
func CheckColumnLabel(label string, base []ColumnDef, extra []ExtraColumn) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("%w: column name is required", ErrInvalidData)
	}
	for _, c := range base {
		if strings.EqualFold(c.Label, label) {
			return "", fmt.Errorf("%w: %s", ErrColumnExists, label)
		}
	}
	for _, c := range extra {
		if strings.EqualFold(c.Label, label) {
			return "", fmt.Errorf("%w: %s", ErrColumnExists, label)
		}
	}
	return label, nil
}
