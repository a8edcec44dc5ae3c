// Package search builds search items from rendered section content and
// aggregates them across every mounted table and narrative group of a
// project.
package search

import (
	"strings"

	"github.com/mesh-intelligence/planbook/internal/grid"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Source locates the content a provider indexes.
type Source struct {
	ProjectID    string
	SectionID    string
	SectionLabel string

	// ItemID is the navigation item that renders the content.
	ItemID string

	// GroupID and GroupLabel name the table or narrative group.
	GroupID    string
	GroupLabel string
}

// SourceID returns the registration id of a source.
func SourceID(projectID, sectionID, itemID string) string {
	return projectID + "-" + sectionID + "-" + itemID
}

// AnchorPrefix returns the anchor prefix shared by every item of a source.
func AnchorPrefix(projectID, sectionID, itemID string) string {
	return "search-" + SourceID(projectID, sectionID, itemID)
}

// RowAnchor returns the anchor of one table row.
func RowAnchor(prefix, rowKey string) string { return prefix + "-row-" + rowKey }

// FieldAnchor returns the anchor of one narrative field.
func FieldAnchor(prefix, field string) string { return prefix + "-field-" + field }

// ID returns the registration id of s.
func (s Source) ID() string { return SourceID(s.ProjectID, s.SectionID, s.ItemID) }

func (s Source) anchorPrefix() string { return AnchorPrefix(s.ProjectID, s.SectionID, s.ItemID) }

func (s Source) item(id, label, anchor, text string) types.SearchItem {
	return types.SearchItem{
		ID:             id,
		Label:          label,
		SectionID:      s.SectionID,
		SectionLabel:   s.SectionLabel,
		ItemID:         s.ItemID,
		GroupID:        s.GroupID,
		GroupLabel:     s.GroupLabel,
		Anchor:         anchor,
		SearchableText: text,
	}
}

// BuildTableItems returns one item per row. The label is the first
// non-empty value among columns; date values are indexed in display form.
func BuildTableItems(s Source, columns []types.ColumnDef, rows []types.Row) []types.SearchItem {
	prefix := s.anchorPrefix()
	items := make([]types.SearchItem, 0, len(rows))
	for i, row := range rows {
		key := grid.RowKey(row, i)
		parts := make([]string, 0, len(columns))
		label := ""
		for _, c := range columns {
			v := strings.TrimSpace(types.Stringify(row[c.Key]))
			if v == "" {
				continue
			}
			if c.IsDate() {
				v = grid.FormatDate(v)
			}
			if label == "" {
				label = v
			}
			parts = append(parts, v)
		}
		if label == "" {
			label = s.GroupLabel
		}
		items = append(items, s.item(
			s.ID()+"-row-"+key,
			label,
			RowAnchor(prefix, key),
			strings.Join(parts, " "),
		))
	}
	return items
}

// BuildEntryItems returns one item per narrative field that has content.
func BuildEntryItems(s Source, defs []types.SingleEntryDef, values map[string]types.SingleEntryValue) []types.SearchItem {
	prefix := s.anchorPrefix()
	var items []types.SearchItem
	for _, d := range defs {
		content := strings.TrimSpace(values[d.Field].Content)
		if content == "" {
			continue
		}
		items = append(items, s.item(
			s.ID()+"-field-"+d.Field,
			d.Label,
			FieldAnchor(prefix, d.Field),
			d.Label+" "+content,
		))
	}
	return items
}
