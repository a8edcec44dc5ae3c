package types

// SearchItem is one searchable fragment of rendered section content, tagged
// with the anchor that scrolls it into view.
type SearchItem struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	SectionID    string `json:"section_id"`
	SectionLabel string `json:"section_label"`

	// ItemID is the navigation item that renders the fragment.
	ItemID string `json:"item_id"`

	// GroupID is the table key or narrative group the item belongs to.
	GroupID    string `json:"group_id"`
	GroupLabel string `json:"group_label"`

	Anchor         string `json:"anchor"`
	SearchableText string `json:"searchable_text"`
}
