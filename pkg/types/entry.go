package types

// SingleEntryValue is the stored state of one narrative field. ImageData,
// when present, is a self-contained data URL.
type SingleEntryValue struct {
	Content   string  `json:"content"`
	ImageData *string `json:"image_data"`
}

// HasImage reports whether an image is attached.
func (v SingleEntryValue) HasImage() bool {
	return v.ImageData != nil && *v.ImageData != ""
}

// Equal compares content and image payloads.
func (v SingleEntryValue) Equal(o SingleEntryValue) bool {
	if v.Content != o.Content {
		return false
	}
	if v.HasImage() != o.HasImage() {
		return false
	}
	return !v.HasImage() || *v.ImageData == *o.ImageData
}
