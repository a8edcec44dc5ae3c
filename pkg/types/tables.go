package types

// Identity and foreign-key fields of a row. They are never sent as part of
// an update payload.
const (
	FieldID        = "id"
	FieldAltID     = "_id"
	FieldKey       = "key"
	FieldProjectID = "project_id"
)

// identityFields lists the row identity fields in resolution order.
var identityFields = []string{FieldID, FieldAltID, FieldKey}

// strippedFields lists the fields removed by StripIdentity. "key" stays
// because it may double as a data column.
var strippedFields = []string{FieldID, FieldAltID, FieldProjectID}
