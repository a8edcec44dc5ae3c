package types

import "time"

// GenericRow is the wire shape of one section table row.
type GenericRow struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	Section   string         `json:"section"`
	TableName string         `json:"table_name"`
	Data      map[string]any `json:"data"`
}

// RowPayload is the body of row create and update requests.
type RowPayload struct {
	Data map[string]any `json:"data"`
}

// ColumnCreate is the body of an extra column create request.
type ColumnCreate struct {
	ColumnName string `json:"column_name"`
}

// SingleEntryPayload is the body of a single-entry upsert.
type SingleEntryPayload struct {
	FieldName string  `json:"field_name"`
	Content   string  `json:"content"`
	ImageData *string `json:"image_data"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// UserCreate is the body of POST /users.
type UserCreate struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// RoleUpdate is the body of PATCH /users/{id}/role.
type RoleUpdate struct {
	Role Role `json:"role"`
}

// ProjectCreate is the body of POST /projects.
type ProjectCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Message is the JSON body of responses that carry no entity.
type Message struct {
	Message string `json:"message"`
}

// RowFromWire flattens a GenericRow into a Row carrying its identity.
func RowFromWire(g GenericRow) Row {
	r := make(Row, len(g.Data)+1)
	for k, v := range g.Data {
		r[k] = v
	}
	r[FieldID] = g.ID
	return r
}

// RowToWire wraps a Row in its wire shape. The row's identity moves out of
// the data map.
func RowToWire(projectID, section, table string, r Row) GenericRow {
	id, _ := r.ID()
	return GenericRow{
		ID:        id,
		ProjectID: projectID,
		Section:   section,
		TableName: table,
		Data:      map[string]any(r.StripIdentity()),
	}
}

// SingleEntryField is the wire shape of a stored single-entry value.
type SingleEntryField struct {
	ProjectID string  `json:"project_id"`
	FieldName string  `json:"field_name"`
	Content   string  `json:"content"`
	ImageData *string `json:"image_data"`
}
