package models

import (
	"strings"
	"time"
)

// Core lead attributes addressable by validation rules.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldCompany  = "company"
	FieldPosition = "position"
)

type Lead struct {
	ID           string            `json:"id"`
	WorkspaceID  string            `json:"workspace_id"`
	Stage        string            `json:"stage"`
	SortOrder    float64           `json:"sort_order"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Company      string            `json:"company"`
	Position     string            `json:"position"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Field returns the value of a core attribute or, failing that, a custom field.
func (l *Lead) Field(key string) string {
	switch key {
	case FieldName:
		return l.Name
	case FieldEmail:
		return l.Email
	case FieldPhone:
		return l.Phone
	case FieldCompany:
		return l.Company
	case FieldPosition:
		return l.Position
	}
	return l.CustomFields[key]
}

// HasField reports whether the field holds a non-blank value.
func (l *Lead) HasField(key string) bool {
	return strings.TrimSpace(l.Field(key)) != ""
}

// Clone returns a deep copy (custom fields included).
func (l Lead) Clone() Lead {
	if l.CustomFields != nil {
		cf := make(map[string]string, len(l.CustomFields))
		for k, v := range l.CustomFields {
			cf[k] = v
		}
		l.CustomFields = cf
	}
	return l
}

type CreateLeadRequest struct {
	Name         string            `json:"name" binding:"required"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Company      string            `json:"company"`
	Position     string            `json:"position"`
	Stage        string            `json:"stage"`
	CustomFields map[string]string `json:"custom_fields"`
}
