// Package schema derives the extraction contract handed to language models
// from annotated Go structs, and validates what comes back.
package schema

import "encoding/json"

// FieldType is the JSON type of a schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// Field is one property of the contract.
type Field struct {
	Name        string    `json:"name,omitempty"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Items       *Field    `json:"items,omitempty"`
	Properties  []Field   `json:"-"`
	Validators  []string  `json:"validators,omitempty"`
	Examples    []string  `json:"examples,omitempty"`
}

// MarshalJSON includes Properties, which the struct tag hides to keep
// Items and Properties from both appearing on scalar fields.
func (f Field) MarshalJSON() ([]byte, error) {
	type alias Field
	return json.Marshal(struct {
		alias
		Properties []Field `json:"properties,omitempty"`
	}{alias: alias(f), Properties: f.Properties})
}

// ValidationError is one failed rule.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
