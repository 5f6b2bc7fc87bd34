package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema describes the structure a model is asked to return.
type Schema struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`

	target   reflect.Type
	validate *validator.Validate
}

// Option configures schema creation.
type Option func(*Schema)

// WithDescription sets the context sentence placed ahead of the field list
// in prompts.
func WithDescription(desc string) Option {
	return func(s *Schema) {
		s.Description = desc
	}
}

// NewSchema builds a Schema from the exported fields of T. Field names come
// from json tags, prose from description tags, and a field is required
// unless it is a pointer or tagged omitempty.
func NewSchema[T any](opts ...Option) (Schema, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return Schema{}, errors.New("schema target must be a concrete type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Schema{}, fmt.Errorf("schema must be created from a struct type, got %v", t.Kind())
	}

	fields, err := structFields(t)
	if err != nil {
		return Schema{}, err
	}

	s := Schema{
		Name:     t.Name(),
		Fields:   fields,
		target:   t,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s, nil
}

// MustSchema is NewSchema for package-level contracts known to be valid.
func MustSchema[T any](opts ...Option) Schema {
	s, err := NewSchema[T](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func structFields(t reflect.Type) ([]Field, error) {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("json") == "-" {
			continue
		}

		ft := sf.Type
		required := !hasOmitempty(sf)
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
			required = false
		}

		field, err := typeField(ft)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		field.Name = jsonName(sf)
		field.Description = sf.Tag.Get("description")
		field.Required = required
		field.Validators = splitTag(sf.Tag.Get("validate"))
		field.Examples = splitTag(sf.Tag.Get("examples"))

		fields = append(fields, field)
	}
	return fields, nil
}

func typeField(t reflect.Type) (Field, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return Field{Type: TypeString}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Field{Type: TypeInteger}, nil
	case reflect.Float32, reflect.Float64:
		return Field{Type: TypeNumber}, nil
	case reflect.Bool:
		return Field{Type: TypeBoolean}, nil
	case reflect.Slice, reflect.Array:
		item, err := typeField(t.Elem())
		if err != nil {
			return Field{}, err
		}
		return Field{Type: TypeArray, Items: &item}, nil
	case reflect.Struct:
		props, err := structFields(t)
		if err != nil {
			return Field{}, err
		}
		return Field{Type: TypeObject, Properties: props}, nil
	case reflect.Map:
		return Field{Type: TypeObject}, nil
	default:
		return Field{}, fmt.Errorf("unsupported type %v", t.Kind())
	}
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" {
		return sf.Name
	}
	return name
}

func hasOmitempty(sf reflect.StructField) bool {
	return strings.Contains(sf.Tag.Get("json"), "omitempty")
}

func splitTag(tag string) []string {
	if tag == "" {
		return nil
	}
	return strings.Split(tag, ",")
}

// Unmarshal decodes data into a new value of the schema's struct type.
func (s Schema) Unmarshal(data []byte) (any, error) {
	if s.target == nil {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal: %w", err)
		}
		return m, nil
	}
	v := reflect.New(s.target).Interface()
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	return v, nil
}

// Validate checks data against the schema. Structs are validated with their
// validate tags; decoded maps are checked for required keys and JSON types.
func (s Schema) Validate(data any) []ValidationError {
	if m, ok := data.(map[string]any); ok {
		return validateMap(s.Fields, m)
	}
	if s.validate == nil {
		return nil
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	err := s.validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: s.Name, Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: formatValidationError(e),
			Value:   e.Value(),
		})
	}
	return out
}

// validateMap checks presence of required keys and the JSON type of each
// present key.
func validateMap(fields []Field, data map[string]any) []ValidationError {
	var errs []ValidationError
	for _, field := range fields {
		val, ok := data[field.Name]
		if !ok {
			if field.Required {
				errs = append(errs, ValidationError{Field: field.Name, Message: "required field is missing"})
			}
			continue
		}
		if err := checkType(field, val); err != nil {
			errs = append(errs, ValidationError{Field: field.Name, Message: err.Error(), Value: val})
		}
	}
	return errs
}

func checkType(field Field, val any) error {
	if val == nil {
		if field.Required {
			return errors.New("value is null but field is required")
		}
		return nil
	}

	switch field.Type {
	case TypeString:
		if _, ok := val.(string); !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
	case TypeInteger, TypeNumber:
		switch val.(type) {
		case int, int32, int64, float32, float64, json.Number:
		default:
			return fmt.Errorf("expected %s, got %T", field.Type, val)
		}
	case TypeBoolean:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", val)
		}
	case TypeArray:
		arr, ok := val.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", val)
		}
		if field.Items == nil {
			return nil
		}
		for i, item := range arr {
			if err := checkType(*field.Items, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	case TypeObject:
		obj, ok := val.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", val)
		}
		if errs := validateMap(field.Properties, obj); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
