package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

type position struct {
	Role    string `json:"role" description:"Job title"`
	Company string `json:"company" description:"Employer"`
}

type person struct {
	Name     string     `json:"name" description:"Full name" validate:"required"`
	Age      int        `json:"age" validate:"gte=0"`
	Nickname *string    `json:"nickname,omitempty"`
	Skills   []string   `json:"skills" description:"Skill names"`
	History  []position `json:"history" description:"Positions, newest first"`
	Status   string     `json:"status,omitempty" examples:"open,closed" validate:"omitempty,oneof=open closed"`
	internal string
}

func fieldByName(t *testing.T, fields []Field, name string) Field {
	t.Helper()
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %q not found", name)
	return Field{}
}

func TestNewSchema_Fields(t *testing.T) {
	s, err := NewSchema[person](WithDescription("A person"))
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	if s.Name != "person" {
		t.Errorf("Name = %q, want person", s.Name)
	}
	if s.Description != "A person" {
		t.Errorf("Description = %q", s.Description)
	}
	if len(s.Fields) != 6 {
		t.Fatalf("expected 6 exported fields, got %d", len(s.Fields))
	}

	tests := []struct {
		name     string
		typ      FieldType
		required bool
	}{
		{"name", TypeString, true},
		{"age", TypeInteger, true},
		{"nickname", TypeString, false},
		{"skills", TypeArray, true},
		{"history", TypeArray, true},
		{"status", TypeString, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fieldByName(t, s.Fields, tt.name)
			if f.Type != tt.typ {
				t.Errorf("type = %s, want %s", f.Type, tt.typ)
			}
			if f.Required != tt.required {
				t.Errorf("required = %v, want %v", f.Required, tt.required)
			}
		})
	}

	history := fieldByName(t, s.Fields, "history")
	if history.Items == nil || history.Items.Type != TypeObject {
		t.Fatalf("history items should be objects, got %+v", history.Items)
	}
	if len(history.Items.Properties) != 2 {
		t.Errorf("expected 2 item properties, got %d", len(history.Items.Properties))
	}
	if got := fieldByName(t, s.Fields, "status").Examples; len(got) != 2 {
		t.Errorf("expected 2 examples, got %v", got)
	}
}

func TestNewSchema_RejectsNonStruct(t *testing.T) {
	if _, err := NewSchema[string](); err == nil {
		t.Error("expected error for non-struct type")
	}
	if _, err := NewSchema[any](); err == nil {
		t.Error("expected error for interface type")
	}
}

func TestNewSchema_PointerType(t *testing.T) {
	s, err := NewSchema[*person]()
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	if s.Name != "person" {
		t.Errorf("Name = %q", s.Name)
	}
}

func TestToJSONSchema(t *testing.T) {
	s := MustSchema[person]()
	js := s.ToJSONSchema()

	if js["type"] != "object" {
		t.Errorf("type = %v", js["type"])
	}
	if js["additionalProperties"] != false {
		t.Error("root should forbid additional properties")
	}
	req, _ := js["required"].([]string)
	if strings.Join(req, ",") != "name,age,skills,history" {
		t.Errorf("required = %v", req)
	}

	props := js["properties"].(map[string]any)
	history := props["history"].(map[string]any)
	items := history["items"].(map[string]any)
	if items["type"] != "object" || items["additionalProperties"] != false {
		t.Errorf("history items = %v", items)
	}
	if _, ok := items["properties"].(map[string]any)["role"]; !ok {
		t.Error("history items missing role")
	}

	// Must survive a JSON round trip for provider SDKs.
	if _, err := json.Marshal(js); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestToPromptDescription(t *testing.T) {
	s := MustSchema[person](WithDescription("A LinkedIn member"))
	desc := s.ToPromptDescription()

	for _, want := range []string{
		"A LinkedIn member",
		"- name (string, required): Full name",
		"- nickname (string)",
		"Each item:",
		"    - role (string, required): Job title",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("prompt missing %q:\n%s", want, desc)
		}
	}
}

func TestValidate_Struct(t *testing.T) {
	s := MustSchema[person]()

	if errs := s.Validate(&person{Name: "Ada", Status: "open"}); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}

	errs := s.Validate(person{Age: -1, Status: "pending"})
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
	if errs[0].Field != "Name" || errs[0].Message != "is required" {
		t.Errorf("first error = %v", errs[0])
	}
}

func TestValidate_Map(t *testing.T) {
	s := MustSchema[person]()

	tests := []struct {
		name string
		data map[string]any
		want int
	}{
		{
			name: "valid",
			data: map[string]any{
				"name": "Ada", "age": float64(36), "skills": []any{"math"},
				"history": []any{map[string]any{"role": "Analyst", "company": "Engine Co"}},
			},
			want: 0,
		},
		{
			name: "missing required",
			data: map[string]any{"name": "Ada"},
			want: 3,
		},
		{
			name: "wrong types",
			data: map[string]any{
				"name": 42, "age": "old", "skills": "math",
				"history": []any{map[string]any{"role": 1, "company": "x"}},
			},
			want: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := s.Validate(tt.data); len(errs) != tt.want {
				t.Errorf("got %d errors (%v), want %d", len(errs), errs, tt.want)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	s := MustSchema[person]()
	v, err := s.Unmarshal([]byte(`{"name":"Ada","skills":["math"]}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	p, ok := v.(*person)
	if !ok {
		t.Fatalf("got %T, want *person", v)
	}
	if p.Name != "Ada" || len(p.Skills) != 1 {
		t.Errorf("decoded = %+v", p)
	}

	if _, err := s.Unmarshal([]byte(`{`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestField_MarshalJSONIncludesProperties(t *testing.T) {
	f := Field{Name: "job", Type: TypeObject, Properties: []Field{{Name: "role", Type: TypeString}}}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"properties":[{"name":"role","type":"string"}]`) {
		t.Errorf("properties missing: %s", data)
	}
}
