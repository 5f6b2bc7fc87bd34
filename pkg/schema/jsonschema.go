package schema

import "strings"

// ToJSONSchema renders the schema as a JSON Schema object for providers
// that support structured output or tool input schemas.
func (s Schema) ToJSONSchema() map[string]any {
	out := objectSchema(s.Fields)
	if s.Description != "" {
		out["description"] = s.Description
	}
	return out
}

func objectSchema(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
		// strict structured output rejects schemas that allow extra keys
		"additionalProperties": false,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	var out map[string]any
	if f.Type == TypeObject && len(f.Properties) > 0 {
		out = objectSchema(f.Properties)
	} else {
		out = map[string]any{"type": string(f.Type)}
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	if len(f.Examples) > 0 {
		out["examples"] = f.Examples
	}
	if f.Type == TypeArray && f.Items != nil {
		out["items"] = fieldSchema(*f.Items)
	}
	return out
}

// ToPromptDescription renders the schema as a field list for inclusion in
// a prompt.
func (s Schema) ToPromptDescription() string {
	var sb strings.Builder
	sb.WriteString("## Content Type\n")
	if s.Description != "" {
		sb.WriteString(s.Description)
	} else {
		sb.WriteString("Extract the following structured data.")
	}
	sb.WriteString("\n\n## Fields to Extract\n")
	for _, f := range s.Fields {
		writeField(&sb, f, 0)
	}
	return sb.String()
}

func writeField(sb *strings.Builder, f Field, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString(indent)
	sb.WriteString("- ")
	sb.WriteString(f.Name)
	sb.WriteString(" (")
	sb.WriteString(string(f.Type))
	if f.Required {
		sb.WriteString(", required")
	}
	sb.WriteString(")")
	if f.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(f.Description)
	}
	sb.WriteString("\n")

	switch {
	case f.Type == TypeArray && f.Items != nil && f.Items.Type == TypeObject:
		sb.WriteString(indent)
		sb.WriteString("  Each item:\n")
		for _, p := range f.Items.Properties {
			writeField(sb, p, depth+2)
		}
	case f.Type == TypeObject:
		for _, p := range f.Properties {
			writeField(sb, p, depth+1)
		}
	}
}
