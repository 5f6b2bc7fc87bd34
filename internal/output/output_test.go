package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/refyne-linkedin/pkg/profile"
)

// --- NewWriter Factory Tests ---

func TestNewWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, FormatJSON)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if _, ok := w.(*JSONWriter); !ok {
		t.Errorf("expected *JSONWriter, got %T", w)
	}

	w, err = NewWriter(buf, FormatYAML)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if _, ok := w.(*YAMLWriter); !ok {
		t.Errorf("expected *YAMLWriter, got %T", w)
	}

	if _, err := NewWriter(buf, Format("csv")); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

// --- JSON Tests ---

func TestPrint_RecordsAreOneLine(t *testing.T) {
	records := []profile.Record{
		profile.New("https://www.linkedin.com/in/a/?x=1&y=2"),
		profile.Failed("https://www.linkedin.com/in/b/", errors.New("redirected to authwall")),
	}

	buf := &bytes.Buffer{}
	if err := Print(buf, FormatJSON, records); err != nil {
		t.Fatalf("Print() error = %v", err)
	}

	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected exactly one line, got %q", out)
	}
	if strings.Contains(out, `\u0026`) {
		t.Errorf("URLs should not be HTML-escaped: %s", out)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d records, want 2", len(decoded))
	}
	if _, ok := decoded[0]["error"]; ok {
		t.Error("error should be omitted on a clean record")
	}
	if decoded[1]["error"] != "redirected to authwall" {
		t.Errorf("error = %v", decoded[1]["error"])
	}
	if exp, ok := decoded[0]["all_experience"].([]any); !ok || len(exp) != 0 {
		t.Errorf("all_experience should be an empty array, got %#v", decoded[0]["all_experience"])
	}
}

func TestPrint_SingleRecordStaysArray(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Print(buf, FormatJSON, []profile.Record{profile.New("u")}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "[") {
		t.Errorf("expected an array, got %s", buf.String())
	}
}

func TestJSONWriter_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	w, _ := NewWriter(buf, FormatJSON, WithPretty(true), WithIndent("\t"))
	if err := w.Write(map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n\t\"a\": 1\n}\n" {
		t.Errorf("unexpected pretty output %q", buf.String())
	}
}

func TestPrintError(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := PrintError(buf, errors.New("no saved session")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `{"error":"no saved session"}`+"\n" {
		t.Errorf("PrintError() = %q", buf.String())
	}

	buf.Reset()
	_ = PrintError(buf, nil)
	if !strings.Contains(buf.String(), "unknown error") {
		t.Errorf("nil error output = %q", buf.String())
	}
}

// --- YAML Tests ---

func TestPrint_YAMLUsesJSONKeys(t *testing.T) {
	rec := profile.New("https://www.linkedin.com/in/a/")
	rec.Name = "Ada Lovelace"

	buf := &bytes.Buffer{}
	if err := Print(buf, FormatYAML, []profile.Record{rec}); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"- profile_url: https://www.linkedin.com/in/a/", "name: Ada Lovelace", "all_experience: []"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "profile_url") > strings.Index(out, "extraction_method") {
		t.Error("YAML should keep the JSON field order")
	}

	var decoded []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded[0]["skills_count"] != 0 {
		t.Errorf("skills_count = %#v", decoded[0]["skills_count"])
	}
}
