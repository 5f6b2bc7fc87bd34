package profile

import (
	"strings"
	"unicode"
)

// emptyMarkers are values models use in place of "nothing found".
var emptyMarkers = map[string]bool{
	"":              true,
	"n/a":           true,
	"na":            true,
	"null":          true,
	"nil":           true,
	"none":          true,
	"unknown":       true,
	"not available": true,
	"not found":     true,
	"-":             true,
}

// roleAbbreviations are expanded only as whole tokens in role and title
// fields. Entries with more than one plausible reading are left out.
var roleAbbreviations = map[string]string{
	"sr.":    "Senior",
	"sr":     "Senior",
	"jr.":    "Junior",
	"jr":     "Junior",
	"mgr":    "Manager",
	"mgr.":   "Manager",
	"vp":     "Vice President",
	"svp":    "Senior Vice President",
	"evp":    "Executive Vice President",
	"avp":    "Assistant Vice President",
	"dir.":   "Director",
	"asst.":  "Assistant",
	"assoc.": "Associate",
	"engr.":  "Engineer",
	"mktg":   "Marketing",
	"mktg.":  "Marketing",
}

// degreeAbbreviations are dotted degree spellings with a single meaning.
var degreeAbbreviations = map[string]string{
	"b.s.":   "Bachelor of Science",
	"b.sc.":  "Bachelor of Science",
	"m.s.":   "Master of Science",
	"m.sc.":  "Master of Science",
	"b.a.":   "Bachelor of Arts",
	"m.a.":   "Master of Arts",
	"b.e.":   "Bachelor of Engineering",
	"m.e.":   "Master of Engineering",
	"ph.d.":  "Doctor of Philosophy",
	"b.tech": "Bachelor of Technology",
	"m.tech": "Master of Technology",
}

// CleanText trims and collapses whitespace and removes duplication that
// LinkedIn's markup produces (visible and screen-reader copies of the same
// text run together). Empty markers become NotAvailable.
func CleanText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if emptyMarkers[strings.ToLower(s)] {
		return NotAvailable
	}
	s = collapseDoubledHalves(s)
	s = collapseRepeatedAbbreviations(s)
	return s
}

// CleanRole applies CleanText and expands unambiguous title abbreviations.
func CleanRole(s string) string {
	s = CleanText(s)
	if s == NotAvailable {
		return s
	}
	return expandTokens(s, roleAbbreviations)
}

// CleanDegree applies CleanText and expands dotted degree abbreviations.
func CleanDegree(s string) string {
	s = CleanText(s)
	if s == NotAvailable {
		return s
	}
	return expandTokens(s, degreeAbbreviations)
}

// collapseDoubledHalves turns "Acme CorpAcme Corp" and "Acme Corp Acme Corp"
// into "Acme Corp".
func collapseDoubledHalves(s string) string {
	r := []rune(s)
	n := len(r)
	if n < 4 {
		return s
	}
	if n%2 == 0 {
		half := n / 2
		if string(r[:half]) == string(r[half:]) {
			return strings.TrimSpace(string(r[:half]))
		}
	}
	if n%2 == 1 && r[n/2] == ' ' {
		half := n / 2
		if string(r[:half]) == string(r[half+1:]) {
			return string(r[:half])
		}
	}
	return s
}

// collapseRepeatedAbbreviations merges adjacent identical tokens when the
// token is an abbreviation ("MBA MBA" -> "MBA"). Ordinary words are left
// alone since real names can repeat.
func collapseRepeatedAbbreviations(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) < 2 {
		return s
	}
	out := make([]string, 1, len(tokens))
	out[0] = tokens[0]
	for _, tok := range tokens[1:] {
		prev := out[len(out)-1]
		if tok == prev && isAbbreviation(tok) {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

func isAbbreviation(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}

func expandTokens(s string, dict map[string]string) string {
	tokens := strings.Fields(s)
	changed := false
	for i, tok := range tokens {
		core, suffix := splitTrailingComma(tok)
		if full, ok := dict[strings.ToLower(core)]; ok {
			tokens[i] = full + suffix
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(tokens, " ")
}

func splitTrailingComma(tok string) (string, string) {
	if strings.HasSuffix(tok, ",") {
		return strings.TrimSuffix(tok, ","), ","
	}
	return tok, ""
}

// SplitSkills splits a flattened skills string on the separators seen in
// model output and profile markup. Empty and duplicate entries are dropped.
func SplitSkills(s string) []string {
	if !IsAvailable(s) {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '•' || r == '·' || r == '|' || r == ';' || r == '\n'
	})
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = CleanText(p)
		if p == NotAvailable {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// JoinSkills flattens skills into the comma separated record form.
func JoinSkills(skills []string) string {
	if len(skills) == 0 {
		return NotAvailable
	}
	return strings.Join(skills, ", ")
}
