package profile

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Normalize converts an arbitrary decoded model response into a fully
// populated Record for url. raw may be a map, a JSON string or []byte, a
// single-element array wrapping an object, or nil. Unknown keys are ignored
// and every missing or mistyped field falls back to its default. url is
// authoritative for ProfileURL when non-empty.
func Normalize(raw any, url string) Record {
	return normalizeAt(raw, url, time.Now())
}

func normalizeAt(raw any, url string, at time.Time) Record {
	r := newAt(url, at)
	m := asMap(raw)
	if m == nil {
		return r
	}

	if url == "" {
		if v := scalar(m, "profile_url", "url"); IsAvailable(v) {
			r.ProfileURL = v
		}
	}
	if v := scalar(m, "scraped_at"); IsAvailable(v) {
		if _, err := time.Parse(TimestampLayout, v); err == nil {
			r.ScrapedAt = v
		}
	}

	r.Name = scalar(m, "name", "full_name")
	r.Headline = scalar(m, "headline", "title")
	r.Location = scalar(m, "location")
	r.About = scalar(m, "about", "summary", "bio")
	r.CurrentCompany = scalar(m, "current_company", "company")
	r.CurrentPosition = CleanRole(scalar(m, "current_position", "position", "current_role"))
	r.Email = scalar(m, "email")
	r.Phone = scalar(m, "phone")
	r.Website = scalar(m, "website")
	r.ProfileImageURL = scalar(m, "profile_image_url", "avatar_url", "image_url")
	r.Connections = scalar(m, "connections")
	r.Pronouns = scalar(m, "pronouns")

	r.AllExperience = experiences(first(m, "all_experience", "experience", "experiences"))
	r.AllEducation = educations(first(m, "all_education", "education_history"))

	// "education" is either the flattened string or, from some models, the list.
	switch v := m["education"].(type) {
	case []any:
		if len(r.AllEducation) == 0 {
			r.AllEducation = educations(v)
		}
	default:
		r.Education = toText(v)
	}

	skills := skillList(first(m, "all_skills", "skills"))
	r.AllSkills = JoinSkills(skills)
	top := skillList(first(m, "top_skills"))
	r.TopSkills = JoinSkills(top)
	if n, ok := toInt(m["skills_count"]); ok && n >= 0 {
		r.SkillsCount = n
	}

	derive(&r, skills)
	return r
}

// derive fills fields that can be computed from other fields.
func derive(r *Record, skills []string) {
	if len(r.AllExperience) > 0 {
		latest := r.AllExperience[0]
		if !IsAvailable(r.CurrentCompany) && IsAvailable(latest.Company) {
			r.CurrentCompany = latest.Company
		}
		if !IsAvailable(r.CurrentPosition) && IsAvailable(latest.Role) {
			r.CurrentPosition = latest.Role
		}
	}
	if !IsAvailable(r.Education) && len(r.AllEducation) > 0 {
		r.Education = r.AllEducation[0].Institution
	}
	if !IsAvailable(r.TopSkills) && len(skills) > 0 {
		n := min(TopSkillsLimit, len(skills))
		r.TopSkills = JoinSkills(skills[:n])
	}
	if r.SkillsCount == 0 && len(skills) > 0 {
		r.SkillsCount = len(skills)
	}
}

func asMap(raw any) map[string]any {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return m
	case []any:
		if len(v) > 0 {
			return asMap(v[0])
		}
		return nil
	case string:
		return asMap([]byte(v))
	case json.RawMessage:
		return asMap([]byte(v))
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil
		}
		if _, isString := decoded.(string); isString {
			return nil
		}
		return asMap(decoded)
	default:
		return nil
	}
}

func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func scalar(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := toText(m[k]); IsAvailable(s) {
			return s
		}
	}
	return NotAvailable
}

// toText renders a JSON scalar (or list of scalars) as cleaned text.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return NotAvailable
	case string:
		return CleanText(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := toText(item); IsAvailable(s) {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return NotAvailable
		}
		return strings.Join(parts, ", ")
	default:
		return NotAvailable
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}

func skillList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		seen := make(map[string]bool, len(t))
		for _, item := range t {
			var s string
			if obj, ok := item.(map[string]any); ok {
				s = scalar(obj, "name", "skill")
			} else {
				s = toText(item)
			}
			if !IsAvailable(s) || seen[strings.ToLower(s)] {
				continue
			}
			seen[strings.ToLower(s)] = true
			out = append(out, s)
		}
		return out
	case string:
		return SplitSkills(t)
	default:
		return nil
	}
}

func experiences(v any) []Experience {
	items, _ := v.([]any)
	out := make([]Experience, 0, len(items))
	for _, item := range items {
		var e Experience
		switch t := item.(type) {
		case map[string]any:
			e = Experience{
				Role:        CleanRole(scalar(t, "role", "title", "position")),
				Company:     scalar(t, "company", "organization", "company_name"),
				Period:      scalar(t, "period", "dates", "date_range", "duration"),
				Description: scalar(t, "description", "summary"),
			}
		case string:
			e = Experience{Role: CleanRole(t), Company: NotAvailable, Period: NotAvailable, Description: NotAvailable}
		default:
			continue
		}
		if !IsAvailable(e.Role) && !IsAvailable(e.Company) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func educations(v any) []Education {
	items, _ := v.([]any)
	out := make([]Education, 0, len(items))
	for _, item := range items {
		var e Education
		switch t := item.(type) {
		case map[string]any:
			e = Education{
				Institution: scalar(t, "institution", "school", "university"),
				Degree:      CleanDegree(scalar(t, "degree", "credential")),
				Period:      scalar(t, "period", "dates", "years"),
				Field:       scalar(t, "field", "field_of_study", "major"),
			}
		case string:
			e = Education{Institution: CleanText(t), Degree: NotAvailable, Period: NotAvailable, Field: NotAvailable}
		default:
			continue
		}
		if !IsAvailable(e.Institution) {
			continue
		}
		out = append(out, e)
	}
	return out
}
