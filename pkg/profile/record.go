// Package profile defines the extracted profile record and the pure
// normalization step that turns an untrusted model response into a fully
// populated record.
package profile

import "time"

// NotAvailable is the sentinel for scalar fields with no value.
const NotAvailable = "N/A"

// TimestampLayout is the format of Record.ScrapedAt.
const TimestampLayout = "2006-01-02 15:04:05"

// TopSkillsLimit is the number of skills flattened into TopSkills.
const TopSkillsLimit = 5

// Extraction methods recorded in Record.ExtractionMethod.
const (
	MethodLLM    = "llm"
	MethodManual = "manual"
	MethodNone   = "none"
)

// Experience is one position held.
type Experience struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

// Education is one education entry.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Period      string `json:"period"`
	Field       string `json:"field"`
}

// Record is the result for one profile URL. Every field is always present:
// scalars hold NotAvailable and lists are empty, never nil. Failures use the
// same shape with Error set.
type Record struct {
	ProfileURL       string       `json:"profile_url" validate:"required"`
	ScrapedAt        string       `json:"scraped_at" validate:"required"`
	Name             string       `json:"name" validate:"required"`
	Headline         string       `json:"headline" validate:"required"`
	Location         string       `json:"location" validate:"required"`
	About            string       `json:"about" validate:"required"`
	CurrentCompany   string       `json:"current_company" validate:"required"`
	CurrentPosition  string       `json:"current_position" validate:"required"`
	AllExperience    []Experience `json:"all_experience" validate:"required"`
	AllEducation     []Education  `json:"all_education" validate:"required"`
	Education        string       `json:"education" validate:"required"`
	TopSkills        string       `json:"top_skills" validate:"required"`
	AllSkills        string       `json:"all_skills" validate:"required"`
	SkillsCount      int          `json:"skills_count" validate:"gte=0"`
	Email            string       `json:"email" validate:"required"`
	Phone            string       `json:"phone" validate:"required"`
	Website          string       `json:"website" validate:"required"`
	ProfileImageURL  string       `json:"profile_image_url" validate:"required"`
	Connections      string       `json:"connections" validate:"required"`
	Pronouns         string       `json:"pronouns" validate:"required"`
	ExtractionMethod string       `json:"extraction_method" validate:"oneof=llm manual none"`
	Error            string       `json:"error,omitempty"`
}

// New returns the default record for a URL: every content field at its
// sentinel, timestamped now.
func New(url string) Record {
	return newAt(url, time.Now())
}

func newAt(url string, at time.Time) Record {
	if url == "" {
		url = NotAvailable
	}
	return Record{
		ProfileURL:       url,
		ScrapedAt:        at.Format(TimestampLayout),
		Name:             NotAvailable,
		Headline:         NotAvailable,
		Location:         NotAvailable,
		About:            NotAvailable,
		CurrentCompany:   NotAvailable,
		CurrentPosition:  NotAvailable,
		AllExperience:    []Experience{},
		AllEducation:     []Education{},
		Education:        NotAvailable,
		TopSkills:        NotAvailable,
		AllSkills:        NotAvailable,
		Email:            NotAvailable,
		Phone:            NotAvailable,
		Website:          NotAvailable,
		ProfileImageURL:  NotAvailable,
		Connections:      NotAvailable,
		Pronouns:         NotAvailable,
		ExtractionMethod: MethodNone,
	}
}

// Failed returns the default record for url with Error populated.
func Failed(url string, err error) Record {
	r := New(url)
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// IsAvailable reports whether a scalar holds a real value.
func IsAvailable(s string) bool {
	return s != "" && s != NotAvailable
}

// Overlay copies fields from src into r where r holds the sentinel and src
// does not. Lists are taken from src when r's are empty. Used to layer
// contact info and manual fallback results without clobbering model output.
func (r *Record) Overlay(src Record) {
	fill := func(dst *string, v string) {
		if !IsAvailable(*dst) && IsAvailable(v) {
			*dst = v
		}
	}
	fill(&r.Name, src.Name)
	fill(&r.Headline, src.Headline)
	fill(&r.Location, src.Location)
	fill(&r.About, src.About)
	fill(&r.CurrentCompany, src.CurrentCompany)
	fill(&r.CurrentPosition, src.CurrentPosition)
	fill(&r.Education, src.Education)
	fill(&r.TopSkills, src.TopSkills)
	fill(&r.AllSkills, src.AllSkills)
	fill(&r.Email, src.Email)
	fill(&r.Phone, src.Phone)
	fill(&r.Website, src.Website)
	fill(&r.ProfileImageURL, src.ProfileImageURL)
	fill(&r.Connections, src.Connections)
	fill(&r.Pronouns, src.Pronouns)

	if len(r.AllExperience) == 0 && len(src.AllExperience) > 0 {
		r.AllExperience = append([]Experience(nil), src.AllExperience...)
	}
	if len(r.AllEducation) == 0 && len(src.AllEducation) > 0 {
		r.AllEducation = append([]Education(nil), src.AllEducation...)
	}
	if r.SkillsCount == 0 {
		r.SkillsCount = src.SkillsCount
	}
}
