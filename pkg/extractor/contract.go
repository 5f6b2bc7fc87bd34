package extractor

import "github.com/jmylchreest/refyne-linkedin/pkg/schema"

// ProfileContract is the shape the model is asked to return. Normalization
// accepts looser shapes too; this is what the prompt and structured output
// request.
type ProfileContract struct {
	Name            string               `json:"name" description:"Full name of the person as shown in the page heading" validate:"required"`
	Headline        string               `json:"headline,omitempty" description:"Headline directly under the name"`
	Location        string               `json:"location,omitempty" description:"Location shown in the top card, e.g. 'London, England, United Kingdom'"`
	About           string               `json:"about,omitempty" description:"Full text of the About section"`
	CurrentCompany  string               `json:"current_company,omitempty" description:"Company of the most recent position"`
	CurrentPosition string               `json:"current_position,omitempty" description:"Title of the most recent position"`
	Experience      []ExperienceContract `json:"all_experience,omitempty" description:"Every position in the Experience section, most recent first"`
	Education       []EducationContract  `json:"all_education,omitempty" description:"Every entry in the Education section, most recent first"`
	Skills          []string             `json:"all_skills,omitempty" description:"Every skill listed, in page order, without endorsement counts"`
	Connections     string               `json:"connections,omitempty" description:"Connection or follower count text, e.g. '500+ connections'" examples:"500+ connections"`
	Pronouns        string               `json:"pronouns,omitempty" description:"Pronouns shown next to the name, if any" examples:"she/her"`
	ProfileImageURL string               `json:"profile_image_url,omitempty" description:"Absolute URL of the profile photo"`
}

// ExperienceContract is one position.
type ExperienceContract struct {
	Role        string `json:"role" description:"Job title" validate:"required"`
	Company     string `json:"company" description:"Company name without employment type"`
	Period      string `json:"period,omitempty" description:"Date range as written, e.g. 'Jun 2020 - Present'"`
	Description string `json:"description,omitempty" description:"Role description, if shown"`
}

// EducationContract is one education entry.
type EducationContract struct {
	Institution string `json:"institution" description:"School or university name" validate:"required"`
	Degree      string `json:"degree,omitempty" description:"Degree name, e.g. 'Master of Science'"`
	Field       string `json:"field,omitempty" description:"Field of study"`
	Period      string `json:"period,omitempty" description:"Years attended as written"`
}

var profileSchema = schema.MustSchema[ProfileContract](
	schema.WithDescription("A professional profile page. Extract only what the page states; never guess."),
)

// ProfileSchema returns the extraction contract for profile pages.
func ProfileSchema() schema.Schema {
	return profileSchema
}
