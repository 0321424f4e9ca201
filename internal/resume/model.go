// Package resume renders a user's read-only resume from the data returned by
// the template endpoint.
package resume

// Document is the template endpoint payload: who the resume belongs to and
// how it is laid out.
type Document struct {
	Dashboard Dashboard `json:"dashboard" yaml:"dashboard"`
	Template  Template  `json:"template" yaml:"template"`
}

// Dashboard holds the profile data shown on a resume.
type Dashboard struct {
	Username   string       `json:"username" yaml:"username"`
	Name       string       `json:"name" yaml:"name"`
	Headline   string       `json:"headline,omitempty" yaml:"headline,omitempty"`
	Summary    string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Email      string       `json:"email,omitempty" yaml:"email,omitempty"`
	Phone      string       `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location   string       `json:"location,omitempty" yaml:"location,omitempty"`
	Skills     []string     `json:"skills,omitempty" yaml:"skills,omitempty"`
	Experience []Experience `json:"experience,omitempty" yaml:"experience,omitempty"`
	Education  []Education  `json:"education,omitempty" yaml:"education,omitempty"`
	Links      []Link       `json:"links,omitempty" yaml:"links,omitempty"`
}

// Experience is one position held.
type Experience struct {
	Company     string `json:"company" yaml:"company"`
	Role        string `json:"role" yaml:"role"`
	Start       string `json:"start,omitempty" yaml:"start,omitempty"`
	End         string `json:"end,omitempty" yaml:"end,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Education is one degree or course.
type Education struct {
	School string `json:"school" yaml:"school"`
	Degree string `json:"degree,omitempty" yaml:"degree,omitempty"`
	Year   string `json:"year,omitempty" yaml:"year,omitempty"`
}

// Link is a labelled URL (portfolio, GitHub, LinkedIn).
type Link struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// Template describes the layout chosen by the user.
type Template struct {
	Slug     string   `json:"slug" yaml:"slug"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`
	Accent   string   `json:"accent,omitempty" yaml:"accent,omitempty"`
}

// Section names understood by the renderer.
const (
	SectionSummary    = "summary"
	SectionContact    = "contact"
	SectionSkills     = "skills"
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionLinks      = "links"
)

// DefaultSections is used when a template does not specify an order.
var DefaultSections = []string{
	SectionSummary,
	SectionContact,
	SectionSkills,
	SectionExperience,
	SectionEducation,
	SectionLinks,
}

// SectionOrder returns the template's sections, or DefaultSections.
func (t Template) SectionOrder() []string {
	if len(t.Sections) == 0 {
		return DefaultSections
	}
	return t.Sections
}
