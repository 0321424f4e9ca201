package mockapi

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hiredesk/internal/resume"
)

// Account is a user known to the mock backend. An empty Password means the
// account has never set one.
type Account struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password,omitempty"`
	Verified bool   `yaml:"verified"`
}

// PasswordSet reports whether the account has a password.
func (a Account) PasswordSet() bool {
	return a.Password != ""
}

// Fixtures is the seed data served by the mock backend.
type Fixtures struct {
	Accounts []Account         `yaml:"accounts"`
	Resumes  []resume.Document `yaml:"resumes"`
}

// LoadFixtures reads a YAML fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixtures %s: %w", path, err)
	}
	return &f, nil
}

// Validate rejects accounts without an email and duplicate accounts or resumes.
func (f *Fixtures) Validate() error {
	seen := make(map[string]bool)
	for i, a := range f.Accounts {
		key := normalizeEmail(a.Email)
		if key == "" {
			return fmt.Errorf("account %d has no email", i)
		}
		if seen[key] {
			return fmt.Errorf("duplicate account %s", a.Email)
		}
		seen[key] = true
	}
	docs := make(map[string]bool)
	for i, d := range f.Resumes {
		if d.Template.Slug == "" || d.Dashboard.Username == "" {
			return fmt.Errorf("resume %d needs template.slug and dashboard.username", i)
		}
		key := resumeKey(d.Template.Slug, d.Dashboard.Username)
		if docs[key] {
			return fmt.Errorf("duplicate resume %s", key)
		}
		docs[key] = true
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func resumeKey(slug, username string) string {
	return strings.ToLower(slug) + "/" + strings.ToLower(username)
}

// DefaultFixtures is the demo data used when no fixtures file is configured.
//
//	ada@example.com    verified, password "Sup3rSecret"
//	grace@example.com  unverified, password "Sup3rSecret"
//	linus@example.com  never set a password
func DefaultFixtures() *Fixtures {
	return &Fixtures{
		Accounts: []Account{
			{Email: "ada@example.com", Password: "Sup3rSecret", Verified: true},
			{Email: "grace@example.com", Password: "Sup3rSecret"},
			{Email: "linus@example.com", Verified: true},
		},
		Resumes: []resume.Document{
			{
				Dashboard: resume.Dashboard{
					Username: "ada",
					Name:     "Ada Lovelace",
					Headline: "Analytical engine programmer",
					Summary:  "Wrote the first published algorithm intended for a machine.",
					Email:    "ada@example.com",
					Location: "London",
					Skills:   []string{"Mathematics", "Algorithms", "Technical writing"},
					Experience: []resume.Experience{{
						Company:     "Analytical Engine Project",
						Role:        "Collaborator",
						Start:       "1842",
						End:         "1843",
						Description: "Translated and annotated Menabrea's memoir; Note G describes computing Bernoulli numbers.",
					}},
					Links: []resume.Link{{Label: "Notes", URL: "https://example.com/ada/notes"}},
				},
				Template: resume.Template{Slug: "classic", Name: "Classic"},
			},
			{
				Dashboard: resume.Dashboard{
					Username: "grace",
					Name:     "Grace Hopper",
					Headline: "Compiler pioneer",
					Skills:   []string{"COBOL", "Compilers"},
					Education: []resume.Education{
						{School: "Yale University", Degree: "PhD, Mathematics", Year: "1934"},
					},
				},
				Template: resume.Template{
					Slug:     "classic",
					Name:     "Classic",
					Sections: []string{resume.SectionSkills, resume.SectionEducation},
				},
			},
		},
	}
}
