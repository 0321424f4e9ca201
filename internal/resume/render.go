package resume

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
)

var sectionTemplates = map[string]string{
	SectionSummary: `{{if .Summary}}## Summary

{{.Summary}}
{{end}}`,
	SectionContact: `{{if or .Email .Phone .Location}}## Contact

{{if .Email}}- Email: {{.Email}}
{{end}}{{if .Phone}}- Phone: {{.Phone}}
{{end}}{{if .Location}}- Location: {{.Location}}
{{end}}{{end}}`,
	SectionSkills: `{{if .Skills}}## Skills

{{join .Skills " · "}}
{{end}}`,
	SectionExperience: `{{if .Experience}}## Experience
{{range .Experience}}
### {{.Role}} — {{.Company}}
{{if or .Start .End}}*{{period .Start .End}}*
{{end}}{{if .Description}}
{{.Description}}
{{end}}{{end}}{{end}}`,
	SectionEducation: `{{if .Education}}## Education
{{range .Education}}
- **{{.School}}**{{if .Degree}}, {{.Degree}}{{end}}{{if .Year}} ({{.Year}}){{end}}{{end}}
{{end}}`,
	SectionLinks: `{{if .Links}}## Links
{{range .Links}}
- [{{.Label}}]({{.URL}}){{end}}
{{end}}`,
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"period": func(start, end string) string {
		if end == "" {
			end = "present"
		}
		if start == "" {
			return end
		}
		return start + " – " + end
	},
}

var sections = func() map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(sectionTemplates))
	for name, text := range sectionTemplates {
		parsed[name] = template.Must(template.New(name).Funcs(funcs).Parse(text))
	}
	return parsed
}()

// Markdown renders the document in the template's section order.
// Unknown section names are skipped.
func Markdown(doc Document) (string, error) {
	var buf bytes.Buffer

	name := doc.Dashboard.Name
	if name == "" {
		name = doc.Dashboard.Username
	}
	fmt.Fprintf(&buf, "# %s\n", name)
	if doc.Dashboard.Headline != "" {
		fmt.Fprintf(&buf, "\n**%s**\n", doc.Dashboard.Headline)
	}

	for _, section := range doc.Template.SectionOrder() {
		tmpl, ok := sections[strings.ToLower(strings.TrimSpace(section))]
		if !ok {
			continue
		}
		var part bytes.Buffer
		if err := tmpl.Execute(&part, doc.Dashboard); err != nil {
			return "", fmt.Errorf("failed to render %s section: %w", section, err)
		}
		if part.Len() == 0 {
			continue
		}
		buf.WriteString("\n")
		buf.Write(part.Bytes())
	}

	return buf.String(), nil
}

// Options controls terminal rendering.
type Options struct {
	// Style is a glamour style name ("dark", "light", "notty", "ascii")
	// or "auto" to detect from the terminal.
	Style string
	Width int
}

// Render renders the document as styled terminal output.
func Render(doc Document, opts Options) (string, error) {
	md, err := Markdown(doc)
	if err != nil {
		return "", err
	}

	rendererOpts := []glamour.TermRendererOption{}
	switch opts.Style {
	case "", "auto":
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	default:
		rendererOpts = append(rendererOpts, glamour.WithStandardStyle(opts.Style))
	}
	if opts.Width > 0 {
		rendererOpts = append(rendererOpts, glamour.WithWordWrap(opts.Width))
	}

	renderer, err := glamour.NewTermRenderer(rendererOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render resume: %w", err)
	}
	return out, nil
}
