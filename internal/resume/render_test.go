package resume

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() Document {
	return Document{
		Dashboard: Dashboard{
			Username: "grace",
			Name:     "Grace Hopper",
			Headline: "Compiler pioneer",
			Summary:  "Built the first compiler.",
			Email:    "grace@example.com",
			Skills:   []string{"COBOL", "Compilers"},
			Experience: []Experience{
				{Company: "Remington Rand", Role: "Senior Mathematician", Start: "1949"},
			},
			Education: []Education{
				{School: "Yale University", Degree: "PhD, Mathematics", Year: "1934"},
			},
			Links: []Link{{Label: "Profile", URL: "https://example.com/grace"}},
		},
		Template: Template{Slug: "classic"},
	}
}

func TestMarkdownDefaultOrder(t *testing.T) {
	md, err := Markdown(sampleDoc())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "# Grace Hopper\n\n**Compiler pioneer**\n"))
	order := []string{"## Summary", "## Contact", "## Skills", "## Experience", "## Education", "## Links"}
	last := -1
	for _, h := range order {
		i := strings.Index(md, h)
		require.GreaterOrEqual(t, i, 0, "missing %s", h)
		assert.Greater(t, i, last, "%s out of order", h)
		last = i
	}
	assert.Contains(t, md, "COBOL · Compilers")
	assert.Contains(t, md, "*1949 – present*")
	assert.Contains(t, md, "- **Yale University**, PhD, Mathematics (1934)")
	assert.Contains(t, md, "- [Profile](https://example.com/grace)")
}

func TestMarkdownTemplateOrderAndUnknownSections(t *testing.T) {
	doc := sampleDoc()
	doc.Template.Sections = []string{"Education", "portfolio", "skills"}

	md, err := Markdown(doc)
	require.NoError(t, err)
	assert.NotContains(t, md, "## Summary")
	assert.NotContains(t, md, "portfolio")
	assert.Less(t, strings.Index(md, "## Education"), strings.Index(md, "## Skills"))
}

func TestMarkdownSkipsEmptySections(t *testing.T) {
	md, err := Markdown(Document{Dashboard: Dashboard{Username: "anon"}})
	require.NoError(t, err)
	assert.Equal(t, "# anon\n", md)
}

func TestRender(t *testing.T) {
	out, err := Render(sampleDoc(), Options{Style: "notty", Width: 60})
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "Remington Rand")
}

func TestRenderUnknownStyle(t *testing.T) {
	_, err := Render(sampleDoc(), Options{Style: "no-such-style"})
	assert.Error(t, err)
}
