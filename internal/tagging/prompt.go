package tagging

import (
	"strings"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
)

const (
	promptTitlePlaceholder      = "{{TITLE}}"
	promptBodyPlaceholder       = "{{BODY}}"
	promptCategoriesPlaceholder = "{{CATEGORIES}}"
	promptSourcePlaceholder     = "{{SOURCE}}"
)

const tagPromptTemplate = `You are a content tagger for a personal blog and portfolio. Return STRICT JSON ONLY.
Output must be a single JSON object with exactly two keys, "tags" and "associations".
Use double quotes. No trailing commas. No markdown. No prose before or after the object.

"tags" is an array. Each tag object must include:
- name: string, short lowercase label (e.g. "caching", "go", "distributed systems")
- description: string, one sentence explaining the tag
- category: string, choose ONLY from: {{CATEGORIES}}
  - technical = tools, frameworks, techniques
  - topic = subject area or theme
  - language = programming or natural language
  - general = anything else
- metadata: object with
  - source: the literal string "{{SOURCE}}"
  - createdAt: number, current Unix time in milliseconds

"associations" is an array linking the post to the tags above. Each association object must include:
- tagName: string, exactly the name of a tag from "tags"
- confidence: number between 0.0 and 1.0, how strongly the tag applies to the post
- metadata: object with
  - source: the literal string "{{SOURCE}}"
  - createdAt: number, current Unix time in milliseconds
  - context: string, one sentence on why the tag applies

Return between 3 and 8 tags. Every tag must have exactly one association.

Title:
{{TITLE}}

Content:
{{BODY}}
`

// BuildPrompt renders the tag generation prompt for a post.
func BuildPrompt(title, body string) string {
	categories := make([]string, 0, len(domain.TagCategories))
	for _, c := range domain.TagCategories {
		categories = append(categories, string(c))
	}

	// Title and body are substituted last so placeholders inside user content stay untouched.
	prompt := strings.NewReplacer(
		promptCategoriesPlaceholder, strings.Join(categories, ", "),
		promptSourcePlaceholder, string(domain.SourceModel),
	).Replace(tagPromptTemplate)

	return strings.NewReplacer(
		promptTitlePlaceholder, title,
		promptBodyPlaceholder, body,
	).Replace(prompt)
}
