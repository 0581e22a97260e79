// Package categorize scores article text against per-category keyword sets.
package categorize

import (
	"strings"

	"github.com/TobiSchelling/mobnews/internal/config"
)

// Categorizer assigns category slugs by keyword scoring. The keyword
// configuration is injected at construction and read-only afterwards, so a
// single Categorizer is safe to share across runs.
type Categorizer struct {
	categories []config.Category
}

// New creates a Categorizer from the configured categories. Order matters:
// score ties are broken by configuration order, first-highest wins.
func New(categories []config.Category) *Categorizer {
	return &Categorizer{categories: categories}
}

// Best returns the slug of the category whose keywords occur most often in
// text (case-insensitive substring presence, one point per keyword found).
// ok is false when no category scores above zero.
func (c *Categorizer) Best(text string) (slug string, ok bool) {
	text = strings.ToLower(text)

	bestScore := 0
	for _, cat := range c.categories {
		score := 0
		for _, kw := range cat.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			slug = cat.Slug
		}
	}

	return slug, bestScore > 0
}
