// Package kb implements the knowledge base: teach message parsing, slugs,
// citation identifiers and the submission/approval workflow.
package kb

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	citationVers = regexp.MustCompile(`(?i):v(\d+)$`)
)

const maxSlugLength = 50

// GenerateSlug derives a stable slug from a title. Non-alphanumeric runs
// collapse to single underscores and the result is capped at 50 characters.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalid.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug
}

// CitationID builds the canonical citation identifier for a knowledge item.
func CitationID(layer, slug string, version int) string {
	return fmt.Sprintf("KB:%s:%s:v%d", layer, slug, version)
}

// CitationVersion extracts the version number from a citation ID.
// Returns 0 when the citation carries no version suffix.
func CitationVersion(citationID string) int {
	m := citationVers.FindStringSubmatch(citationID)
	if m == nil {
		return 0
	}
	var v int
	if _, err := fmt.Sscanf(m[1], "%d", &v); err != nil {
		return 0
	}
	return v
}
