package capture

import (
	"regexp"
	"strings"
)

const maxSlugLength = 50

var (
	schemeRe = regexp.MustCompile(`https?://`)
	nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// Slugify turns text into a lowercase filesystem-safe name: letters, digits
// and single hyphens, never starting or ending with a hyphen, at most 50
// characters long. Only the first http:// or https:// is removed.
func Slugify(text string) string {
	if loc := schemeRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + text[loc[1]:]
	}

	slug := nonAlnum.ReplaceAllString(text, "-")
	slug = strings.Trim(slug, "-")
	slug = strings.ToLower(slug)

	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}
