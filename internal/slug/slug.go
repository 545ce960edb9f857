// Package slug derives Jekyll post filenames from note titles.
package slug

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the date prefix Jekyll expects on every post filename.
const DateLayout = "2006-01-02"

// FallbackDate prefixes destinations synthesized for unknown link targets.
const FallbackDate = "1970-01-01"

var (
	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)
	hyphensRe = regexp.MustCompile(`-+`)
)

// Sanitize replaces every rune that is not a letter, digit, underscore or
// hyphen with a hyphen and collapses hyphen runs. Sanitize is idempotent.
func Sanitize(s string) string {
	return collapse(nonWordRe.ReplaceAllString(s, "-"))
}

// Filename returns the post filename stem (no extension) for a note, e.g.
// "2025-03-19-Hello-World" for title "Hello World".
func Filename(title string, date time.Time) string {
	return collapse(date.Format(DateLayout) + "-" + nonWordRe.ReplaceAllString(title, "-"))
}

// Fallback synthesizes a destination for a link target that maps to no known
// note: lowercased, spaces to hyphens, other non-word runes dropped, hyphen
// runs collapsed, prefixed with FallbackDate.
func Fallback(target string) string {
	s := strings.ToLower(target)
	s = strings.ReplaceAll(s, " ", "-")
	s = nonWordRe.ReplaceAllString(s, "")
	return collapse(FallbackDate + "-" + s)
}

func collapse(s string) string {
	return hyphensRe.ReplaceAllString(s, "-")
}
