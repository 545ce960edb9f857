package parser

import (
	"regexp"
	"slices"
	"strings"
)

var tagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// unitWords are single-character Korean time units. "#월" and friends show up
// in date-like text and are never meant as tags.
var unitWords = map[string]struct{}{
	"년": {},
	"월": {},
	"일": {},
	"시": {},
	"분": {},
}

// ExtractTags returns every inline #tag in body in order of appearance.
// Duplicates are kept; use MergeTags to combine and dedupe.
func ExtractTags(body string) []string {
	var out []string
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		if _, skip := unitWords[m[1]]; skip {
			continue
		}
		out = append(out, m[1])
	}
	return out
}

// MergeTags returns the sorted union of the given tag lists.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}
