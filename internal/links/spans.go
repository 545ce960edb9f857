package links

import (
	"iter"
	"regexp"
)

var fenceRe = regexp.MustCompile("(?s)```.*?```")

// Partition splits body into consecutive spans, reporting for each whether it
// is a fenced code block (fence markers included). Concatenating the spans in
// order yields body again.
func Partition(body string) iter.Seq2[string, bool] {
	return func(yield func(string, bool) bool) {
		pos := 0
		for _, loc := range fenceRe.FindAllStringIndex(body, -1) {
			if loc[0] > pos {
				if !yield(body[pos:loc[0]], false) {
					return
				}
			}
			if !yield(body[loc[0]:loc[1]], true) {
				return
			}
			pos = loc[1]
		}
		if pos < len(body) {
			yield(body[pos:], false)
		}
	}
}
