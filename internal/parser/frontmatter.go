// Package parser extracts front matter and hashtags from Obsidian notes.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Delimiter is the line that opens and closes a front matter block.
const Delimiter = "---"

// CreatedKey is the key Obsidian's Korean locale uses for the note creation time.
const CreatedKey = "만든 날짜"

var createdRe = regexp.MustCompile(`(\d+)년\s+(\d+)월\s+(\d+)일\s+(\d+)시\s+(\d+)분`)

// Status describes what ExtractFrontmatter found at the top of a note.
type Status int

const (
	// StatusNone means the content does not start with a front matter block.
	StatusNone Status = iota
	// StatusOK means a block was found and decoded.
	StatusOK
	// StatusMalformed means a block was found but its YAML could not be decoded.
	StatusMalformed
	// StatusUnterminated means the opening delimiter has no closing line.
	StatusUnterminated
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusOK:
		return "ok"
	case StatusMalformed:
		return "malformed"
	case StatusUnterminated:
		return "unterminated"
	default:
		return "unknown"
	}
}

// Result holds the output of splitting a note into front matter and body.
//
// Fields is never nil. For StatusMalformed and StatusUnterminated it is empty
// and Err (malformed only) carries the decode error.
type Result struct {
	Fields map[string]any
	Body   string
	Status Status
	Err    error
}

// ExtractFrontmatter separates the leading front matter block from the body
// and decodes it. Failures are reported through Result, never as an error.
func ExtractFrontmatter(content string) Result {
	block, body, status := split(content)
	res := Result{Fields: map[string]any{}, Body: body, Status: status}
	if status != StatusOK {
		return res
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		res.Status = StatusMalformed
		res.Err = fmt.Errorf("parser: decode front matter: %w", err)
		return res
	}
	if fm != nil {
		res.Fields = fm
	}

	if created, ok := res.Fields[CreatedKey].(string); ok {
		if t, ok := ParseCreated(created); ok {
			res.Fields["date"] = t
		}
	}
	return res
}

// split returns the raw YAML block and the body. The opening delimiter must be
// the first line; the block ends at the next line consisting solely of the
// delimiter.
func split(content string) (string, string, Status) {
	first, rest, found := strings.Cut(content, "\n")
	if !isDelimiter(first) {
		return "", content, StatusNone
	}
	if !found {
		return "", content, StatusUnterminated
	}

	offset := 0
	for offset <= len(rest) {
		line, _, more := strings.Cut(rest[offset:], "\n")
		if isDelimiter(line) {
			body := ""
			if end := offset + len(line); end < len(rest) {
				body = rest[end+1:]
			}
			return rest[:offset], strings.TrimSpace(body), StatusOK
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}
	return "", content, StatusUnterminated
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == Delimiter
}

// ParseCreated converts a Korean created-date string such as
// "2025년 3월 19일 0시 57분" into a local time. Strings that do not match the
// pattern, or that name an impossible calendar value, report false.
func ParseCreated(s string) (time.Time, bool) {
	m := createdRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	var n [5]int
	for i := range n {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], 0, 0, time.Local)
	// time.Date normalises overflow (month 13, day 32); reject those.
	if t.Year() != n[0] || int(t.Month()) != n[1] || t.Day() != n[2] || t.Hour() != n[3] || t.Minute() != n[4] {
		return time.Time{}, false
	}
	return t, true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// DateValue returns the "date" entry of fm as a time. yaml.v3 decodes
// unquoted timestamps into strings when the target is any, so common ISO
// layouts are parsed here.
func DateValue(fm map[string]any) (time.Time, bool) {
	switch v := fm["date"].(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// StringValue returns fm[key] rendered as a trimmed string. Non-string
// scalars are formatted; missing keys, nil and collections report false.
func StringValue(fm map[string]any, key string) (string, bool) {
	switch v := fm[key].(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case []any, map[string]any:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

// StringList returns fm[key] as a list of non-empty strings. A YAML sequence
// and a single scalar are both accepted.
func StringList(fm map[string]any, key string) []string {
	var out []string
	switch v := fm[key].(type) {
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
