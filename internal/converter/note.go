package converter

import (
	"log/slog"
	"time"

	"github.com/starford/kenaz-jekyll/internal/models"
	"github.com/starford/kenaz-jekyll/internal/parser"
)

// BuildNote parses a vault note. Title falls back to the file stem, date to
// now, categories to defaultCategory. Malformed front matter is logged and
// treated as absent.
func BuildNote(src models.SourceFile, content string, defaultCategory string, now time.Time, logger *slog.Logger) models.Note {
	fm := parser.ExtractFrontmatter(content)
	if fm.Status == parser.StatusMalformed || fm.Status == parser.StatusUnterminated {
		attrs := []any{slog.String("path", src.Rel), slog.String("status", fm.Status.String())}
		if fm.Err != nil {
			attrs = append(attrs, slog.String("error", fm.Err.Error()))
		}
		logger.Warn("front matter ignored", attrs...)
	}

	title, date := identity(src, fm.Fields, now)

	categories := parser.StringList(fm.Fields, "categories")
	if len(categories) == 0 && defaultCategory != "" {
		categories = []string{defaultCategory}
	}

	return models.Note{
		Source:     src,
		Title:      title,
		Date:       date,
		Tags:       parser.MergeTags(parser.ExtractTags(fm.Body), parser.StringList(fm.Fields, "tags")),
		Categories: categories,
		Body:       fm.Body,
	}
}

// identity returns the title and date that decide a note's post filename.
func identity(src models.SourceFile, fields map[string]any, now time.Time) (string, time.Time) {
	title, ok := parser.StringValue(fields, "title")
	if !ok {
		title = src.Stem
	}
	date, ok := parser.DateValue(fields)
	if !ok {
		date = now
	}
	return title, date
}

// identityFromContent derives title and date without building a full note.
func identityFromContent(src models.SourceFile, content string, now time.Time) (string, time.Time) {
	return identity(src, parser.ExtractFrontmatter(content).Fields, now)
}
