// Package links rewrites Obsidian wiki links into standard Markdown links.
package links

import (
	"regexp"
	"strings"

	"github.com/starford/kenaz-jekyll/internal/slug"
)

// wikiRe matches both [[X]] and ![[X]]. A single pattern keeps each match
// either an embed or a plain link, never part of the other.
var wikiRe = regexp.MustCompile(`(!?)\[\[(.*?)\]\]`)

// ImageExtensions are embed targets passed through as images.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// Resolver maps a note title to its post filename stem.
type Resolver interface {
	Lookup(title string) (string, bool)
}

// Link describes one rewritten wiki link.
type Link struct {
	Target      string
	Display     string
	Destination string
	Embed       bool
	Image       bool
	Resolved    bool
}

// Rewriter converts wiki links using a title mapping.
type Rewriter struct {
	resolver Resolver
	base     string
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithBase prefixes every note destination, e.g. "/posts/".
func WithBase(base string) Option {
	return func(r *Rewriter) {
		r.base = base
	}
}

// NewRewriter returns a Rewriter resolving titles through resolver.
func NewRewriter(resolver Resolver, opts ...Option) *Rewriter {
	r := &Rewriter{resolver: resolver}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite returns body with every wiki link outside fenced code blocks
// converted, plus the links that were rewritten in order of appearance.
// Fenced code blocks are copied unchanged.
func (r *Rewriter) Rewrite(body string) (string, []Link) {
	var (
		b     strings.Builder
		found []Link
	)
	b.Grow(len(body))
	for span, fenced := range Partition(body) {
		if fenced {
			b.WriteString(span)
			continue
		}
		found = r.rewriteSpan(&b, span, found)
	}
	return b.String(), found
}

func (r *Rewriter) rewriteSpan(b *strings.Builder, span string, found []Link) []Link {
	pos := 0
	for _, m := range wikiRe.FindAllStringSubmatchIndex(span, -1) {
		embed := m[3] > m[2]
		inner := span[m[4]:m[5]]

		var (
			out  string
			link Link
			ok   bool
		)
		if embed {
			out, link, ok = r.embed(inner)
		} else {
			out, link, ok = r.plain(inner)
		}
		if !ok {
			continue
		}
		b.WriteString(span[pos:m[0]])
		b.WriteString(out)
		pos = m[1]
		found = append(found, link)
	}
	b.WriteString(span[pos:])
	return found
}

// plain handles [[X]] and [[display|target]].
func (r *Rewriter) plain(inner string) (string, Link, bool) {
	display, target := inner, inner
	if before, after, ok := strings.Cut(inner, "|"); ok {
		display, target = before, after
	}
	display = strings.TrimSpace(display)
	target = strings.TrimSpace(target)
	if target == "" {
		return "", Link{}, false
	}
	if display == "" {
		display = target
	}

	dest, resolved := r.destination(target)
	link := Link{Target: target, Display: display, Destination: dest, Resolved: resolved}
	return "[" + display + "](" + dest + ")", link, true
}

// embed handles ![[X]]: images pass through, anything else is a note.
func (r *Rewriter) embed(inner string) (string, Link, bool) {
	target := strings.TrimSpace(inner)
	if target == "" {
		return "", Link{}, false
	}
	if IsImage(target) {
		link := Link{Target: target, Display: target, Destination: target, Embed: true, Image: true, Resolved: true}
		return "![" + target + "](" + target + ")", link, true
	}

	dest, resolved := r.destination(target)
	link := Link{Target: target, Display: target, Destination: dest, Embed: true, Resolved: resolved}
	return "![" + target + "](" + dest + ")", link, true
}

func (r *Rewriter) destination(target string) (string, bool) {
	if r.resolver != nil {
		if stem, ok := r.resolver.Lookup(target); ok {
			return r.base + stem, true
		}
	}
	return r.base + slug.Fallback(target), false
}

// IsImage reports whether name ends with a known image extension.
func IsImage(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
