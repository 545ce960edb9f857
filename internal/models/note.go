// Package models defines the domain types shared by the converter packages.
package models

import "time"

// SourceFile is a Markdown file found in the vault.
type SourceFile struct {
	Path string // absolute path
	Rel  string // path relative to the vault root, slash separated
	Stem string // file name without the .md extension
}

// Note is a parsed vault note ready to become a post.
type Note struct {
	Source     SourceFile
	Title      string
	Date       time.Time
	Tags       []string
	Categories []string
	Body       string
}

// Post is a rendered Jekyll post.
type Post struct {
	Filename string // stem without extension, e.g. 2025-03-19-Hello-World
	Title    string
	Content  []byte
}
