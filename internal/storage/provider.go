// Package storage defines the file-system access used by the converter.
package storage

import "github.com/starford/kenaz-jekyll/internal/models"

// Provider is the interface for file operations under a root directory.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List returns every .md file under the root.
	List() (Listing, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}

// Listing is the result of Provider.List.
type Listing struct {
	Files   []models.SourceFile
	Skipped []Skipped
}

// Skipped is a directory or file below the root that could not be read.
type Skipped struct {
	Path string // relative to the root, slash separated
	Err  error
}
