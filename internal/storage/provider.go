// Package storage defines the content-tree file-system abstraction. The
// engine runs two instances: one rooted at the Markdown content directory,
// one at the static asset directory.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for content-tree file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to root).
	List(dir string) ([]models.DocMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to root).
	Move(oldPath, newPath string) error
	// Exists reports whether a regular file is present at path.
	Exists(path string) bool
}
