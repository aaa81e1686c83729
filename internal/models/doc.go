// Package models defines the domain types for Ansuz.
package models

import "time"

// Document is the full representation of one Markdown page: raw content plus
// the metadata the index keeps for it. HTML is set only when the caller asked
// for a rendered body.
type Document struct {
	Path        string                 `json:"path"`
	Title       string                 `json:"title"`
	Date        time.Time              `json:"date,omitzero"`
	Draft       bool                   `json:"draft,omitempty"`
	Summary     string                 `json:"summary,omitempty"`
	Tags        []string               `json:"tags"`
	Images      []string               `json:"images,omitempty"`
	Content     string                 `json:"content"`
	Body        string                 `json:"-"` // content minus front matter, for rendering
	HTML        string                 `json:"html,omitempty"`
	Checksum    string                 `json:"checksum"`
	Words       int                    `json:"words"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Backlinks   []string               `json:"backlinks"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// DocMetadata is a lightweight representation returned by storage listings.
type DocMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocSummary is the list-view row: front-matter fields without the body.
type DocSummary struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date,omitzero"`
	Draft     bool      `json:"draft,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Tags      []string  `json:"tags"`
	Words     int       `json:"words"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
