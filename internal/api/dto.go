package api

import (
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/models"
)

// CreateDocRequest is the request body for creating a document.
type CreateDocRequest struct {
	Path    string `json:"path" example:"workshop/new-page.md" validate:"required"`
	Content string `json:"content" example:"---\ntitle: New Page\n---\n# New Page" validate:"required"`
}

// UpdateDocRequest is the request body for updating a document.
type UpdateDocRequest struct {
	Content string `json:"content" example:"---\ntitle: Updated\n---\n# Updated" validate:"required"`
}

// Document is the full document response type (aliased from the domain layer).
type Document = models.Document

// DocSummary is a lightweight item in a list response (aliased from the domain layer).
type DocSummary = models.DocSummary

// DocListResponse wraps paginated document listings.
type DocListResponse struct {
	Docs  []models.DocSummary `json:"docs" validate:"required"`
	Total int                 `json:"total" example:"5" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// TagsResponse wraps the tag counts.
type TagsResponse struct {
	Tags []index.TagCount `json:"tags" validate:"required"`
}

// LintFileResponse wraps the findings for a single document.
type LintFileResponse struct {
	Path     string         `json:"path" example:"workshop/page.md"`
	Findings []lint.Finding `json:"findings" validate:"required"`
}

// AssetUploadResponse is returned after a successful asset upload.
type AssetUploadResponse struct {
	Filename string `json:"filename" example:"diagram.svg" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/static/diagram.svg" validate:"required"`
	Markdown string `json:"markdown" example:"![diagram](/static/diagram.svg)" validate:"required"`
}
