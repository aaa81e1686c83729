// Package docservice implements the document operations shared by the HTTP
// API and the MCP server: CRUD with optimistic concurrency, listing, search,
// and lint checks. Mutations re-index synchronously and publish SSE events.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	gopath "path"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
)

// Service coordinates storage, index, lint, and SSE fan-out.
type Service struct {
	docs   storage.Provider
	db     index.DocIndex
	linter *lint.Linter
	broker *sse.Broker
}

// New creates a document service. broker may be nil (check and build modes
// have no subscribers).
func New(docs storage.Provider, db index.DocIndex, linter *lint.Linter, broker *sse.Broker) *Service {
	return &Service{docs: docs, db: db, linter: linter, broker: broker}
}

// Get reads a document from storage, parses it, and enriches it with
// backlinks from the index.
func (s *Service) Get(_ context.Context, path string) (*models.Document, error) {
	data, err := s.docs.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDocument(path, data)
}

// Create writes a new document and indexes it. The path must name a .md file;
// an existing path is a conflict.
func (s *Service) Create(_ context.Context, path string, content []byte) (*models.Document, error) {
	if !strings.HasSuffix(path, ".md") {
		return nil, fmt.Errorf("%w: document paths must end in .md", apperr.ErrInvalid)
	}
	if s.docs.Exists(path) {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.docs.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDoc(s.db, path, content); err != nil {
		return nil, err
	}
	s.publish("created", path)
	return s.buildDocument(path, content)
}

// Update writes new content with optimistic concurrency: when ifMatch is
// non-empty it must equal the checksum of the stored content.
func (s *Service) Update(_ context.Context, path string, content []byte, ifMatch string) (*models.Document, error) {
	existing, err := s.docs.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.docs.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDoc(s.db, path, content); err != nil {
		return nil, err
	}
	s.publish("updated", path)
	return s.buildDocument(path, content)
}

// Delete removes a document from storage and the index.
func (s *Service) Delete(_ context.Context, path string) error {
	if !s.docs.Exists(path) {
		return apperr.ErrNotFound
	}
	if err := s.docs.Delete(path); err != nil {
		return err
	}
	if err := s.db.DeleteDoc(path); err != nil {
		return err
	}
	s.publish("deleted", path)
	return nil
}

// List returns a page of document summaries plus the total for the filter.
func (s *Service) List(_ context.Context, q index.ListQuery) ([]models.DocSummary, int, error) {
	rows, total, err := s.db.ListDocs(q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.DocSummary, len(rows))
	for i, r := range rows {
		items[i] = models.DocSummary{
			Path:      r.Path,
			Title:     r.Title,
			Date:      r.Date,
			Draft:     r.Draft,
			Summary:   r.Summary,
			Tags:      nonNilSlice(r.Tags),
			Words:     r.Words,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Tags returns every tag in use with its document count.
func (s *Service) Tags(_ context.Context) ([]index.TagCount, error) {
	return s.db.ListTags()
}

// Backlinks returns the paths of documents linking to target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	bl, err := s.db.Backlinks(target)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(bl), nil
}

// Check lints a single document in the context of the corpus.
func (s *Service) Check(_ context.Context, path string) ([]lint.Finding, error) {
	if !s.docs.Exists(path) {
		return nil, apperr.ErrNotFound
	}
	findings, err := s.linter.File(path)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(findings), nil
}

// CheckCorpus lints every document.
func (s *Service) CheckCorpus(_ context.Context) (*lint.Report, error) {
	return s.linter.Corpus()
}

// Ready reports whether the index is reachable.
func (s *Service) Ready() error {
	return s.db.Ping()
}

func (s *Service) publish(kind, path string) {
	if s.broker != nil {
		s.broker.PublishDocEvent(kind, path)
	}
}

// buildDocument constructs the detail payload from raw bytes without
// re-reading the file.
func (s *Service) buildDocument(path string, data []byte) (*models.Document, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(gopath.Base(path), ".md")
	}
	return &models.Document{
		Path:        path,
		Title:       title,
		Date:        res.Meta.Date,
		Draft:       res.Meta.Draft,
		Summary:     res.Meta.Summary,
		Tags:        nonNilSlice(res.Meta.Tags),
		Images:      res.Meta.Images,
		Content:     string(data),
		Body:        res.Body,
		Checksum:    checksum.Sum(data),
		Words:       len(strings.Fields(res.Body)),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
