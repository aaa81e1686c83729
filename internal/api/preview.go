package api

import (
	"errors"
	"net/http"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/render"
)

// previewListLimit caps the nav and listing size; the corpus is small, this
// just bounds the query.
const previewListLimit = 500

// PreviewHandler serves the rendered HTML preview with live reload. Draft
// documents are included: preview exists for authors.
type PreviewHandler struct {
	svc      *docservice.Service
	renderer *render.Renderer
}

// NewPreviewHandler creates a preview handler.
func NewPreviewHandler(svc *docservice.Service, renderer *render.Renderer) *PreviewHandler {
	return &PreviewHandler{svc: svc, renderer: renderer}
}

// Index handles GET /preview with a listing of every document.
func (h *PreviewHandler) Index(w http.ResponseWriter, r *http.Request) {
	docs, _, err := h.svc.List(r.Context(), index.ListQuery{Limit: previewListLimit, Drafts: true})
	if err != nil {
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	items := make([]render.ListingItem, len(docs))
	for i, d := range docs {
		items[i] = render.ListingItem{
			Title:   d.Title,
			Href:    "/preview/" + d.Path,
			Date:    d.Date,
			Summary: d.Summary,
			Tags:    d.Tags,
			Draft:   d.Draft,
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.ListingPage(w, render.Listing{Items: items, LiveReload: true}); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// Doc handles GET /preview/* with a single rendered document.
func (h *PreviewHandler) Doc(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	doc, err := h.svc.Get(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	content, err := h.renderer.HTML(doc.Body)
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	nav, err := h.nav(r, path)
	if err != nil {
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := render.Page{
		Title:      doc.Title,
		Date:       doc.Date,
		Summary:    doc.Summary,
		Tags:       doc.Tags,
		Draft:      doc.Draft,
		Nav:        nav,
		Content:    content,
		LiveReload: true,
	}
	if err := h.renderer.DocPage(w, page); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (h *PreviewHandler) nav(r *http.Request, active string) ([]render.NavItem, error) {
	docs, _, err := h.svc.List(r.Context(), index.ListQuery{Limit: previewListLimit, Drafts: true})
	if err != nil {
		return nil, err
	}
	nav := make([]render.NavItem, len(docs))
	for i, d := range docs {
		nav[i] = render.NavItem{
			Title:  d.Title,
			Href:   "/preview/" + d.Path,
			Active: d.Path == active,
		}
	}
	return nav, nil
}
