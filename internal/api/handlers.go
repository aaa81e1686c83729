package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/render"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *docservice.Service
	renderer *render.Renderer
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service, renderer *render.Renderer) *Handler {
	return &Handler{svc: svc, renderer: renderer}
}

// docPath extracts the document path from the URL (everything after
// /api/docs/). Supports encoded slashes from generated clients
// (e.g. workshop%2Fpage.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDocs handles GET /api/docs.
//
//	@Summary		List documents with optional pagination and filtering
//	@Tags			docs
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			drafts	query		bool	false	"Include drafts"
//	@Param			sort	query		string	false	"Sort field"	Enums(date, title, path)
//	@Success		200		{object}	DocListResponse
//	@Security		BearerAuth
//	@Router			/docs [get]
func (h *Handler) ListDocs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), index.ListQuery{
		Limit:  limit,
		Offset: offset,
		Tag:    q.Get("tag"),
		Drafts: q.Get("drafts") == "1" || q.Get("drafts") == "true",
		Sort:   q.Get("sort"),
	})
	if err != nil {
		writeError(w, r, err, "list docs failed")
		return
	}
	writeJSON(w, http.StatusOK, DocListResponse{Docs: items, Total: total})
}

// GetDoc handles GET /api/docs/*.
//
//	@Summary		Get a single document by path
//	@Tags			docs
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Param			html	query		bool	false	"Include rendered HTML body"
//	@Success		200		{object}	Document
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{path} [get]
func (h *Handler) GetDoc(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.Get(r.Context(), path)
	if err != nil {
		writeError(w, r, err, "get doc failed")
		return
	}
	if v := r.URL.Query().Get("html"); v == "1" || v == "true" {
		html, err := h.renderer.HTML(doc.Body)
		if err != nil {
			writeError(w, r, err, "render doc failed")
			return
		}
		doc.HTML = string(html)
	}
	writeJSON(w, http.StatusOK, doc)
}

// CreateDoc handles POST /api/docs.
//
//	@Summary		Create a new document
//	@Tags			docs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocRequest	true	"Document to create"
//	@Success		201		{object}	Document
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs [post]
func (h *Handler) CreateDoc(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	doc, err := h.svc.Create(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		writeError(w, r, err, "create doc failed")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// UpdateDoc handles PUT /api/docs/*.
//
//	@Summary		Update a document with optimistic concurrency
//	@Tags			docs
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"Document path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum precondition"
//	@Param			body		body	UpdateDocRequest	true	"Updated content"
//	@Success		200		{object}	Document
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		412		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{path} [put]
func (h *Handler) UpdateDoc(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req UpdateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	doc, err := h.svc.Update(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		writeError(w, r, err, "update doc failed")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDoc handles DELETE /api/docs/*.
//
//	@Summary		Delete a document
//	@Tags			docs
//	@Param			path	path	string	true	"Document path"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{path} [delete]
func (h *Handler) DeleteDoc(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.Delete(r.Context(), path); err != nil {
		writeError(w, r, err, "delete doc failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, r, err, "search failed")
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Tags handles GET /api/tags.
//
//	@Summary		List all tags in use with document counts
//	@Tags			docs
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, r, err, "list tags failed")
		return
	}
	if tags == nil {
		tags = []index.TagCount{}
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// Lint handles GET /api/lint. Without a path parameter the whole corpus is
// checked and the aggregate report returned; with one, just that document's
// findings.
//
//	@Summary		Check documents against the authoring contract
//	@Tags			lint
//	@Produce		json
//	@Param			path	query		string	false	"Check a single document"
//	@Success		200		{object}	LintFileResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lint [get]
func (h *Handler) Lint(w http.ResponseWriter, r *http.Request) {
	if path := r.URL.Query().Get("path"); path != "" {
		findings, err := h.svc.Check(r.Context(), path)
		if err != nil {
			writeError(w, r, err, "lint doc failed")
			return
		}
		writeJSON(w, http.StatusOK, LintFileResponse{Path: path, Findings: findings})
		return
	}
	report, err := h.svc.CheckCorpus(r.Context())
	if err != nil {
		writeError(w, r, err, "lint corpus failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
