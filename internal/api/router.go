package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/render"
)

// NewRouter creates a chi router with all /api routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// assets, if non-nil, accepts uploads at POST /assets.
func NewRouter(svc *docservice.Service, renderer *render.Renderer, authEnabled bool, token string, sseHandler http.Handler, assets *AssetHandler) chi.Router {
	h := NewHandler(svc, renderer)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/docs", h.ListDocs)
	r.Post("/docs", h.CreateDoc)
	r.Get("/docs/*", h.GetDoc)
	r.Put("/docs/*", h.UpdateDoc)
	r.Delete("/docs/*", h.DeleteDoc)

	// Search and tags.
	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)

	// Lint (whole corpus, or one document with ?path=).
	r.Get("/lint", h.Lint)

	// Asset upload (auth-protected).
	if assets != nil {
		r.Post("/assets", assets.Upload)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
