package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CTAG07/layerview/pkg/snippet"
	"github.com/CTAG07/layerview/pkg/store"
	"github.com/CTAG07/layerview/pkg/view"
)

const templatesRoute = "/api/templates/"

// previewPage is the page name raw preview text is served under.
const previewPage = "_preview"

// renderFunc composes a page from a store with runtime data.
type renderFunc func(st store.Store, page string, data map[string]any) (string, error)

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	catalog store.Catalog
	render  renderFunc
	logger  *slog.Logger
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(catalog store.Catalog, render renderFunc, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		catalog: catalog,
		render:  render,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for all /api/templates endpoints.
func (t *TemplateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(templatesRoute+"preview", t.handlePreview)
	mux.HandleFunc(templatesRoute, t.handleTemplates)
}

// PreviewRequest is the body of a preview. Text, when set, is composed as
// the page instead of the stored page named Page.
type PreviewRequest struct {
	Page string         `json:"page"`
	Text *string        `json:"text"`
	Data map[string]any `json:"data"`
}

// handleTemplates serves /api/templates/{kind} and /api/templates/{kind}/{name}.
func (t *TemplateAPI) handleTemplates(w http.ResponseWriter, r *http.Request) {
	kindStr, name, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, templatesRoute), "/")
	kind, err := store.ParseKind(kindStr)
	if err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	if name == "" {
		t.handleList(w, r, kind)
		return
	}
	if _, ok := store.Normalize(name); !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid template name")
		return
	}
	t.handleFile(w, r, kind, name)
}

// handleList returns the names of every template of a kind.
func (t *TemplateAPI) handleList(w http.ResponseWriter, r *http.Request, kind store.Kind) {
	if !allowMethod(w, r, http.MethodGet) || !requireScope(w, r, scopeTemplatesRead) {
		return
	}
	names, err := t.catalog.Names(kind)
	if err != nil {
		t.logger.Error("Failed to list templates", "kind", kind, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}
	respondWithJSON(w, http.StatusOK, names)
}

// handleFile reads or replaces a single template.
func (t *TemplateAPI) handleFile(w http.ResponseWriter, r *http.Request, kind store.Kind, name string) {
	if !allowMethod(w, r, http.MethodGet, http.MethodPut) {
		return
	}

	if r.Method == http.MethodGet {
		if !requireScope(w, r, scopeTemplatesRead) {
			return
		}
		text, err := t.catalog.Load(kind, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Template not found")
				return
			}
			t.logger.Error("Failed to load template", "kind", kind, "name", name, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to load template")
			return
		}
		respondWithText(w, "text/plain; charset=utf-8", text)
		return
	}

	if !requireScope(w, r, scopeTemplatesWrite) {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}
	if err = t.catalog.Save(kind, name, string(body)); err != nil {
		t.logger.Error("Failed to save template", "kind", kind, "name", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save template: %v", err))
		return
	}
	t.logger.Info("Template saved via API", "kind", kind, "name", name, "bytes", len(body))
	w.WriteHeader(http.StatusNoContent)
}

// handlePreview composes a stored page, or raw page text, with the data in
// the request body.
func (t *TemplateAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) || !requireScope(w, r, scopeTemplatesRead) {
		return
	}

	var req PreviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	var st store.Store = t.catalog
	page := req.Page
	if req.Text != nil {
		st = pageOverlay{Store: t.catalog, name: previewPage, text: *req.Text}
		page = previewPage
	}

	out, err := t.render(st, page, req.Data)
	if err != nil {
		var serr *snippet.Error
		switch {
		case errors.Is(err, view.ErrTemplateNotFound):
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &serr), errors.Is(err, view.ErrTemplateEvaluation):
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template execution failed: %v", err))
		default:
			t.logger.Error("Failed to render preview", "page", page, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render preview: %v", err))
		}
		return
	}
	respondWithText(w, "text/html; charset=utf-8", out)
}

// pageOverlay serves text as the page called name and defers everything
// else to the wrapped store.
type pageOverlay struct {
	store.Store
	name string
	text string
}

func (o pageOverlay) Load(kind store.Kind, name string) (string, error) {
	if kind == store.KindPage && name == o.name {
		return o.text, nil
	}
	return o.Store.Load(kind, name)
}
