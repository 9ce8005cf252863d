package main

import (
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/CTAG07/layerview/pkg/encode"
)

// callbackName limits JSONP callbacks to dotted identifiers.
var callbackName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// EncodeAPI exposes the tree encoders over HTTP. Request bodies are JSON
// trees; key order is kept.
type EncodeAPI struct {
	logger *slog.Logger
}

// NewEncodeAPI creates a new instance of the EncodeAPI.
func NewEncodeAPI(logger *slog.Logger) *EncodeAPI {
	return &EncodeAPI{logger: logger}
}

// RegisterRoutes sets up the routing for all /api/encode endpoints.
func (e *EncodeAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/encode/xml", e.handleXML)
	mux.HandleFunc("/api/encode/json", e.handleJSON)
}

func (e *EncodeAPI) readTree(w http.ResponseWriter, r *http.Request) (any, bool) {
	if !allowMethod(w, r, http.MethodPost) || !requireScope(w, r, scopeEncode) {
		return nil, false
	}
	tree, err := encode.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return nil, false
	}
	return tree, true
}

// handleXML renders the body as markup. Query parameters: tag, attrs and
// header (a boolean).
func (e *EncodeAPI) handleXML(w http.ResponseWriter, r *http.Request) {
	tree, ok := e.readTree(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	header, _ := strconv.ParseBool(q.Get("header"))

	out, err := encode.Markup(tree, q.Get("tag"), header, q.Get("attrs"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithText(w, "application/xml; charset=utf-8", out)
}

// handleJSON re-encodes the body. Query parameters: wrap and callback.
func (e *EncodeAPI) handleJSON(w http.ResponseWriter, r *http.Request) {
	tree, ok := e.readTree(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	callback := q.Get("callback")
	if callback != "" && !callbackName.MatchString(callback) {
		respondWithError(w, http.StatusBadRequest, "Invalid callback name")
		return
	}

	out, err := encode.JSON(tree, q.Get("wrap"), callback)
	if err != nil {
		e.logger.Error("Failed to encode JSON", "error", err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	contentType := "application/json"
	if callback != "" {
		contentType = "text/javascript; charset=utf-8"
	}
	respondWithText(w, contentType, out)
}
