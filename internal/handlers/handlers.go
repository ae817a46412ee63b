// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON REST API. Handlers decode and
// validate requests, call the catalogue services and stores, and map
// classified errors to status codes in one place (writeError).
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/cache"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/models"
	"alcoholdb/internal/recommend"
	"alcoholdb/internal/session"
	"alcoholdb/internal/storage"
	"alcoholdb/internal/store"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

// Deps collects what the handlers need. Images, Recommend and Cache may
// be nil.
type Deps struct {
	Users    *store.UserStore
	Social   *store.SocialStore
	Reviews  *store.ReviewStore
	Tags     *store.TagStore
	Taxonomy *store.TaxonomyStore
	Errors   *store.ReportedErrorStore
	Sessions *session.Store

	Editor      *catalog.Editor
	Items       *catalog.ItemService
	ReviewSvc   *catalog.ReviewService
	Accounts    *catalog.AccountService
	Images      *storage.Images
	Recommender *recommend.Client
	Cache       *cache.JSONCache
}

// API holds every route handler.
type API struct {
	Deps
}

// New creates the handler set.
func New(d Deps) *API {
	return &API{Deps: d}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError maps err to a status code. Unclassified errors are logged
// and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: apperr.MessageOf(err), Kind: string(apperr.KindOf(err))})
}

// badRequest reports a body that could not be parsed at all.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: "bad_request"})
}

// decode reads a JSON body into dst. On failure it writes 400 and returns
// false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return false
		}
		badRequest(w, "malformed JSON body")
		return false
	}
	return true
}

// decodeValid decodes dst and runs struct validation on it.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !decode(w, r, dst) {
		return false
	}
	if err := validateStruct(dst); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

// decodeDocument reads a free-form item document, keeping integers and
// floats apart.
func decodeDocument(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		badRequest(w, "body must be a JSON object")
		return nil, false
	}
	models.NormalizeNumbers(doc)
	return doc, true
}

// idParam parses a UUID URL parameter. A malformed id cannot match any
// entity and is reported as not found.
func idParam(r *http.Request, name, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.NotFound(entity)
	}
	return id, nil
}

// pageParams reads limit and offset from the query string.
func pageParams(r *http.Request) (int, int, error) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		return 0, 0, err
	}
	limit, offset = models.ClampPage(limit, offset)
	return limit, offset, nil
}

func intQuery(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", key)
	}
	return n, nil
}

// writePage writes a paginated listing.
func writePage[T any](w http.ResponseWriter, items []T, limit, offset, total int) {
	writeJSON(w, http.StatusOK, models.NewPage(items, limit, offset, total))
}

// noContent writes 204.
func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
