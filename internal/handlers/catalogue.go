// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/cache"
	"alcoholdb/internal/catalog/schema"
	"alcoholdb/internal/middleware"
	"alcoholdb/internal/models"
)

// schemaResponse exposes the active item validator.
type schemaResponse struct {
	Version   int               `json:"version"`
	Validator *schema.Validator `json:"validator"`
}

type tagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type errorReportRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// ListAlcohols lists catalogue items. Supported filters: kind, q (name
// substring), country and tag. A signed-in user's q is recorded in their
// search history.
func (a *API) ListAlcohols(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := models.AlcoholFilter{
		Kind:   strings.TrimSpace(q.Get("kind")),
		Query:  strings.TrimSpace(q.Get("q")),
		Limit:  limit,
		Offset: offset,
	}
	if f.CountryID, err = uuidQuery(r, "country"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.TagID, err = uuidQuery(r, "tag"); err != nil {
		writeError(w, r, err)
		return
	}

	items, total, err := a.Items.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if user := middleware.UserFromCtx(r.Context()); user != nil && f.Query != "" {
		if err := a.Social.RecordSearch(r.Context(), user.ID, f.Query); err != nil {
			slog.Warn("record search failed", "user_id", user.ID, "error", err)
		}
	}
	writePage(w, items, limit, offset, total)
}

// GetAlcohol returns one catalogue item.
func (a *API) GetAlcohol(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "alcohol")
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := a.Items.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// AlcoholByBarcode looks an item up by one of its barcodes.
func (a *API) AlcoholByBarcode(w http.ResponseWriter, r *http.Request) {
	item, err := a.Items.GetByBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Categories lists every category.
func (a *API) Categories(w http.ResponseWriter, r *http.Request) {
	var cats []*models.Category
	if a.Cache != nil && a.Cache.Get(r.Context(), cache.CategoriesKey, &cats) {
		writeJSON(w, http.StatusOK, itemsResponse[*models.Category]{Items: cats})
		return
	}
	cats, err := a.Editor.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if a.Cache != nil {
		a.Cache.Set(r.Context(), cache.CategoriesKey, cats)
	}
	writeJSON(w, http.StatusOK, itemsResponse[*models.Category]{Items: cats})
}

// CategorySchema returns the validator every item is checked against.
func (a *API) CategorySchema(w http.ResponseWriter, r *http.Request) {
	var resp schemaResponse
	if a.Cache != nil && a.Cache.Get(r.Context(), cache.ValidatorKey, &resp) {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	v, version, err := a.Editor.Validator(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp = schemaResponse{Version: version, Validator: v}
	if a.Cache != nil {
		a.Cache.Set(r.Context(), cache.ValidatorKey, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// InvalidateCategories drops cached category data. It is registered as an
// editor change hook.
func (a *API) InvalidateCategories(ctx context.Context) {
	if a.Cache != nil {
		a.Cache.Delete(ctx, cache.CategoriesKey, cache.ValidatorKey)
	}
}

// Countries lists every country.
func (a *API) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := a.Taxonomy.ListCountries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse[models.Country]{Items: countries})
}

// Regions lists regions, optionally filtered by ?country=.
func (a *API) Regions(w http.ResponseWriter, r *http.Request) {
	countryID, err := uuidQuery(r, "country")
	if err != nil {
		writeError(w, r, err)
		return
	}
	regions, err := a.Taxonomy.ListRegions(r.Context(), countryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse[models.Region]{Items: regions})
}

// Flavours lists every flavour.
func (a *API) Flavours(w http.ResponseWriter, r *http.Request) {
	flavours, err := a.Taxonomy.ListFlavours(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse[models.Flavour]{Items: flavours})
}

// ListTags lists every tag.
func (a *API) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := a.Tags.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse[models.Tag]{Items: tags})
}

// CreateTag adds a tag to the shared vocabulary.
func (a *API) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeValid(w, r, &req) {
		return
	}
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		writeError(w, r, apperr.Validation("name must not be blank"))
		return
	}
	tag, err := a.Tags.Create(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// AttachTag tags an alcohol.
func (a *API) AttachTag(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromCtx(r.Context())
	item, tag, err := a.itemAndTag(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := a.Tags.Attach(r.Context(), item.ID, tag.ID, me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, apperr.Conflict("alcohol is already tagged %q", tag.Name))
		return
	}
	noContent(w)
}

// DetachTag removes a tag from an alcohol.
func (a *API) DetachTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "alcohol")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tagID, err := idParam(r, "tagID", "tag")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := a.Tags.Detach(r.Context(), id, tagID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, apperr.NotFound("tag attachment"))
		return
	}
	noContent(w)
}

// ReportError files a data error report against an alcohol.
func (a *API) ReportError(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromCtx(r.Context())
	id, err := idParam(r, "id", "alcohol")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req errorReportRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if _, err := a.Items.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := a.Errors.Create(r.Context(), me.ID, id, strings.TrimSpace(req.Body))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (a *API) itemAndTag(r *http.Request) (*models.Alcohol, *models.Tag, error) {
	id, err := idParam(r, "id", "alcohol")
	if err != nil {
		return nil, nil, err
	}
	tagID, err := idParam(r, "tagID", "tag")
	if err != nil {
		return nil, nil, err
	}
	item, err := a.Items.Get(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	tag, err := a.Tags.FindByID(r.Context(), tagID)
	if err != nil {
		return nil, nil, err
	}
	if tag == nil {
		return nil, nil, apperr.NotFound("tag")
	}
	return item, tag, nil
}

// uuidQuery parses an optional UUID query parameter.
func uuidQuery(r *http.Request, key string) (*uuid.UUID, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, apperr.Validation("%s must be a UUID", key)
	}
	return &id, nil
}
