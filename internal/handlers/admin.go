// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/imaging"
	"alcoholdb/internal/middleware"
	"alcoholdb/internal/models"
)

const (
	// maxUploadSize is the maximum accepted image upload (10 MB).
	maxUploadSize = 10 << 20
)

type createCategoryRequest struct {
	Title      string                        `json:"title" validate:"required,max=50"`
	Properties map[string]models.PropertyDef `json:"properties"`
}

type propertiesRequest struct {
	Properties map[string]models.PropertyDef `json:"properties" validate:"required,min=1"`
}

type removePropertiesRequest struct {
	Keys []string `json:"keys" validate:"required,min=1,dive,required"`
}

type nameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type createRegionRequest struct {
	CountryID string `json:"country_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,max=100"`
}

type imageResponse struct {
	Image string            `json:"image"`
	URLs  map[string]string `json:"urls"`
}

// --- Alcohols ---

// CreateAlcohol adds a catalogue item. The body is the item document.
func (a *API) CreateAlcohol(w http.ResponseWriter, r *http.Request) {
	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	item, err := a.Items.Create(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("alcohol created", "alcohol_id", item.ID, "kind", item.Kind)
	writeJSON(w, http.StatusCreated, item)
}

// UpdateAlcohol merges a partial document into an item.
func (a *API) UpdateAlcohol(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "alcohol")
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	item, err := a.Items.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteAlcohol removes an item and everything that references it.
func (a *API) DeleteAlcohol(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "alcohol")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.Items.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("alcohol deleted", "alcohol_id", id)
	noContent(w)
}

// UploadAlcoholImage replaces an item's image. The multipart field "file"
// holds the original; the resized variants are stored.
func (a *API) UploadAlcoholImage(w http.ResponseWriter, r *http.Request) {
	if a.Images == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "image storage is not configured"})
		return
	}
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

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequest(w, "file too large or invalid form data")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "no file provided")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "failed to read upload")
		return
	}

	key := catalog.ImageKey(item)
	if err := a.Images.Put(r.Context(), key, data); err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			writeError(w, r, apperr.Validation("unsupported or corrupt image"))
			return
		}
		writeError(w, r, apperr.Upstream("image storage", err))
		return
	}
	if err := a.Items.SetImage(r.Context(), item, key); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("alcohol image uploaded", "alcohol_id", item.ID, "key", key)
	writeJSON(w, http.StatusOK, imageResponse{Image: key, URLs: a.Images.URLs(key)})
}

// --- Categories ---

// CreateCategory adds a category and rebuilds the item validator.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeValid(w, r, &req) {
		return
	}
	cat, err := a.Editor.CreateCategory(r.Context(), strings.TrimSpace(req.Title), req.Properties)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("category created", "category_id", cat.ID, "title", cat.Title)
	writeJSON(w, http.StatusCreated, cat)
}

// AddCategoryProperties adds properties to a category.
func (a *API) AddCategoryProperties(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req propertiesRequest
	if !decodeValid(w, r, &req) {
		return
	}
	cat, err := a.Editor.AddProperties(r.Context(), id, req.Properties)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// RemoveCategoryProperties removes properties from a category and strips
// them from its items.
func (a *API) RemoveCategoryProperties(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req removePropertiesRequest
	if !decodeValid(w, r, &req) {
		return
	}
	cat, err := a.Editor.RemoveProperties(r.Context(), id, req.Keys)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory removes a category that no item uses.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.Editor.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("category deleted", "category_id", id)
	noContent(w)
}

// --- Taxonomy ---

// CreateCountry adds a country.
func (a *API) CreateCountry(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeName(w, r, &req) {
		return
	}
	c, err := a.Taxonomy.CreateCountry(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// RenameCountry renames a country.
func (a *API) RenameCountry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "country")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req nameRequest
	if !decodeName(w, r, &req) {
		return
	}
	c, err := a.Taxonomy.RenameCountry(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		writeError(w, r, apperr.NotFound("country"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCountry removes a country and its regions.
func (a *API) DeleteCountry(w http.ResponseWriter, r *http.Request) {
	a.deleteByID(w, r, "country", a.Taxonomy.DeleteCountry)
}

// CreateRegion adds a region to a country.
func (a *API) CreateRegion(w http.ResponseWriter, r *http.Request) {
	var req createRegionRequest
	if !decodeValid(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, apperr.Validation("name must not be blank"))
		return
	}
	region, err := a.Taxonomy.CreateRegion(r.Context(), uuid.MustParse(req.CountryID), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, region)
}

// RenameRegion renames a region.
func (a *API) RenameRegion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "region")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req nameRequest
	if !decodeName(w, r, &req) {
		return
	}
	region, err := a.Taxonomy.RenameRegion(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if region == nil {
		writeError(w, r, apperr.NotFound("region"))
		return
	}
	writeJSON(w, http.StatusOK, region)
}

// DeleteRegion removes a region.
func (a *API) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	a.deleteByID(w, r, "region", a.Taxonomy.DeleteRegion)
}

// CreateFlavour adds a flavour.
func (a *API) CreateFlavour(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeName(w, r, &req) {
		return
	}
	f, err := a.Taxonomy.CreateFlavour(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// RenameFlavour renames a flavour.
func (a *API) RenameFlavour(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "flavour")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req nameRequest
	if !decodeName(w, r, &req) {
		return
	}
	f, err := a.Taxonomy.RenameFlavour(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if f == nil {
		writeError(w, r, apperr.NotFound("flavour"))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFlavour removes a flavour.
func (a *API) DeleteFlavour(w http.ResponseWriter, r *http.Request) {
	a.deleteByID(w, r, "flavour", a.Taxonomy.DeleteFlavour)
}

// --- Error reports ---

// ErrorReports lists data error reports, oldest first.
func (a *API) ErrorReports(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reports, total, err := a.Errors.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, reports, limit, offset, total)
}

// DeleteErrorReport resolves a data error report.
func (a *API) DeleteErrorReport(w http.ResponseWriter, r *http.Request) {
	a.deleteByID(w, r, "error report", a.Errors.Delete)
}

// --- Users ---

// ListUsers lists every account with private fields.
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, total, err := a.Users.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, users, limit, offset, total)
}

// BanUser bans an account. Banned users keep read access.
func (a *API) BanUser(w http.ResponseWriter, r *http.Request) {
	a.setBanned(w, r, true)
}

// UnbanUser lifts a ban.
func (a *API) UnbanUser(w http.ResponseWriter, r *http.Request) {
	a.setBanned(w, r, false)
}

func (a *API) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	admin := middleware.UserFromCtx(r.Context())
	id, err := idParam(r, "id", "user")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if id == admin.ID {
		writeError(w, r, apperr.Validation("you cannot change your own ban status"))
		return
	}
	ok, err := a.Users.SetBanned(r.Context(), id, banned)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, apperr.NotFound("user"))
		return
	}
	slog.Info("user ban status changed", "user_id", id, "banned", banned, "by", admin.ID)
	noContent(w)
}

// --- Tags ---

// DeleteTag removes a tag from the vocabulary and from every item.
func (a *API) DeleteTag(w http.ResponseWriter, r *http.Request) {
	a.deleteByID(w, r, "tag", a.Tags.Delete)
}

// decodeName reads a nameRequest and trims the name.
func decodeName(w http.ResponseWriter, r *http.Request, req *nameRequest) bool {
	if !decodeValid(w, r, req) {
		return false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, r, apperr.Validation("name must not be blank"))
		return false
	}
	return true
}
// deleteByID runs a delete-by-id store call, reporting false as not
// found.
func (a *API) deleteByID(w http.ResponseWriter, r *http.Request, entity string,
	del func(ctx context.Context, id uuid.UUID) (bool, error)) {
	id, err := idParam(r, "id", entity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := del(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, apperr.NotFound(entity))
		return
	}
	noContent(w)
}
