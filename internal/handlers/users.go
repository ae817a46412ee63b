// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/middleware"
	"alcoholdb/internal/models"
	"alcoholdb/internal/recommend"
)

type updateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type listEntryRequest struct {
	AlcoholID string `json:"alcohol_id" validate:"required,uuid"`
}

type searchRequest struct {
	Phrase string `json:"phrase" validate:"required,max=200"`
}

// itemsResponse wraps an unpaginated listing.
type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

// Me returns the signed-in user's full profile.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.UserFromCtx(r.Context()))
}

// UpdateMe edits the signed-in user's profile and, optionally, password.
func (a *API) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var req updateProfileRequest
	if !decodeValid(w, r, &req) {
		return
	}

	display, bio := user.DisplayName, user.Bio
	if req.DisplayName != nil {
		display = strings.TrimSpace(*req.DisplayName)
		if display == "" {
			writeError(w, r, apperr.Validation("display_name must not be blank"))
			return
		}
	}
	if req.Bio != nil {
		bio = *req.Bio
	}

	updated, err := a.Users.UpdateProfile(r.Context(), user.ID, display, bio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if updated == nil {
		writeError(w, r, apperr.NotFound("user"))
		return
	}
	if req.Password != nil {
		if err := a.Users.SetPassword(r.Context(), user.ID, *req.Password); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMe removes the signed-in user's account and everything attached
// to it.
func (a *API) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if err := a.Accounts.Delete(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("account deleted", "user_id", user.ID)
	noContent(w)
}

// Recommendations proxies the recommendation service for the signed-in
// user.
func (a *API) Recommendations(w http.ResponseWriter, r *http.Request) {
	if a.Recommender == nil {
		writeError(w, r, apperr.Upstream("recommendation service", recommend.ErrNotConfigured))
		return
	}
	user := middleware.UserFromCtx(r.Context())
	recs, err := a.Recommender.For(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse[recommend.Recommendation]{Items: recs})
}

// GetUser returns another user's public profile.
func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.loadUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// UserReviews lists the reviews written by a user.
func (a *API) UserReviews(w http.ResponseWriter, r *http.Request) {
	user, err := a.loadUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, total, err := a.Reviews.ListByUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, reviews, limit, offset, total)
}

// Follow makes the signed-in user follow another user.
func (a *API) Follow(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromCtx(r.Context())
	target, err := a.loadUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if target.ID == me.ID {
		writeError(w, r, apperr.Validation("you cannot follow yourself"))
		return
	}
	ok, err := a.Social.Follow(r.Context(), me.ID, target.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, apperr.Conflict("already following this user"))
		return
	}
	noContent(w)
}

// Unfollow removes a follow edge.
func (a *API) Unfollow(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromCtx(r.Context())
	id, err := idParam(r, "id", "user")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := a.Social.Unfollow(r.Context(), me.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, apperr.NotFound("follow"))
		return
	}
	noContent(w)
}

// Followers lists the users following a user.
func (a *API) Followers(w http.ResponseWriter, r *http.Request) {
	a.followPage(w, r, a.Social.Followers)
}

// Following lists the users a user follows.
func (a *API) Following(w http.ResponseWriter, r *http.Request) {
	a.followPage(w, r, a.Social.Following)
}

func (a *API) followPage(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, id uuid.UUID, limit, offset int) ([]models.PublicUser, int, error)) {
	user, err := a.loadUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, total, err := list(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, users, limit, offset, total)
}

// ListEntries returns a handler listing one of the signed-in user's lists.
func (a *API) ListEntries(kind models.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := middleware.UserFromCtx(r.Context())
		limit, offset, err := pageParams(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		entries, total, err := a.Social.ListEntries(r.Context(), me.ID, kind, limit, offset)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writePage(w, entries, limit, offset, total)
	}
}

// AddToList returns a handler adding an alcohol to one of the signed-in
// user's lists.
func (a *API) AddToList(kind models.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := middleware.UserFromCtx(r.Context())
		var req listEntryRequest
		if !decodeValid(w, r, &req) {
			return
		}
		item, err := a.Items.Get(r.Context(), uuid.MustParse(req.AlcoholID))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok, err := a.Social.AddToList(r.Context(), me.ID, kind, item.ID, item.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeError(w, r, apperr.Conflict("alcohol is already in your %s", kind))
			return
		}
		noContent(w)
	}
}

// RemoveFromList returns a handler removing an alcohol from one of the
// signed-in user's lists.
func (a *API) RemoveFromList(kind models.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := middleware.UserFromCtx(r.Context())
		id, err := idParam(r, "alcoholID", "list entry")
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok, err := a.Social.RemoveFromList(r.Context(), me.ID, kind, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeError(w, r, apperr.NotFound("list entry"))
			return
		}
		noContent(w)
	}
}

// SearchHistory returns the signed-in user's recent searches, newest
// first.
func (a *API) SearchHistory(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromCtx(r.Context())
	entries, err := a.Social.SearchHistory(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse[models.SearchEntry]{Items: entries})
}

// RecordSearch adds a phrase to the signed-in user's search history.
func (a *API) RecordSearch(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromCtx(r.Context())
	var req searchRequest
	if !decodeValid(w, r, &req) {
		return
	}
	phrase := strings.TrimSpace(req.Phrase)
	if phrase == "" {
		writeError(w, r, apperr.Validation("phrase must not be blank"))
		return
	}
	if err := a.Social.RecordSearch(r.Context(), me.ID, phrase); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// ClearSearchHistory forgets every search of the signed-in user.
func (a *API) ClearSearchHistory(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromCtx(r.Context())
	if err := a.Social.ClearSearchHistory(r.Context(), me.ID); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// loadUser resolves the {id} URL parameter to a user.
func (a *API) loadUser(r *http.Request) (*models.User, error) {
	id, err := idParam(r, "id", "user")
	if err != nil {
		return nil, err
	}
	user, err := a.Users.FindByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	return user, nil
}
