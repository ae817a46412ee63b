// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"alcoholdb/internal/middleware"
)

type createReviewRequest struct {
	Rating *int   `json:"rating" validate:"required"`
	Body   string `json:"body"`
}

type updateReviewRequest struct {
	Rating *int    `json:"rating"`
	Body   *string `json:"body"`
}

type banReviewRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AlcoholReviews lists the reviews of an alcohol, newest first.
func (a *API) AlcoholReviews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "alcohol")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := a.Items.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	reviews, total, err := a.Reviews.ListByAlcohol(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, reviews, limit, offset, total)
}

// CreateReview posts the signed-in user's review of an alcohol.
func (a *API) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "alcohol")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createReviewRequest
	if !decodeValid(w, r, &req) {
		return
	}
	review, err := a.ReviewSvc.Create(r.Context(), middleware.UserFromCtx(r.Context()), id, *req.Rating, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// UpdateReview edits the signed-in user's own review.
func (a *API) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "review")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateReviewRequest
	if !decode(w, r, &req) {
		return
	}
	review, err := a.ReviewSvc.Update(r.Context(), middleware.UserFromCtx(r.Context()), id, req.Rating, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// DeleteReview removes a review. Authors may delete their own; admins may
// delete any. Shared by the public and admin routes.
func (a *API) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "review")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.ReviewSvc.Delete(r.Context(), middleware.UserFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// ReportReview flags a review for moderation.
func (a *API) ReportReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "review")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.ReviewSvc.Report(r.Context(), middleware.UserFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// VoteHelpful marks a review as helpful.
func (a *API) VoteHelpful(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "review")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.ReviewSvc.VoteHelpful(r.Context(), middleware.UserFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// WithdrawHelpful takes back a helpful vote.
func (a *API) WithdrawHelpful(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "review")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.ReviewSvc.WithdrawHelpful(r.Context(), middleware.UserFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// ReportedReviews lists reviews with at least one report, most reported
// first.
func (a *API) ReportedReviews(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, total, err := a.Reviews.ListReported(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, reviews, limit, offset, total)
}

// BannedReviews lists the archive of banned reviews.
func (a *API) BannedReviews(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, total, err := a.Reviews.ListBanned(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, reviews, limit, offset, total)
}

// BanReview archives a review and removes it from the catalogue.
func (a *API) BanReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "review")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req banReviewRequest
	if r.ContentLength != 0 && !decodeValid(w, r, &req) {
		return
	}
	if err := a.ReviewSvc.Ban(r.Context(), middleware.UserFromCtx(r.Context()), id, req.Reason); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}
