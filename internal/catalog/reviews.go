// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/events"
	"alcoholdb/internal/metrics"
	"alcoholdb/internal/models"
)

// MaxReviewBody is the longest review text accepted, in bytes.
const MaxReviewBody = 5000

// ReviewService runs the review lifecycle: create, edit, delete, report,
// helpful votes and bans. Every change to a rating goes through the
// aggregator.
type ReviewService struct {
	reviews   ReviewStore
	items     ItemBackend
	agg       *Aggregator
	moderator Moderator
	events    events.Publisher
}

// NewReviewService returns a ReviewService. moderator may be nil to skip
// screening; publisher may be nil to skip events.
func NewReviewService(reviews ReviewStore, items ItemBackend, agg *Aggregator, moderator Moderator, publisher events.Publisher) *ReviewService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &ReviewService{
		reviews:   reviews,
		items:     items,
		agg:       agg,
		moderator: moderator,
		events:    publisher,
	}
}

// Create stores the user's review of an alcohol.
func (s *ReviewService) Create(ctx context.Context, user *models.User, alcoholID uuid.UUID, rating int, body string) (*models.Review, error) {
	if !models.ValidRating(rating) {
		return nil, apperr.Validation("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	body = strings.TrimSpace(body)
	if len(body) > MaxReviewBody {
		return nil, apperr.Validation("review must be at most %d characters", MaxReviewBody)
	}
	item, err := s.items.FindItem(ctx, alcoholID)
	if err != nil {
		return nil, fmt.Errorf("find alcohol: %w", err)
	}
	if item == nil {
		return nil, apperr.NotFound("alcohol")
	}
	if err := s.screen(ctx, body); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &models.Review{
		ID:        uuid.New(),
		UserID:    user.ID,
		AlcoholID: alcoholID,
		Rating:    rating,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.CreateReview(ctx, r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	if err := s.agg.ReviewCreated(ctx, alcoholID, user.ID, rating); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ReviewCreated, r, 0)
	return r, nil
}

// Update edits the rating and/or body of the user's own review.
func (s *ReviewService) Update(ctx context.Context, user *models.User, id uuid.UUID, rating *int, body *string) (*models.Review, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != user.ID {
		return nil, apperr.Permission("only the author can edit a review")
	}

	oldRating := r.Rating
	if rating != nil {
		if !models.ValidRating(*rating) {
			return nil, apperr.Validation("rating must be between %d and %d", models.MinRating, models.MaxRating)
		}
		r.Rating = *rating
	}
	if body != nil {
		text := strings.TrimSpace(*body)
		if len(text) > MaxReviewBody {
			return nil, apperr.Validation("review must be at most %d characters", MaxReviewBody)
		}
		if text != r.Body {
			if err := s.screen(ctx, text); err != nil {
				return nil, err
			}
		}
		r.Body = text
	}
	r.UpdatedAt = time.Now().UTC()

	if err := s.reviews.UpdateReview(ctx, r); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if err := s.agg.ReviewRatingChanged(ctx, r.AlcoholID, r.UserID, oldRating, r.Rating); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ReviewUpdated, r, oldRating)
	return r, nil
}

// Delete removes a review. Only its author or an admin may do so. The
// aggregates are decremented only when this call removed the row, so a
// retried delete cannot count twice.
func (s *ReviewService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	r, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != user.ID && !user.IsAdmin() {
		return apperr.Permission("only the author or an admin can delete a review")
	}
	removed, err := s.reviews.DeleteReview(ctx, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if removed == nil {
		return apperr.NotFound("review")
	}
	if err := s.agg.ReviewDeleted(ctx, removed.AlcoholID, removed.UserID, removed.Rating); err != nil {
		return err
	}
	s.publish(ctx, events.ReviewDeleted, removed, 0)
	return nil
}

// Report flags a review for moderation. Each user may report a review once.
func (s *ReviewService) Report(ctx context.Context, user *models.User, id uuid.UUID) error {
	r, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID == user.ID {
		return apperr.Validation("you cannot report your own review")
	}
	ok, err := s.reviews.ReportReview(ctx, id, user.ID)
	if err != nil {
		return fmt.Errorf("report review: %w", err)
	}
	if !ok {
		return apperr.Conflict("review already reported")
	}
	return nil
}

// VoteHelpful marks a review as helpful. Each user may vote once.
func (s *ReviewService) VoteHelpful(ctx context.Context, user *models.User, id uuid.UUID) error {
	r, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID == user.ID {
		return apperr.Validation("you cannot vote on your own review")
	}
	ok, err := s.reviews.VoteHelpful(ctx, id, user.ID)
	if err != nil {
		return fmt.Errorf("vote helpful: %w", err)
	}
	if !ok {
		return apperr.Conflict("already voted")
	}
	return nil
}

// WithdrawHelpful removes the user's helpful vote.
func (s *ReviewService) WithdrawHelpful(ctx context.Context, user *models.User, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	ok, err := s.reviews.UnvoteHelpful(ctx, id, user.ID)
	if err != nil {
		return fmt.Errorf("withdraw helpful vote: %w", err)
	}
	if !ok {
		return apperr.NotFound("helpful vote")
	}
	return nil
}

// Ban archives and removes a review.
func (s *ReviewService) Ban(ctx context.Context, admin *models.User, id uuid.UUID, reason string) error {
	if !admin.IsAdmin() {
		return apperr.Permission("admin access required")
	}
	removed, err := s.reviews.BanReview(ctx, id, admin.ID, strings.TrimSpace(reason))
	if err != nil {
		return fmt.Errorf("ban review: %w", err)
	}
	if removed == nil {
		return apperr.NotFound("review")
	}
	if err := s.agg.ReviewDeleted(ctx, removed.AlcoholID, removed.UserID, removed.Rating); err != nil {
		return err
	}
	s.publish(ctx, events.ReviewBanned, removed, 0)
	return nil
}

func (s *ReviewService) find(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r, err := s.reviews.FindReview(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if r == nil {
		return nil, apperr.NotFound("review")
	}
	return r, nil
}

// screen runs the hate-speech classifier. A flagged text is rejected;
// classifier failures are logged and the text is accepted unscreened.
func (s *ReviewService) screen(ctx context.Context, text string) error {
	if s.moderator == nil || text == "" {
		return nil
	}
	flagged, err := s.moderator.Screen(ctx, text)
	if err != nil {
		metrics.ModerationFailures.Inc()
		slog.Warn("review moderation unavailable", "error", err)
		return nil
	}
	if flagged {
		return apperr.Validation("review text was flagged as hate speech")
	}
	return nil
}

func (s *ReviewService) publish(ctx context.Context, t events.Type, r *models.Review, oldRating int) {
	s.events.Publish(ctx, events.Event{
		Type:       t,
		ReviewID:   r.ID,
		AlcoholID:  r.AlcoholID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		OldRating:  oldRating,
		OccurredAt: time.Now().UTC(),
	})
}
