// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/models"
)

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

// AccountService deletes user accounts and everything hanging off them.
type AccountService struct {
	reviews    ReviewStore
	agg        *Aggregator
	dependents UserDependents
	sessions   SessionRevoker
}

// NewAccountService returns an AccountService. sessions may be nil.
func NewAccountService(reviews ReviewStore, agg *Aggregator, dependents UserDependents, sessions SessionRevoker) *AccountService {
	return &AccountService{reviews: reviews, agg: agg, dependents: dependents, sessions: sessions}
}

// Delete removes a user: their reviews (adjusting item aggregates), their
// reports and helpful votes, follow edges (adjusting counters), lists,
// sessions and finally the account. The steps are independent writes; a
// failure stops the cascade and leaves earlier steps applied.
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	ids, err := s.reviews.ReviewIDsByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("list user reviews: %w", err)
	}
	for _, rid := range ids {
		r, err := s.reviews.DeleteReview(ctx, rid)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if r == nil {
			continue
		}
		if err := s.agg.ItemOnly(ctx, r.AlcoholID, models.DeltaDeleted(r.Rating)); err != nil {
			return err
		}
	}
	if err := s.reviews.WithdrawUserVotes(ctx, id); err != nil {
		return fmt.Errorf("withdraw user votes: %w", err)
	}
	if err := s.dependents.RemoveFollows(ctx, id); err != nil {
		return fmt.Errorf("remove follows: %w", err)
	}
	if err := s.dependents.ClearLists(ctx, id); err != nil {
		return fmt.Errorf("clear lists: %w", err)
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeUser(ctx, id); err != nil {
			slog.Error("revoke sessions failed", "user_id", id, "error", err)
		}
	}
	ok, err := s.dependents.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return apperr.NotFound("user")
	}
	return nil
}
