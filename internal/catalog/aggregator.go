// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"alcoholdb/internal/models"
)

// Aggregator keeps the rating aggregates of items and of reviewing users in
// step with review mutations. Each side is one atomic delta write; the item
// and user writes are independent and are not compensated if the second
// one fails.
type Aggregator struct {
	items RatingTarget
	users RatingTarget
}

// NewAggregator returns an Aggregator writing to items and users.
func NewAggregator(items, users RatingTarget) *Aggregator {
	return &Aggregator{items: items, users: users}
}

// ReviewCreated adds a new rating.
func (a *Aggregator) ReviewCreated(ctx context.Context, itemID, userID uuid.UUID, rating int) error {
	return a.apply(ctx, itemID, userID, models.DeltaCreated(rating))
}

// ReviewDeleted removes a rating. Callers must only report a deletion that
// actually removed a row; the count is not floored here.
func (a *Aggregator) ReviewDeleted(ctx context.Context, itemID, userID uuid.UUID, rating int) error {
	return a.apply(ctx, itemID, userID, models.DeltaDeleted(rating))
}

// ReviewRatingChanged shifts the value by the rating difference.
func (a *Aggregator) ReviewRatingChanged(ctx context.Context, itemID, userID uuid.UUID, oldRating, newRating int) error {
	if oldRating == newRating {
		return nil
	}
	return a.apply(ctx, itemID, userID, models.DeltaChanged(oldRating, newRating))
}

// ItemOnly applies a delta to the item alone, used when the reviewing user
// is being deleted.
func (a *Aggregator) ItemOnly(ctx context.Context, itemID uuid.UUID, d models.RatingDelta) error {
	if _, err := a.items.ApplyRating(ctx, itemID, d); err != nil {
		return fmt.Errorf("apply item rating: %w", err)
	}
	return nil
}

// UserOnly applies a delta to the user alone, used when the item is being
// deleted.
func (a *Aggregator) UserOnly(ctx context.Context, userID uuid.UUID, d models.RatingDelta) error {
	if _, err := a.users.ApplyRating(ctx, userID, d); err != nil {
		return fmt.Errorf("apply user rating: %w", err)
	}
	return nil
}

func (a *Aggregator) apply(ctx context.Context, itemID, userID uuid.UUID, d models.RatingDelta) error {
	stats, err := a.items.ApplyRating(ctx, itemID, d)
	if err != nil {
		return fmt.Errorf("apply item rating: %w", err)
	}
	if stats == nil {
		slog.Warn("rating target missing", "alcohol_id", itemID)
	}
	stats, err = a.users.ApplyRating(ctx, userID, d)
	if err != nil {
		return fmt.Errorf("apply user rating: %w", err)
	}
	if stats == nil {
		slog.Warn("rating target missing", "user_id", userID)
	}
	return nil
}
