// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog holds the catalogue's domain logic: the category editor
// that keeps the item validator in step with the category definitions, the
// item service that enforces it, the rating aggregator and the review
// moderation workflow. Persistence is reached through the small interfaces
// declared here and implemented by internal/store (PostgreSQL) and
// internal/docstore (MongoDB).
package catalog

import (
	"context"

	"github.com/google/uuid"

	"alcoholdb/internal/catalog/schema"
	"alcoholdb/internal/models"
)

// CategoryBackend persists categories and the active item validator.
// Finders return (nil, nil) when nothing matches.
type CategoryBackend interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindCategoryByTitle(ctx context.Context, title string) (*models.Category, error)
	InsertCategory(ctx context.Context, c *models.Category) error
	SaveCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// InstallValidator makes v the active validator and returns its version.
	InstallValidator(ctx context.Context, v *schema.Validator) (int, error)
	// CurrentValidator returns the active validator, or nil when none has
	// been installed yet.
	CurrentValidator(ctx context.Context) (*schema.Validator, int, error)

	CountItemsOfKind(ctx context.Context, kind string) (int, error)
	// StripItemFields unsets fields on every item of kind and reports how
	// many items changed.
	StripItemFields(ctx context.Context, kind string, fields []string) (int64, error)
}

// TxBackend is implemented by backends that can run a category edit and
// the validator installation atomically.
type TxBackend interface {
	WithinTx(ctx context.Context, fn func(CategoryBackend) error) error
}

// CategoryLocker is implemented by transaction-bound backends that can read
// a category and hold it against other edits until the transaction ends.
type CategoryLocker interface {
	FindCategoryForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// RatingTarget holds a rating aggregate that can be shifted by a delta in a
// single atomic write. It returns (nil, nil) when id does not exist.
type RatingTarget interface {
	ApplyRating(ctx context.Context, id uuid.UUID, d models.RatingDelta) (*models.RatingStats, error)
}

// ItemBackend persists catalogue items.
type ItemBackend interface {
	RatingTarget
	CreateItem(ctx context.Context, a *models.Alcohol) error
	FindItem(ctx context.Context, id uuid.UUID) (*models.Alcohol, error)
	FindItemByBarcode(ctx context.Context, code string) (*models.Alcohol, error)
	// FindItemByName matches name ignoring case.
	FindItemByName(ctx context.Context, name string) (*models.Alcohol, error)
	ListItems(ctx context.Context, f models.AlcoholFilter) ([]*models.Alcohol, int, error)
	UpdateItem(ctx context.Context, a *models.Alcohol) error
	SetItemImage(ctx context.Context, id uuid.UUID, key string) error
	DeleteItem(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReviewStore persists reviews and their moderation state. Report and vote
// methods are single conditional writes and report false when the user had
// already reported (or voted).
type ReviewStore interface {
	CreateReview(ctx context.Context, r *models.Review) error
	FindReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	UpdateReview(ctx context.Context, r *models.Review) error
	// DeleteReview removes the review and returns it, or nil when it was
	// already gone.
	DeleteReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ReportReview(ctx context.Context, id, userID uuid.UUID) (bool, error)
	VoteHelpful(ctx context.Context, id, userID uuid.UUID) (bool, error)
	UnvoteHelpful(ctx context.Context, id, userID uuid.UUID) (bool, error)
	// BanReview copies the review to the banned archive and deletes it in one
	// transaction, returning the removed review or nil when it was gone.
	BanReview(ctx context.Context, id, bannedBy uuid.UUID, reason string) (*models.Review, error)
	ReviewIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ReviewIDsByAlcohol(ctx context.Context, alcoholID uuid.UUID) ([]uuid.UUID, error)
	// WithdrawUserVotes removes the user's reports and helpful votes from
	// other users' reviews, decrementing their counters.
	WithdrawUserVotes(ctx context.Context, userID uuid.UUID) error
}

// Moderator screens user text for hate speech.
type Moderator interface {
	Screen(ctx context.Context, text string) (flagged bool, err error)
}

// RefChecker verifies that taxonomy references on an item exist.
type RefChecker interface {
	CheckRefs(ctx context.Context, countryID, regionID *uuid.UUID, flavourIDs []uuid.UUID) error
}

// ImageStore manages stored image variants for an item key.
type ImageStore interface {
	RenameImages(ctx context.Context, oldKey, newKey string) error
	DeleteImages(ctx context.Context, key string) error
}

// AlcoholDependents removes the relational rows that reference an item:
// list entries (with their counters), tag attachments and error reports.
type AlcoholDependents interface {
	PurgeAlcohol(ctx context.Context, alcoholID uuid.UUID) error
}

// UserDependents removes the rows that reference a user outside reviews.
type UserDependents interface {
	RemoveFollows(ctx context.Context, userID uuid.UUID) error
	ClearLists(ctx context.Context, userID uuid.UUID) error
	DeleteUser(ctx context.Context, id uuid.UUID) (bool, error)
}
