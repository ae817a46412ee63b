// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog/schema"
	"alcoholdb/internal/models"
	"alcoholdb/internal/slug"
)

// ValidatorSource yields the active item validator and its version.
type ValidatorSource interface {
	Validator(ctx context.Context) (*schema.Validator, int, error)
}

// ItemService creates, edits and deletes catalogue items, validating every
// write against the active validator.
type ItemService struct {
	items      ItemBackend
	validators ValidatorSource
	agg        *Aggregator
	reviews    ReviewStore
	dependents AlcoholDependents
	refs       RefChecker
	images     ImageStore
}

// NewItemService returns an ItemService. Reference checking and image
// handling are optional and enabled with SetRefChecker and SetImageStore.
func NewItemService(items ItemBackend, validators ValidatorSource, agg *Aggregator, reviews ReviewStore, dependents AlcoholDependents) *ItemService {
	return &ItemService{
		items:      items,
		validators: validators,
		agg:        agg,
		reviews:    reviews,
		dependents: dependents,
	}
}

// SetRefChecker enables taxonomy reference checks.
func (s *ItemService) SetRefChecker(r RefChecker) { s.refs = r }

// SetImageStore enables image renames and deletes.
func (s *ItemService) SetImageStore(i ImageStore) { s.images = i }

// ImageKey returns the object key prefix for an item's image variants.
// Names with no Latin letters or digits fall back to "item".
func ImageKey(a *models.Alcohol) string {
	name := slug.Generate(a.Name)
	if name == "" {
		name = "item"
	}
	return "alcohols/" + name + "-" + a.ID.String()[:8]
}

// Get returns one item.
func (s *ItemService) Get(ctx context.Context, id uuid.UUID) (*models.Alcohol, error) {
	a, err := s.items.FindItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find alcohol: %w", err)
	}
	if a == nil {
		return nil, apperr.NotFound("alcohol")
	}
	return a, nil
}

// GetByBarcode returns the item carrying barcode.
func (s *ItemService) GetByBarcode(ctx context.Context, code string) (*models.Alcohol, error) {
	a, err := s.items.FindItemByBarcode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find alcohol by barcode: %w", err)
	}
	if a == nil {
		return nil, apperr.NotFound("alcohol")
	}
	return a, nil
}

// List returns a page of items.
func (s *ItemService) List(ctx context.Context, f models.AlcoholFilter) ([]*models.Alcohol, int, error) {
	f.Limit, f.Offset = models.ClampPage(f.Limit, f.Offset)
	items, total, err := s.items.ListItems(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list alcohols: %w", err)
	}
	return items, total, nil
}

// Create validates doc and stores it as a new item.
func (s *ItemService) Create(ctx context.Context, doc map[string]any) (*models.Alcohol, error) {
	a, version, err := s.check(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, a, uuid.Nil); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a.ID = uuid.New()
	a.SchemaVersion = version
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.items.CreateItem(ctx, a); err != nil {
		return nil, fmt.Errorf("create alcohol: %w", err)
	}
	return a, nil
}

// Update merges patch over the stored item and validates the result. A
// null value sets the field to null; absent keys keep their value.
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Alcohol, error) {
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := old.Document()
	for k, v := range patch {
		doc[k] = v
	}
	a, version, err := s.check(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, a, old.ID); err != nil {
		return nil, err
	}
	a.ID = old.ID
	a.Image = old.Image
	a.RateCount, a.RateValue, a.AvgRating = old.RateCount, old.RateValue, old.AvgRating
	a.SchemaVersion = version
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	if old.Image != "" && s.images != nil && a.Name != old.Name {
		newKey := ImageKey(a)
		if err := s.images.RenameImages(ctx, old.Image, newKey); err != nil {
			slog.Error("rename alcohol images failed", "alcohol_id", id, "error", err)
		} else {
			a.Image = newKey
		}
	}

	if err := s.items.UpdateItem(ctx, a); err != nil {
		return nil, fmt.Errorf("update alcohol: %w", err)
	}
	return a, nil
}

// SetImage records the image key of an item, removing the previous
// variants when the key changed.
func (s *ItemService) SetImage(ctx context.Context, a *models.Alcohol, key string) error {
	if err := s.items.SetItemImage(ctx, a.ID, key); err != nil {
		return fmt.Errorf("set alcohol image: %w", err)
	}
	if a.Image != "" && a.Image != key && s.images != nil {
		if err := s.images.DeleteImages(ctx, a.Image); err != nil {
			slog.Error("delete old alcohol images failed", "alcohol_id", a.ID, "error", err)
		}
	}
	a.Image = key
	return nil
}

// Delete removes an item together with its reviews, list entries, tag
// attachments, error reports and images. The steps are independent; the
// first failure stops the cascade without undoing earlier steps.
func (s *ItemService) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ids, err := s.reviews.ReviewIDsByAlcohol(ctx, id)
	if err != nil {
		return fmt.Errorf("list alcohol reviews: %w", err)
	}
	for _, rid := range ids {
		r, err := s.reviews.DeleteReview(ctx, rid)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if r == nil {
			continue
		}
		if err := s.agg.UserOnly(ctx, r.UserID, models.DeltaDeleted(r.Rating)); err != nil {
			return err
		}
	}

	if err := s.dependents.PurgeAlcohol(ctx, id); err != nil {
		return fmt.Errorf("purge alcohol references: %w", err)
	}
	ok, err := s.items.DeleteItem(ctx, id)
	if err != nil {
		return fmt.Errorf("delete alcohol: %w", err)
	}
	if !ok {
		return apperr.NotFound("alcohol")
	}

	if a.Image != "" && s.images != nil {
		if err := s.images.DeleteImages(ctx, a.Image); err != nil {
			slog.Error("delete alcohol images failed", "alcohol_id", id, "error", err)
		}
	}
	return nil
}

// check validates doc against the active validator and converts it into
// an item.
func (s *ItemService) check(ctx context.Context, doc map[string]any) (*models.Alcohol, int, error) {
	v, version, err := s.validators.Validator(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := schema.Validate(v, doc); err != nil {
		return nil, 0, apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}
	a, err := models.AlcoholFromDocument(schema.Coerce(v, doc))
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}
	if s.refs != nil {
		if err := s.refs.CheckRefs(ctx, a.CountryID, a.RegionID, a.FlavourIDs); err != nil {
			return nil, 0, err
		}
	}
	return a, version, nil
}

// checkUnique rejects a when another item already has its name, ignoring
// case, or any of its barcodes. self is the item being updated, or
// uuid.Nil on create. Unique indexes in both backends hold the same rule
// under concurrent writes.
func (s *ItemService) checkUnique(ctx context.Context, a *models.Alcohol, self uuid.UUID) error {
	other, err := s.items.FindItemByName(ctx, a.Name)
	if err != nil {
		return fmt.Errorf("check alcohol name: %w", err)
	}
	if other != nil && other.ID != self {
		return apperr.Conflict("an alcohol named %q already exists", a.Name)
	}
	for _, code := range a.Barcodes {
		other, err := s.items.FindItemByBarcode(ctx, code)
		if err != nil {
			return fmt.Errorf("check alcohol barcode: %w", err)
		}
		if other != nil && other.ID != self {
			return apperr.Conflict("barcode %s is already used by %q", code, other.Name)
		}
	}
	return nil
}
