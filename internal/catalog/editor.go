// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog/schema"
	"alcoholdb/internal/metrics"
	"alcoholdb/internal/models"
)

// Editor applies category edits and rebuilds the item validator after
// each one. An edit whose validator cannot be installed is undone: inside
// a transaction when the backend supports it, otherwise by restoring the
// pre-edit snapshot.
type Editor struct {
	backend  CategoryBackend
	onChange []func(context.Context)
}

// NewEditor returns an Editor over backend.
func NewEditor(backend CategoryBackend) *Editor {
	return &Editor{backend: backend}
}

// OnChange registers fn to run after every successful edit.
func (e *Editor) OnChange(fn func(context.Context)) {
	e.onChange = append(e.onChange, fn)
}

// List returns every category, core included, ordered by title.
func (e *Editor) List(ctx context.Context) ([]*models.Category, error) {
	cats, err := e.backend.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	slices.SortFunc(cats, func(a, b *models.Category) int { return strings.Compare(a.Title, b.Title) })
	return cats, nil
}

// Get returns one category.
func (e *Editor) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := e.backend.FindCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound("category")
	}
	return c, nil
}

// Validator returns the active validator, installing one first if the
// backend has none.
func (e *Editor) Validator(ctx context.Context) (*schema.Validator, int, error) {
	v, version, err := e.backend.CurrentValidator(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load validator: %w", err)
	}
	if v != nil {
		return v, version, nil
	}
	if err := e.RebuildValidator(ctx); err != nil {
		return nil, 0, err
	}
	return e.backend.CurrentValidator(ctx)
}

// RebuildValidator compiles and installs the validator from the stored
// categories without editing anything.
func (e *Editor) RebuildValidator(ctx context.Context) error {
	return e.rebuild(ctx, e.backend)
}

// CreateCategory stores a new category. properties must contain kind with
// an enum of exactly [title]; every other property becomes required.
func (e *Editor) CreateCategory(ctx context.Context, title string, properties map[string]models.PropertyDef) (*models.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if title == models.CoreTitle {
		return nil, apperr.Conflict("category %q already exists", title)
	}
	kind, ok := properties[models.KindField]
	if !ok || len(kind.Enum) != 1 || kind.Enum[0] != title {
		return nil, apperr.Validation("properties.kind.enum must equal [%q]", title)
	}

	existing, err := e.backend.FindCategoryByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("category %q already exists", title)
	}

	now := time.Now().UTC()
	c := &models.Category{
		ID:         uuid.New(),
		Title:      title,
		Properties: make(map[string]models.PropertyDef, len(properties)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for k, v := range properties {
		c.Properties[k] = v.Clone()
		if k != models.KindField {
			c.Required = append(c.Required, k)
		}
	}
	slices.Sort(c.Required)

	err = e.apply(ctx,
		func(b CategoryBackend) error { return b.InsertCategory(ctx, c) },
		func(b CategoryBackend) error { return b.DeleteCategory(ctx, c.ID) },
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddProperties merges new properties into a category and appends their
// keys to required. New properties must allow null so that existing items
// stay valid.
func (e *Editor) AddProperties(ctx context.Context, id uuid.UUID, properties map[string]models.PropertyDef) (*models.Category, error) {
	if len(properties) == 0 {
		return nil, apperr.Validation("no properties given")
	}
	keys := slices.Sorted(maps.Keys(properties))
	return e.editCategory(ctx, id, func(c *models.Category) error {
		var exist []string
		for _, k := range keys {
			if _, ok := c.Properties[k]; ok {
				exist = append(exist, k)
			}
		}
		if len(exist) > 0 {
			return apperr.Conflict("properties already exist: %s", strings.Join(exist, ", "))
		}
		for _, k := range keys {
			if !properties[k].Nullable() {
				return apperr.Validation("property %q must allow null", k)
			}
		}
		for _, k := range keys {
			c.Properties[k] = properties[k].Clone()
			c.Required = append(c.Required, k)
		}
		return nil
	})
}

// RemoveProperties deletes properties from a category and strips the
// fields from its items. Stripping happens after the validator is
// installed and is not undone.
func (e *Editor) RemoveProperties(ctx context.Context, id uuid.UUID, keys []string) (*models.Category, error) {
	if len(keys) == 0 {
		return nil, apperr.Validation("no properties given")
	}
	if slices.Contains(keys, models.KindField) {
		return nil, apperr.Validation("property %q cannot be removed", models.KindField)
	}
	c, err := e.editCategory(ctx, id, func(c *models.Category) error {
		var missing []string
		for _, k := range keys {
			if _, ok := c.Properties[k]; !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return apperr.Validation("properties missing: %s", strings.Join(missing, ", "))
		}
		for _, k := range keys {
			delete(c.Properties, k)
		}
		c.Required = slices.DeleteFunc(c.Required, func(r string) bool { return slices.Contains(keys, r) })
		if len(c.Required) == 0 {
			c.Required = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	n, err := e.backend.StripItemFields(ctx, c.Title, keys)
	if err != nil {
		slog.Error("strip item fields failed", "category", c.Title, "fields", keys, "error", err)
	} else if n > 0 {
		slog.Info("stripped item fields", "category", c.Title, "fields", keys, "items", n)
	}
	return c, nil
}

// editCategory loads category id, lets change modify it and saves the
// result. On a transactional backend the load runs inside the transaction
// and, when the backend is a CategoryLocker, holds the row until commit so
// concurrent edits of one category apply one after the other.
func (e *Editor) editCategory(ctx context.Context, id uuid.UUID, change func(*models.Category) error) (*models.Category, error) {
	var edited, snapshot *models.Category
	err := e.apply(ctx,
		func(b CategoryBackend) error {
			c, err := loadEditable(ctx, b, id)
			if err != nil {
				return err
			}
			snapshot = c.Clone()
			if err := change(c); err != nil {
				return err
			}
			c.UpdatedAt = time.Now().UTC()
			edited = c
			return b.SaveCategory(ctx, c)
		},
		func(b CategoryBackend) error { return b.SaveCategory(ctx, snapshot) },
	)
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// DeleteCategory removes a category that no item uses.
func (e *Editor) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	c, err := e.editable(ctx, id)
	if err != nil {
		return err
	}
	n, err := e.backend.CountItemsOfKind(ctx, c.Title)
	if err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	if n > 0 {
		return apperr.Conflict("category %q is used by %d items", c.Title, n)
	}
	return e.apply(ctx,
		func(b CategoryBackend) error { return b.DeleteCategory(ctx, c.ID) },
		func(b CategoryBackend) error { return b.InsertCategory(ctx, c) },
	)
}

func (e *Editor) editable(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return loadEditable(ctx, e.backend, id)
}

func loadEditable(ctx context.Context, b CategoryBackend, id uuid.UUID) (*models.Category, error) {
	find := b.FindCategory
	if l, ok := b.(CategoryLocker); ok {
		find = l.FindCategoryForUpdate
	}
	c, err := find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound("category")
	}
	if c.IsCore() {
		return nil, apperr.Validation("the core category cannot be modified")
	}
	return c, nil
}

// apply runs mutate and rebuilds the validator. When the rebuild fails the
// edit is undone and the failure is reported as a validation error. Without
// a transaction the validator is rebuilt again after the undo, since a
// failed install may already have changed it.
func (e *Editor) apply(ctx context.Context, mutate, undo func(CategoryBackend) error) error {
	var rebuildErr error
	if tx, ok := e.backend.(TxBackend); ok {
		err := tx.WithinTx(ctx, func(b CategoryBackend) error {
			if err := mutate(b); err != nil {
				return err
			}
			rebuildErr = e.rebuild(ctx, b)
			return rebuildErr
		})
		if err != nil {
			if rebuildErr != nil {
				metrics.CategoryRollbacks.Inc()
			}
			return err
		}
	} else {
		if err := mutate(e.backend); err != nil {
			return err
		}
		if rebuildErr = e.rebuild(ctx, e.backend); rebuildErr != nil {
			metrics.CategoryRollbacks.Inc()
			if err := undo(e.backend); err != nil {
				slog.Error("category rollback failed", "error", err)
			} else if err := e.rebuild(ctx, e.backend); err != nil {
				slog.Error("validator rebuild after rollback failed", "error", err)
			}
			return rebuildErr
		}
	}

	for _, fn := range e.onChange {
		fn(ctx)
	}
	return nil
}

func (e *Editor) rebuild(ctx context.Context, b CategoryBackend) error {
	cats, err := b.ListCategories(ctx)
	if err != nil {
		metrics.RecordValidatorRebuild("error")
		return fmt.Errorf("rebuild validator: %w", err)
	}
	v, err := schema.Compile(cats)
	if err != nil {
		metrics.RecordValidatorRebuild("rejected")
		return apperr.Wrap(apperr.KindValidation, "validator could not be compiled", err)
	}
	if err := schema.Check(v); err != nil {
		metrics.RecordValidatorRebuild("rejected")
		return apperr.Wrap(apperr.KindValidation, "validator rejected: "+err.Error(), err)
	}
	version, err := b.InstallValidator(ctx, v)
	if err != nil {
		metrics.RecordValidatorRebuild("rejected")
		return apperr.Wrap(apperr.KindValidation, "validator could not be installed", err)
	}
	metrics.RecordValidatorRebuild("ok")
	slog.Info("catalogue validator installed", "version", version, "categories", len(cats))
	return nil
}
