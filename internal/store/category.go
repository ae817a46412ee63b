// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/catalog/schema"
	"alcoholdb/internal/models"
)

// CategoryStore persists categories and the versioned item validator in
// PostgreSQL. The validator lives in catalogue_schemas; the newest row is
// the active one and is enforced by the application on every item write.
type CategoryStore struct {
	db *sql.DB
	q  querier
}

// NewCategoryStore creates a new CategoryStore with the given database connection.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db, q: db}
}

// WithinTx runs fn against a CategoryStore bound to a single transaction,
// so a category edit and the validator it produces commit together.
func (s *CategoryStore) WithinTx(ctx context.Context, fn func(catalog.CategoryBackend) error) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&CategoryStore{db: s.db, q: tx})
	})
}

func scanCategory(row rowScanner) (*models.Category, error) {
	c := &models.Category{}
	var props, required []byte
	if err := row.Scan(&c.ID, &c.Title, &props, &required, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSONB(props, &c.Properties); err != nil {
		return nil, err
	}
	if err := decodeJSONB(required, &c.Required); err != nil {
		return nil, err
	}
	if len(c.Required) == 0 {
		c.Required = nil
	}
	return c, nil
}

// ListCategories returns every category ordered by title.
func (s *CategoryStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, title, properties, required, created_at, updated_at
		FROM categories ORDER BY title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// FindCategory retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx, `
		SELECT id, title, properties, required, created_at, updated_at
		FROM categories WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

// FindCategoryForUpdate retrieves a category and locks its row for the rest
// of the transaction. Outside WithinTx the lock is released immediately.
// Returns nil if not found.
func (s *CategoryStore) FindCategoryForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx, `
		SELECT id, title, properties, required, created_at, updated_at
		FROM categories WHERE id = $1 FOR UPDATE
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category for update: %w", err)
	}
	return c, nil
}

// FindCategoryByTitle retrieves a category by its title. Returns nil if not found.
func (s *CategoryStore) FindCategoryByTitle(ctx context.Context, title string) (*models.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx, `
		SELECT id, title, properties, required, created_at, updated_at
		FROM categories WHERE title = $1
	`, title))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by title: %w", err)
	}
	return c, nil
}

func encodeCategory(c *models.Category) (props, required any, err error) {
	props, err = json.Marshal(c.Properties)
	if err != nil {
		return nil, nil, fmt.Errorf("encode properties: %w", err)
	}
	required, err = jsonb(c.Required)
	if err != nil {
		return nil, nil, err
	}
	return props, required, nil
}

// InsertCategory stores a new category. A duplicate title is a conflict.
func (s *CategoryStore) InsertCategory(ctx context.Context, c *models.Category) error {
	props, required, err := encodeCategory(c)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO categories (id, title, properties, required, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Title, props, required, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("category %q already exists", c.Title)
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// SaveCategory overwrites the properties and required list of c.
func (s *CategoryStore) SaveCategory(ctx context.Context, c *models.Category) error {
	props, required, err := encodeCategory(c)
	if err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `
		UPDATE categories SET properties = $1, required = $2, updated_at = $3
		WHERE id = $4
	`, props, required, c.UpdatedAt, c.ID); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category by ID.
func (s *CategoryStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// InstallValidator appends v as the newest validator version.
func (s *CategoryStore) InstallValidator(ctx context.Context, v *schema.Validator) (int, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode validator: %w", err)
	}
	var version int
	if err := s.q.QueryRowContext(ctx,
		`INSERT INTO catalogue_schemas (validator) VALUES ($1) RETURNING version`, raw,
	).Scan(&version); err != nil {
		return 0, fmt.Errorf("install validator: %w", err)
	}
	return version, nil
}

// CurrentValidator returns the newest validator, or nil before the first
// installation.
func (s *CategoryStore) CurrentValidator(ctx context.Context) (*schema.Validator, int, error) {
	var (
		raw     []byte
		version int
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT validator, version FROM catalogue_schemas
		ORDER BY version DESC LIMIT 1
	`).Scan(&raw, &version)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("current validator: %w", err)
	}
	v := &schema.Validator{}
	if err := decodeJSONB(raw, v); err != nil {
		return nil, 0, err
	}
	return v, version, nil
}

// CountItemsOfKind counts the alcohols belonging to a category.
func (s *CategoryStore) CountItemsOfKind(ctx context.Context, kind string) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alcohols WHERE kind = $1`, kind,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items of kind: %w", err)
	}
	return n, nil
}

// StripItemFields removes attribute keys from every item of kind.
func (s *CategoryStore) StripItemFields(ctx context.Context, kind string, fields []string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE alcohols SET attributes = attributes - $2::text[], updated_at = NOW()
		WHERE kind = $1 AND attributes ?| $2::text[]
	`, kind, fields)
	if err != nil {
		return 0, fmt.Errorf("strip item fields: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

var (
	_ catalog.CategoryBackend = (*CategoryStore)(nil)
	_ catalog.TxBackend       = (*CategoryStore)(nil)
	_ catalog.CategoryLocker  = (*CategoryStore)(nil)
)
