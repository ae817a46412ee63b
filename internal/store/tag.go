// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/models"
)

// TagStore handles tags and their attachment to alcohols.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore with the given database connection.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// List returns all tags ordered by name.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FindByID retrieves a tag. Returns nil if not found.
func (s *TagStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return t, nil
}

// Create inserts a tag. A duplicate name is a conflict.
func (s *TagStore) Create(ctx context.Context, name string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tags (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&t.ID, &t.Name)
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("tag %q already exists", name)
	}
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// Delete removes a tag and its attachments. Returns false if not found.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Attach tags an alcohol. Returns false if it already carried the tag.
func (s *TagStore) Attach(ctx context.Context, alcoholID, tagID, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alcohol_tags (alcohol_id, tag_id, user_id) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, alcoholID, tagID, userID)
	if err != nil {
		return false, fmt.Errorf("attach tag: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Detach removes a tag from an alcohol. Returns false if it was not attached.
func (s *TagStore) Detach(ctx context.Context, alcoholID, tagID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM alcohol_tags WHERE alcohol_id = $1 AND tag_id = $2`, alcoholID, tagID)
	if err != nil {
		return false, fmt.Errorf("detach tag: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// TagsFor returns the tags attached to each of the given alcohols. The
// document backend uses it since tags always live in PostgreSQL.
func (s *TagStore) TagsFor(ctx context.Context, alcoholIDs ...uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	out := make(map[uuid.UUID][]models.Tag, len(alcoholIDs))
	if len(alcoholIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(alcoholIDs))
	for i, id := range alcoholIDs {
		ids[i] = id.String()
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT at.alcohol_id, t.id, t.name FROM alcohol_tags at JOIN tags t ON t.id = at.tag_id
		WHERE at.alcohol_id = ANY($1::uuid[]) ORDER BY t.name ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("tags for alcohols: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			alcoholID uuid.UUID
			t         models.Tag
		)
		if err := rows.Scan(&alcoholID, &t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out[alcoholID] = append(out[alcoholID], t)
	}
	return out, rows.Err()
}

// AlcoholIDs lists the alcohols carrying a tag.
func (s *TagStore) AlcoholIDs(ctx context.Context, tagID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alcohol_id FROM alcohol_tags WHERE tag_id = $1`, tagID)
	if err != nil {
		return nil, fmt.Errorf("alcohol ids by tag: %w", err)
	}
	return collectIDs(rows)
}
