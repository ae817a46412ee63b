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
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/models"
)

// TaxonomyStore handles countries, regions and flavours, and verifies the
// references items make to them.
type TaxonomyStore struct {
	db *sql.DB
}

// NewTaxonomyStore creates a new TaxonomyStore with the given database connection.
func NewTaxonomyStore(db *sql.DB) *TaxonomyStore {
	return &TaxonomyStore{db: db}
}

// ListCountries returns all countries ordered by name.
func (s *TaxonomyStore) ListCountries(ctx context.Context) ([]models.Country, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM countries ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	out := []models.Country{}
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCountry inserts a country. A duplicate name is a conflict.
func (s *TaxonomyStore) CreateCountry(ctx context.Context, name string) (*models.Country, error) {
	c := &models.Country{}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO countries (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&c.ID, &c.Name)
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("country %q already exists", name)
	}
	if err != nil {
		return nil, fmt.Errorf("create country: %w", err)
	}
	return c, nil
}

// RenameCountry changes a country's name. Returns nil if not found.
func (s *TaxonomyStore) RenameCountry(ctx context.Context, id uuid.UUID, name string) (*models.Country, error) {
	c := &models.Country{}
	err := s.db.QueryRowContext(ctx,
		`UPDATE countries SET name = $1 WHERE id = $2 RETURNING id, name`, name, id,
	).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("country %q already exists", name)
	}
	if err != nil {
		return nil, fmt.Errorf("rename country: %w", err)
	}
	return c, nil
}

// DeleteCountry removes a country and its regions. Returns false if not found.
func (s *TaxonomyStore) DeleteCountry(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.deleteByID(ctx, "countries", id)
}

// ListRegions returns the regions, optionally restricted to one country.
func (s *TaxonomyStore) ListRegions(ctx context.Context, countryID *uuid.UUID) ([]models.Region, error) {
	query := `SELECT id, country_id, name FROM regions ORDER BY name ASC`
	var args []any
	if countryID != nil {
		query = `SELECT id, country_id, name FROM regions WHERE country_id = $1 ORDER BY name ASC`
		args = append(args, *countryID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	out := []models.Region{}
	for rows.Next() {
		var r models.Region
		if err := rows.Scan(&r.ID, &r.CountryID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateRegion inserts a region under a country. An unknown country is a
// validation error; a duplicate name within the country is a conflict.
func (s *TaxonomyStore) CreateRegion(ctx context.Context, countryID uuid.UUID, name string) (*models.Region, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM countries WHERE id = $1)`, countryID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check country: %w", err)
	}
	if !exists {
		return nil, apperr.Validation("country %s does not exist", countryID)
	}

	r := &models.Region{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO regions (country_id, name) VALUES ($1, $2)
		RETURNING id, country_id, name
	`, countryID, name).Scan(&r.ID, &r.CountryID, &r.Name)
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("region %q already exists in this country", name)
	}
	if err != nil {
		return nil, fmt.Errorf("create region: %w", err)
	}
	return r, nil
}

// RenameRegion changes a region's name. Returns nil if not found.
func (s *TaxonomyStore) RenameRegion(ctx context.Context, id uuid.UUID, name string) (*models.Region, error) {
	r := &models.Region{}
	err := s.db.QueryRowContext(ctx,
		`UPDATE regions SET name = $1 WHERE id = $2 RETURNING id, country_id, name`, name, id,
	).Scan(&r.ID, &r.CountryID, &r.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("region %q already exists in this country", name)
	}
	if err != nil {
		return nil, fmt.Errorf("rename region: %w", err)
	}
	return r, nil
}

// DeleteRegion removes a region. Returns false if not found.
func (s *TaxonomyStore) DeleteRegion(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.deleteByID(ctx, "regions", id)
}

// ListFlavours returns all flavours ordered by name.
func (s *TaxonomyStore) ListFlavours(ctx context.Context) ([]models.Flavour, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM flavours ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list flavours: %w", err)
	}
	defer rows.Close()

	out := []models.Flavour{}
	for rows.Next() {
		var f models.Flavour
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("scan flavour: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CreateFlavour inserts a flavour. A duplicate name is a conflict.
func (s *TaxonomyStore) CreateFlavour(ctx context.Context, name string) (*models.Flavour, error) {
	f := &models.Flavour{}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO flavours (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&f.ID, &f.Name)
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("flavour %q already exists", name)
	}
	if err != nil {
		return nil, fmt.Errorf("create flavour: %w", err)
	}
	return f, nil
}

// RenameFlavour changes a flavour's name. Returns nil if not found.
func (s *TaxonomyStore) RenameFlavour(ctx context.Context, id uuid.UUID, name string) (*models.Flavour, error) {
	f := &models.Flavour{}
	err := s.db.QueryRowContext(ctx,
		`UPDATE flavours SET name = $1 WHERE id = $2 RETURNING id, name`, name, id,
	).Scan(&f.ID, &f.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("flavour %q already exists", name)
	}
	if err != nil {
		return nil, fmt.Errorf("rename flavour: %w", err)
	}
	return f, nil
}

// DeleteFlavour removes a flavour. Returns false if not found.
func (s *TaxonomyStore) DeleteFlavour(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.deleteByID(ctx, "flavours", id)
}

func (s *TaxonomyStore) deleteByID(ctx context.Context, table string, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CheckRefs returns a validation error naming the first reference that
// does not exist. A region must also belong to the given country.
func (s *TaxonomyStore) CheckRefs(ctx context.Context, countryID, regionID *uuid.UUID, flavourIDs []uuid.UUID) error {
	if countryID != nil {
		var ok bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM countries WHERE id = $1)`, *countryID).Scan(&ok); err != nil {
			return fmt.Errorf("check country ref: %w", err)
		}
		if !ok {
			return apperr.Validation("country_id: country %s does not exist", *countryID)
		}
	}
	if regionID != nil {
		var owner uuid.UUID
		err := s.db.QueryRowContext(ctx,
			`SELECT country_id FROM regions WHERE id = $1`, *regionID).Scan(&owner)
		if err == sql.ErrNoRows {
			return apperr.Validation("region_id: region %s does not exist", *regionID)
		}
		if err != nil {
			return fmt.Errorf("check region ref: %w", err)
		}
		if countryID != nil && owner != *countryID {
			return apperr.Validation("region_id: region %s is not in country %s", *regionID, *countryID)
		}
	}
	for _, id := range flavourIDs {
		var ok bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM flavours WHERE id = $1)`, id).Scan(&ok); err != nil {
			return fmt.Errorf("check flavour ref: %w", err)
		}
		if !ok {
			return apperr.Validation("flavour_ids: flavour %s does not exist", id)
		}
	}
	return nil
}

var _ catalog.RefChecker = (*TaxonomyStore)(nil)
