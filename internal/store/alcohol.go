// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/models"
)

const alcoholColumns = `id, name, kind, volume, alcohol_by_volume, barcodes,
	description, manufacturer, country_id, region_id, flavour_ids, image,
	attributes, rate_count, rate_value, avg_rating, schema_version,
	created_at, updated_at`

// AlcoholStore persists catalogue items in PostgreSQL. Core fields have
// their own columns; category attributes are kept in a JSONB column.
type AlcoholStore struct {
	db *sql.DB
}

// NewAlcoholStore creates a new AlcoholStore with the given database connection.
func NewAlcoholStore(db *sql.DB) *AlcoholStore {
	return &AlcoholStore{db: db}
}

func scanAlcohol(row rowScanner) (*models.Alcohol, error) {
	a := &models.Alcohol{}
	var (
		volume, abv           sql.NullFloat64
		description, maker    sql.NullString
		country, region       uuid.NullUUID
		barcodes, flavs, attr []byte
	)
	if err := row.Scan(
		&a.ID, &a.Name, &a.Kind, &volume, &abv, &barcodes,
		&description, &maker, &country, &region, &flavs, &a.Image,
		&attr, &a.RateCount, &a.RateValue, &a.AvgRating, &a.SchemaVersion,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if volume.Valid {
		a.Volume = &volume.Float64
	}
	if abv.Valid {
		a.AlcoholByVolume = &abv.Float64
	}
	if description.Valid {
		a.Description = &description.String
	}
	if maker.Valid {
		a.Manufacturer = &maker.String
	}
	if country.Valid {
		a.CountryID = &country.UUID
	}
	if region.Valid {
		a.RegionID = &region.UUID
	}
	if err := decodeJSONB(barcodes, &a.Barcodes); err != nil {
		return nil, err
	}
	if err := decodeJSONB(flavs, &a.FlavourIDs); err != nil {
		return nil, err
	}
	attrs, err := decodeAttributes(attr)
	if err != nil {
		return nil, err
	}
	a.Attributes = attrs
	return a, nil
}

// decodeAttributes keeps integers integral so they validate as int/long
// again on the next update.
func decodeAttributes(raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(raw) == 0 {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	for k, v := range out {
		out[k] = models.NormalizeNumbers(v)
	}
	return out, nil
}

func alcoholArgs(a *models.Alcohol) ([]any, error) {
	barcodes, err := jsonb(a.Barcodes)
	if err != nil {
		return nil, err
	}
	flavs, err := jsonb(a.FlavourIDs)
	if err != nil {
		return nil, err
	}
	attrs := a.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	attr, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	return []any{
		a.ID, a.Name, a.Kind, a.Volume, a.AlcoholByVolume, barcodes,
		a.Description, a.Manufacturer, nullUUID(a.CountryID), nullUUID(a.RegionID), flavs,
		attr, a.SchemaVersion,
	}, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// CreateItem inserts a new alcohol and claims its barcodes. A name or
// barcode already held by another item is a Conflict.
func (s *AlcoholStore) CreateItem(ctx context.Context, a *models.Alcohol) error {
	args, err := alcoholArgs(a)
	if err != nil {
		return err
	}
	args = append(args, a.CreatedAt, a.UpdatedAt)
	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO alcohols (id, name, kind, volume, alcohol_by_volume, barcodes,
				description, manufacturer, country_id, region_id, flavour_ids,
				attributes, schema_version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`, args...); err != nil {
			return err
		}
		return claimBarcodes(ctx, tx, a.ID, a.Barcodes)
	})
	if err != nil {
		return alcoholWriteError("insert alcohol", a, err)
	}
	return nil
}

// UpdateItem overwrites the validated fields of a and re-claims its
// barcodes. The rating aggregate is left alone; it has its own writer.
func (s *AlcoholStore) UpdateItem(ctx context.Context, a *models.Alcohol) error {
	args, err := alcoholArgs(a)
	if err != nil {
		return err
	}
	args = append(args, a.UpdatedAt, a.Image)
	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE alcohols SET name = $2, kind = $3, volume = $4, alcohol_by_volume = $5,
				barcodes = $6, description = $7, manufacturer = $8, country_id = $9,
				region_id = $10, flavour_ids = $11, attributes = $12, schema_version = $13,
				updated_at = $14, image = $15
			WHERE id = $1
		`, args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("alcohol")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM alcohol_barcodes WHERE alcohol_id = $1`, a.ID); err != nil {
			return err
		}
		return claimBarcodes(ctx, tx, a.ID, a.Barcodes)
	})
	if err != nil {
		return alcoholWriteError("update alcohol", a, err)
	}
	return nil
}

// claimBarcodes records each distinct code as belonging to id.
func claimBarcodes(ctx context.Context, tx *sql.Tx, id uuid.UUID, codes []string) error {
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alcohol_barcodes (barcode, alcohol_id) VALUES ($1, $2)`, code, id); err != nil {
			return err
		}
	}
	return nil
}

// alcoholWriteError turns unique violations into Conflicts naming the
// clashing field.
func alcoholWriteError(op string, a *models.Alcohol, err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	switch uniqueConstraint(err) {
	case "":
		return fmt.Errorf("%s: %w", op, err)
	case "idx_alcohols_name_unique":
		return apperr.Conflict("an alcohol named %q already exists", a.Name)
	case "alcohol_barcodes_pkey":
		return apperr.Conflict("one of the barcodes is already used by another alcohol")
	default:
		return apperr.Conflict("alcohol %s already exists", a.ID)
	}
}

// FindItemByName retrieves the alcohol whose name matches case-insensitively.
// Returns nil if not found.
func (s *AlcoholStore) FindItemByName(ctx context.Context, name string) (*models.Alcohol, error) {
	a, err := scanAlcohol(s.db.QueryRowContext(ctx,
		`SELECT `+alcoholColumns+` FROM alcohols WHERE LOWER(name) = LOWER($1)`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find alcohol by name: %w", err)
	}
	return a, nil
}

// FindItem retrieves an alcohol with its tags. Returns nil if not found.
func (s *AlcoholStore) FindItem(ctx context.Context, id uuid.UUID) (*models.Alcohol, error) {
	a, err := scanAlcohol(s.db.QueryRowContext(ctx,
		`SELECT `+alcoholColumns+` FROM alcohols WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find alcohol: %w", err)
	}
	if err := s.attachTags(ctx, []*models.Alcohol{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// FindItemByBarcode retrieves the alcohol carrying code. Returns nil if
// not found.
func (s *AlcoholStore) FindItemByBarcode(ctx context.Context, code string) (*models.Alcohol, error) {
	a, err := scanAlcohol(s.db.QueryRowContext(ctx, `
		SELECT `+alcoholColumns+` FROM alcohols
		WHERE id = (SELECT alcohol_id FROM alcohol_barcodes WHERE barcode = $1)
	`, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find alcohol by barcode: %w", err)
	}
	if err := s.attachTags(ctx, []*models.Alcohol{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// ListItems returns a page of alcohols matching f, ordered by name, plus
// the total number of matches.
func (s *AlcoholStore) ListItems(ctx context.Context, f models.AlcoholFilter) ([]*models.Alcohol, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.Query != "" {
		add("name ILIKE '%%' || $%d || '%%'", escapeLike(f.Query))
	}
	if f.CountryID != nil {
		add("country_id = $%d", *f.CountryID)
	}
	if f.TagID != nil {
		add("EXISTS (SELECT 1 FROM alcohol_tags t WHERE t.alcohol_id = alcohols.id AND t.tag_id = $%d)", *f.TagID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alcohols`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count alcohols: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT `+alcoholColumns+` FROM alcohols%s ORDER BY name ASC, id ASC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list alcohols: %w", err)
	}
	defer rows.Close()

	var items []*models.Alcohol
	for rows.Next() {
		a, err := scanAlcohol(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan alcohol: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// attachTags loads the tags of every item in one query.
func (s *AlcoholStore) attachTags(ctx context.Context, items []*models.Alcohol) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Alcohol, len(items))
	ids := make([]string, 0, len(items))
	for _, a := range items {
		byID[a.ID] = a
		ids = append(ids, a.ID.String())
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT at.alcohol_id, t.id, t.name
		FROM alcohol_tags at JOIN tags t ON t.id = at.tag_id
		WHERE at.alcohol_id = ANY($1::uuid[])
		ORDER BY t.name ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("load alcohol tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			alcoholID uuid.UUID
			t         models.Tag
		)
		if err := rows.Scan(&alcoholID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("scan alcohol tag: %w", err)
		}
		if a := byID[alcoholID]; a != nil {
			a.Tags = append(a.Tags, t)
		}
	}
	return rows.Err()
}

// SetItemImage records the object key prefix of the item's images.
func (s *AlcoholStore) SetItemImage(ctx context.Context, id uuid.UUID, key string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alcohols SET image = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("set alcohol image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("alcohol")
	}
	return nil
}

// DeleteItem removes an alcohol. Returns false if no row was deleted.
func (s *AlcoholStore) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alcohols WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete alcohol: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ApplyRating shifts the item's rating aggregate by d in one statement.
// Returns nil if the item does not exist.
func (s *AlcoholStore) ApplyRating(ctx context.Context, id uuid.UUID, d models.RatingDelta) (*models.RatingStats, error) {
	return applyRating(ctx, s.db, "alcohols", id, d)
}

var _ catalog.ItemBackend = (*AlcoholStore)(nil)
