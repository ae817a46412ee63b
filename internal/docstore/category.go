// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/catalog/schema"
	"alcoholdb/internal/models"
)

// validationLevel applies the validator to inserts and to updates of
// documents that already pass it. Items written under an older validator
// stay editable until they are touched.
const validationLevel = "moderate"

// codeNamespaceNotFound is returned by collMod when the collection does
// not exist yet.
const codeNamespaceNotFound = 26

type categoryDoc struct {
	ID         string                        `bson:"_id"`
	Title      string                        `bson:"title"`
	Properties map[string]models.PropertyDef `bson:"properties"`
	Required   []string                      `bson:"required,omitempty"`
	CreatedAt  time.Time                     `bson:"created_at"`
	UpdatedAt  time.Time                     `bson:"updated_at"`
}

func fromCategory(c *models.Category) categoryDoc {
	return categoryDoc{
		ID:         c.ID.String(),
		Title:      c.Title,
		Properties: c.Properties,
		Required:   c.Required,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (d categoryDoc) category() (*models.Category, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("category id %q: %w", d.ID, err)
	}
	c := &models.Category{
		ID:         id,
		Title:      d.Title,
		Properties: d.Properties,
		Required:   d.Required,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if len(c.Required) == 0 {
		c.Required = nil
	}
	return c, nil
}

type schemaDoc struct {
	Version     int              `bson:"_id"`
	Validator   schema.Validator `bson:"validator"`
	InstalledAt time.Time        `bson:"installed_at"`
}

// CategoryStore persists categories in MongoDB and installs the compiled
// validator on the alcohols collection. It has no transactional mode; the
// editor restores its snapshot when a rebuild fails.
type CategoryStore struct {
	db *mongo.Database
}

// NewCategoryStore creates a CategoryStore over db.
func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) categories() *mongo.Collection {
	return s.db.Collection(CategoriesCollection)
}

// ListCategories returns every category ordered by title.
func (s *CategoryStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	cur, err := s.categories().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	out := make([]*models.Category, 0, len(docs))
	for _, d := range docs {
		c, err := d.category()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *CategoryStore) findOne(ctx context.Context, filter bson.M) (*models.Category, error) {
	var d categoryDoc
	err := s.categories().FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.category()
}

// FindCategory retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.findOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

// FindCategoryByTitle retrieves a category by title. Returns nil if not found.
func (s *CategoryStore) FindCategoryByTitle(ctx context.Context, title string) (*models.Category, error) {
	c, err := s.findOne(ctx, bson.M{"title": title})
	if err != nil {
		return nil, fmt.Errorf("find category by title: %w", err)
	}
	return c, nil
}

// InsertCategory stores a new category. A duplicate title is a conflict.
func (s *CategoryStore) InsertCategory(ctx context.Context, c *models.Category) error {
	_, err := s.categories().InsertOne(ctx, fromCategory(c))
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("category %q already exists", c.Title)
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// SaveCategory overwrites the stored category with c.
func (s *CategoryStore) SaveCategory(ctx context.Context, c *models.Category) error {
	if _, err := s.categories().ReplaceOne(ctx, bson.M{"_id": c.ID.String()}, fromCategory(c)); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category by ID.
func (s *CategoryStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories().DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// InstallValidator attaches v to the alcohols collection as its
// $jsonSchema and records it as the newest version. The collection is
// created on first use.
func (s *CategoryStore) InstallValidator(ctx context.Context, v *schema.Validator) (int, error) {
	jsonSchema := bson.M{"$jsonSchema": v}
	err := s.db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: AlcoholsCollection},
		{Key: "validator", Value: jsonSchema},
		{Key: "validationLevel", Value: validationLevel},
	}).Err()
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceNotFound {
		err = s.db.CreateCollection(ctx, AlcoholsCollection, options.CreateCollection().
			SetValidator(jsonSchema).
			SetValidationLevel(validationLevel))
	}
	if err != nil {
		return 0, fmt.Errorf("install validator: %w", err)
	}

	version, err := nextSequence(ctx, s.db, SchemasCollection)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.Collection(SchemasCollection).InsertOne(ctx, schemaDoc{
		Version:     version,
		Validator:   *v,
		InstalledAt: time.Now().UTC(),
	}); err != nil {
		return 0, fmt.Errorf("record validator: %w", err)
	}
	return version, nil
}

// CurrentValidator returns the newest recorded validator, or nil before
// the first installation.
func (s *CategoryStore) CurrentValidator(ctx context.Context) (*schema.Validator, int, error) {
	var d schemaDoc
	err := s.db.Collection(SchemasCollection).FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("current validator: %w", err)
	}
	return &d.Validator, d.Version, nil
}

// CountItemsOfKind counts the alcohols belonging to a category.
func (s *CategoryStore) CountItemsOfKind(ctx context.Context, kind string) (int, error) {
	n, err := s.db.Collection(AlcoholsCollection).CountDocuments(ctx, bson.M{models.FieldKind: kind})
	if err != nil {
		return 0, fmt.Errorf("count items of kind: %w", err)
	}
	return int(n), nil
}

// StripItemFields unsets fields on every item of kind.
func (s *CategoryStore) StripItemFields(ctx context.Context, kind string, fields []string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	unset := bson.M{}
	exists := bson.A{}
	for _, f := range fields {
		unset[f] = ""
		exists = append(exists, bson.M{f: bson.M{"$exists": true}})
	}
	res, err := s.db.Collection(AlcoholsCollection).UpdateMany(ctx,
		bson.M{models.FieldKind: kind, "$or": exists},
		bson.M{"$unset": unset, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("strip item fields: %w", err)
	}
	return res.ModifiedCount, nil
}

var _ catalog.CategoryBackend = (*CategoryStore)(nil)
