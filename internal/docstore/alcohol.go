// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/models"
)

// TagSource resolves tag attachments, which are kept in PostgreSQL even
// when items live here.
type TagSource interface {
	TagsFor(ctx context.Context, alcoholIDs ...uuid.UUID) (map[uuid.UUID][]models.Tag, error)
	AlcoholIDs(ctx context.Context, tagID uuid.UUID) ([]uuid.UUID, error)
}

// AlcoholStore persists catalogue items as flat documents: core fields,
// attributes and server-managed fields side by side, keyed by the item's
// UUID string.
type AlcoholStore struct {
	coll *mongo.Collection
	tags TagSource
}

// NewAlcoholStore creates an AlcoholStore over db. tags may be nil, in
// which case items carry no tags and the tag filter matches nothing.
func NewAlcoholStore(db *mongo.Database, tags TagSource) *AlcoholStore {
	return &AlcoholStore{coll: db.Collection(AlcoholsCollection), tags: tags}
}

func toBSON(a *models.Alcohol) bson.M {
	doc := bson.M(a.Document())
	doc["_id"] = a.ID.String()
	doc["image"] = a.Image
	doc["rate_count"] = a.RateCount
	doc["rate_value"] = a.RateValue
	doc["avg_rating"] = a.AvgRating
	doc["schema_version"] = a.SchemaVersion
	doc["created_at"] = a.CreatedAt
	doc["updated_at"] = a.UpdatedAt
	return doc
}

func fromBSON(m bson.M) (*models.Alcohol, error) {
	doc := make(map[string]any, len(m))
	for k, v := range m {
		doc[k] = plain(v)
	}
	rawID, _ := doc["_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("alcohol id %q: %w", rawID, err)
	}
	delete(doc, "_id")

	a, err := models.AlcoholFromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("decode alcohol %s: %w", id, err)
	}
	a.ID = id
	a.Image, _ = doc["image"].(string)
	a.RateCount = toInt(doc["rate_count"])
	a.RateValue = toInt(doc["rate_value"])
	a.AvgRating, _ = models.ToFloat(doc["avg_rating"])
	a.SchemaVersion = toInt(doc["schema_version"])
	a.CreatedAt, _ = doc["created_at"].(time.Time)
	a.UpdatedAt, _ = doc["updated_at"].(time.Time)
	return a, nil
}

// plain converts driver-specific decoded values into the plain Go values
// the catalogue works with.
func plain(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Null:
		return nil
	}
	return v
}

func toInt(v any) int {
	f, _ := models.ToFloat(v)
	return int(f)
}

// CreateItem inserts a new alcohol.
func (s *AlcoholStore) CreateItem(ctx context.Context, a *models.Alcohol) error {
	_, err := s.coll.InsertOne(ctx, toBSON(a))
	if mongo.IsDuplicateKeyError(err) {
		return duplicateAlcohol(a, err)
	}
	if err != nil {
		return fmt.Errorf("insert alcohol: %w", err)
	}
	return nil
}

// UpdateItem sets every validated field of a. The rating aggregate is not
// written so concurrent rating updates are never overwritten.
func (s *AlcoholStore) UpdateItem(ctx context.Context, a *models.Alcohol) error {
	set := bson.M(a.Document())
	set["image"] = a.Image
	set["schema_version"] = a.SchemaVersion
	set["updated_at"] = a.UpdatedAt
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": a.ID.String()}, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return duplicateAlcohol(a, err)
	}
	if err != nil {
		return fmt.Errorf("update alcohol: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("alcohol")
	}
	return nil
}

// duplicateAlcohol names the unique index a write collided with.
func duplicateAlcohol(a *models.Alcohol, err error) error {
	switch msg := err.Error(); {
	case strings.Contains(msg, nameIndex):
		return apperr.Conflict("an alcohol named %q already exists", a.Name)
	case strings.Contains(msg, barcodesIndex):
		return apperr.Conflict("one of the barcodes is already used by another alcohol")
	}
	return apperr.Conflict("alcohol %s already exists", a.ID)
}

func (s *AlcoholStore) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Alcohol, error) {
	var m bson.M
	err := s.coll.FindOne(ctx, filter, opts...).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a, err := fromBSON(m)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, []*models.Alcohol{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// FindItem retrieves an alcohol by ID. Returns nil if not found.
func (s *AlcoholStore) FindItem(ctx context.Context, id uuid.UUID) (*models.Alcohol, error) {
	a, err := s.findOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("find alcohol: %w", err)
	}
	return a, nil
}

// FindItemByBarcode retrieves the alcohol carrying code. Returns nil if
// not found.
func (s *AlcoholStore) FindItemByBarcode(ctx context.Context, code string) (*models.Alcohol, error) {
	a, err := s.findOne(ctx, bson.M{models.FieldBarcodes: code})
	if err != nil {
		return nil, fmt.Errorf("find alcohol by barcode: %w", err)
	}
	return a, nil
}

// FindItemByName retrieves the alcohol whose name matches ignoring case.
// Returns nil if not found.
func (s *AlcoholStore) FindItemByName(ctx context.Context, name string) (*models.Alcohol, error) {
	a, err := s.findOne(ctx, bson.M{models.FieldName: name},
		options.FindOne().SetCollation(nameCollation))
	if err != nil {
		return nil, fmt.Errorf("find alcohol by name: %w", err)
	}
	return a, nil
}

// ListItems returns a page of alcohols matching f, ordered by name, plus
// the total number of matches.
func (s *AlcoholStore) ListItems(ctx context.Context, f models.AlcoholFilter) ([]*models.Alcohol, int, error) {
	filter := bson.M{}
	if f.Kind != "" {
		filter[models.FieldKind] = f.Kind
	}
	if f.Query != "" {
		filter[models.FieldName] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
	}
	if f.CountryID != nil {
		filter[models.FieldCountryID] = f.CountryID.String()
	}
	if f.TagID != nil {
		var ids []uuid.UUID
		if s.tags != nil {
			var err error
			if ids, err = s.tags.AlcoholIDs(ctx, *f.TagID); err != nil {
				return nil, 0, fmt.Errorf("alcohols by tag: %w", err)
			}
		}
		in := bson.A{}
		for _, id := range ids {
			in = append(in, id.String())
		}
		filter["_id"] = bson.M{"$in": in}
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count alcohols: %w", err)
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: models.FieldName, Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("list alcohols: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode alcohols: %w", err)
	}

	items := make([]*models.Alcohol, 0, len(docs))
	for _, m := range docs {
		a, err := fromBSON(m)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func (s *AlcoholStore) attachTags(ctx context.Context, items []*models.Alcohol) error {
	if s.tags == nil || len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(items))
	for i, a := range items {
		ids[i] = a.ID
	}
	tags, err := s.tags.TagsFor(ctx, ids...)
	if err != nil {
		return fmt.Errorf("load alcohol tags: %w", err)
	}
	for _, a := range items {
		a.Tags = tags[a.ID]
	}
	return nil
}

// SetItemImage records the object key prefix of the item's images.
func (s *AlcoholStore) SetItemImage(ctx context.Context, id uuid.UUID, key string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"image": key, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("set alcohol image: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("alcohol")
	}
	return nil
}

// DeleteItem removes an alcohol. Returns false if nothing was deleted.
func (s *AlcoholStore) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, fmt.Errorf("delete alcohol: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// ApplyRating shifts the rating aggregate with an update pipeline so the
// count, value and average change in one atomic document write. Returns
// nil if the item does not exist.
func (s *AlcoholStore) ApplyRating(ctx context.Context, id uuid.UUID, d models.RatingDelta) (*models.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "rate_count", Value: bson.D{{Key: "$add", Value: bson.A{"$rate_count", d.Count}}}},
			{Key: "rate_value", Value: bson.D{{Key: "$add", Value: bson.A{"$rate_value", d.Value}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "avg_rating", Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$lt", Value: bson.A{"$rate_count", 1}}}},
				{Key: "then", Value: 0.0},
				{Key: "else", Value: bson.D{{Key: "$divide", Value: bson.A{"$rate_value", "$rate_count"}}}},
			}}}},
		}}},
	}
	var st models.RatingStats
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, pipeline,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"rate_count": 1, "rate_value": 1, "avg_rating": 1}),
	).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apply rating to alcohol: %w", err)
	}
	return &st, nil
}

var _ catalog.ItemBackend = (*AlcoholStore)(nil)
