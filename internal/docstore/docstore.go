// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package docstore is the MongoDB catalogue backend. Categories and items
// live in collections; the compiled item validator is installed on the
// alcohols collection with collMod so the database itself rejects
// documents that do not match a category.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"alcoholdb/internal/catalog/schema"
)

// Collection names.
const (
	CategoriesCollection = "categories"
	SchemasCollection    = "catalogue_schemas"
	AlcoholsCollection   = "alcohols"
	countersCollection   = "counters"
)

// Connect opens a MongoDB client for uri and returns the named database.
// It verifies the connection with a ping before returning.
func Connect(ctx context.Context, uri, name string) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(25)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	slog.Info("mongo connected", "database", name)
	return client, client.Database(name), nil
}

const (
	nameIndex     = "name_ci_unique"
	barcodesIndex = "barcodes_unique"
)

// nameCollation compares names ignoring case, matching the unique name index.
var nameCollation = &options.Collation{Locale: "en", Strength: 2}

// EnsureIndexes creates the indexes the catalogue queries rely on. It is
// safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(CategoriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("category title index: %w", err)
	}
	alcohols := db.Collection(AlcoholsCollection).Indexes()
	// Earlier releases created these without uniqueness.
	for _, legacy := range []string{"name_1", "barcodes_1"} {
		if _, err := alcohols.DropOne(ctx, legacy); err != nil && !isIndexNotFound(err) {
			return fmt.Errorf("drop index %s: %w", legacy, err)
		}
	}
	if _, err := alcohols.CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "kind", Value: 1}}},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName(nameIndex).SetUnique(true).
				SetCollation(nameCollation),
		},
		{
			// Items without barcodes stay out of the index.
			Keys: bson.D{{Key: "barcodes", Value: 1}},
			Options: options.Index().SetName(barcodesIndex).SetUnique(true).
				SetPartialFilterExpression(bson.M{"barcodes": bson.M{"$type": "string"}}),
		},
	}); err != nil {
		return fmt.Errorf("alcohol indexes: %w", err)
	}
	return nil
}

// isIndexNotFound reports whether err is the server's IndexNotFound (27)
// or NamespaceNotFound (26) reply to dropIndexes.
func isIndexNotFound(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == 27 || ce.Code == 26
	}
	return false
}

// SeedCore inserts the core category if it is missing.
func SeedCore(ctx context.Context, db *mongo.Database) error {
	core := schema.CoreCategory()
	doc := fromCategory(core)
	res, err := db.Collection(CategoriesCollection).UpdateOne(ctx,
		bson.M{"title": core.Title},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("seed core category: %w", err)
	}
	if res.UpsertedCount > 0 {
		slog.Info("core category seeded")
	}
	return nil
}

// nextSequence atomically increments and returns the named counter.
func nextSequence(ctx context.Context, db *mongo.Database, name string) (int, error) {
	var out struct {
		Seq int `bson:"seq"`
	}
	err := db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", name, err)
	}
	return out.Seq, nil
}
