// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Core field names, shared by every catalogue item regardless of category.
const (
	FieldName            = "name"
	FieldKind            = KindField
	FieldVolume          = "volume"
	FieldAlcoholByVolume = "alcohol_by_volume"
	FieldBarcodes        = "barcodes"
	FieldDescription     = "description"
	FieldManufacturer    = "manufacturer"
	FieldCountryID       = "country_id"
	FieldRegionID        = "region_id"
	FieldFlavourIDs      = "flavour_ids"
)

// CoreFields lists the core item fields.
var CoreFields = []string{
	FieldName, FieldKind, FieldVolume, FieldAlcoholByVolume, FieldBarcodes,
	FieldDescription, FieldManufacturer, FieldCountryID, FieldRegionID, FieldFlavourIDs,
}

// managedFields are written by the server only and never accepted as
// category attributes.
var managedFields = map[string]bool{
	"id": true, "image": true, "rate_count": true, "rate_value": true,
	"avg_rating": true, "schema_version": true, "created_at": true,
	"updated_at": true, "tags": true,
}

// Alcohol is a catalogue item. Category-specific fields live in Attributes
// and are flattened alongside the core fields when serialized.
type Alcohol struct {
	ID              uuid.UUID
	Name            string
	Kind            string
	Volume          *float64
	AlcoholByVolume *float64
	Barcodes        []string
	Description     *string
	Manufacturer    *string
	CountryID       *uuid.UUID
	RegionID        *uuid.UUID
	FlavourIDs      []uuid.UUID
	Image           string // object key prefix of the image variants, "" when none
	Tags            []Tag
	RateCount       int
	RateValue       int
	AvgRating       float64
	SchemaVersion   int
	Attributes      map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Stats returns the item's rating aggregate.
func (a *Alcohol) Stats() RatingStats {
	return RatingStats{Count: a.RateCount, Value: a.RateValue, Avg: a.AvgRating}
}

// Document returns the validated shape of the item: core fields (null when
// unset) plus attributes.
func (a *Alcohol) Document() map[string]any {
	doc := make(map[string]any, len(CoreFields)+len(a.Attributes))
	for k, v := range a.Attributes {
		doc[k] = v
	}
	doc[FieldName] = a.Name
	doc[FieldKind] = a.Kind
	doc[FieldVolume] = floatOrNil(a.Volume)
	doc[FieldAlcoholByVolume] = floatOrNil(a.AlcoholByVolume)
	doc[FieldBarcodes] = stringList(a.Barcodes)
	doc[FieldDescription] = stringOrNil(a.Description)
	doc[FieldManufacturer] = stringOrNil(a.Manufacturer)
	doc[FieldCountryID] = uuidOrNil(a.CountryID)
	doc[FieldRegionID] = uuidOrNil(a.RegionID)
	if a.FlavourIDs == nil {
		doc[FieldFlavourIDs] = nil
	} else {
		ids := make([]any, len(a.FlavourIDs))
		for i, id := range a.FlavourIDs {
			ids[i] = id.String()
		}
		doc[FieldFlavourIDs] = ids
	}
	return doc
}

// MarshalJSON flattens the item into a single object.
func (a Alcohol) MarshalJSON() ([]byte, error) {
	doc := a.Document()
	doc["id"] = a.ID
	if a.Image != "" {
		doc["image"] = a.Image
	} else {
		doc["image"] = nil
	}
	tags := a.Tags
	if tags == nil {
		tags = []Tag{}
	}
	doc["tags"] = tags
	doc["rate_count"] = a.RateCount
	doc["rate_value"] = a.RateValue
	doc["avg_rating"] = a.AvgRating
	doc["schema_version"] = a.SchemaVersion
	doc["created_at"] = a.CreatedAt
	doc["updated_at"] = a.UpdatedAt
	return json.Marshal(doc)
}

// AlcoholFromDocument builds an item from a flattened document. Core fields
// are type-checked; server-managed fields are ignored; every other key
// becomes an attribute.
func AlcoholFromDocument(doc map[string]any) (*Alcohol, error) {
	a := &Alcohol{Attributes: map[string]any{}}
	var err error
	for _, k := range slices.Sorted(maps.Keys(doc)) {
		v := doc[k]
		switch k {
		case FieldName:
			a.Name, err = requireString(k, v)
		case FieldKind:
			a.Kind, err = requireString(k, v)
		case FieldVolume:
			a.Volume, err = optionalFloat(k, v)
		case FieldAlcoholByVolume:
			a.AlcoholByVolume, err = optionalFloat(k, v)
		case FieldBarcodes:
			a.Barcodes, err = optionalStrings(k, v)
		case FieldDescription:
			a.Description, err = optionalString(k, v)
		case FieldManufacturer:
			a.Manufacturer, err = optionalString(k, v)
		case FieldCountryID:
			a.CountryID, err = optionalUUID(k, v)
		case FieldRegionID:
			a.RegionID, err = optionalUUID(k, v)
		case FieldFlavourIDs:
			a.FlavourIDs, err = optionalUUIDs(k, v)
		default:
			if !managedFields[k] {
				a.Attributes[k] = v
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

func requireString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", field)
	}
	return s, nil
}

func optionalString(field string, v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := requireString(field, v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func optionalFloat(field string, v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, ok := ToFloat(v)
	if !ok {
		return nil, fmt.Errorf("%s must be a number", field)
	}
	return &f, nil
}

func optionalStrings(field string, v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be an array of strings", field)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s must be an array of strings", field)
}

func optionalUUID(field string, v any) (*uuid.UUID, error) {
	s, err := optionalString(field, v)
	if err != nil || s == nil {
		return nil, err
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a UUID", field)
	}
	return &id, nil
}

func optionalUUIDs(field string, v any) ([]uuid.UUID, error) {
	ss, err := optionalStrings(field, v)
	if err != nil || ss == nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s must contain UUIDs", field)
		}
		out = append(out, id)
	}
	return out, nil
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func stringList(ss []string) any {
	if ss == nil {
		return nil
	}
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// AlcoholFilter narrows catalogue listings.
type AlcoholFilter struct {
	Kind      string
	Query     string // case-insensitive substring of the name
	CountryID *uuid.UUID
	TagID     *uuid.UUID
	Limit     int
	Offset    int
}
