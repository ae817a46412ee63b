// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const (
	// CoreTitle is the title of the category holding fields common to every item.
	CoreTitle = "core"
	// KindField is the discriminator property every category carries.
	KindField = "kind"
)

// Category is a named set of typed property definitions. Required is nil
// (absent on the wire) when no property is required.
type Category struct {
	ID         uuid.UUID              `json:"id"`
	Title      string                 `json:"title"`
	Properties map[string]PropertyDef `json:"properties"`
	Required   []string               `json:"required,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// IsCore reports whether c is the distinguished core category.
func (c *Category) IsCore() bool {
	return c.Title == CoreTitle
}

// Clone returns a deep copy of c, used as a pre-edit snapshot.
func (c *Category) Clone() *Category {
	out := *c
	out.Properties = make(map[string]PropertyDef, len(c.Properties))
	for k, v := range c.Properties {
		out.Properties[k] = v.Clone()
	}
	if c.Required != nil {
		out.Required = slices.Clone(c.Required)
	}
	return &out
}

// PropertyKeys returns the category's property names in sorted order.
func (c *Category) PropertyKeys() []string {
	return slices.Sorted(maps.Keys(c.Properties))
}

// PropertyDef is the subset of MongoDB $jsonSchema keywords the catalogue
// supports for a single field.
type PropertyDef struct {
	BsonType    TypeList     `json:"bsonType,omitempty" bson:"bsonType,omitempty"`
	Enum        []any        `json:"enum,omitempty" bson:"enum,omitempty"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	Minimum     *float64     `json:"minimum,omitempty" bson:"minimum,omitempty"`
	Maximum     *float64     `json:"maximum,omitempty" bson:"maximum,omitempty"`
	MinLength   *int64       `json:"minLength,omitempty" bson:"minLength,omitempty"`
	MaxLength   *int64       `json:"maxLength,omitempty" bson:"maxLength,omitempty"`
	Items       *PropertyDef `json:"items,omitempty" bson:"items,omitempty"`
}

// Nullable reports whether the property accepts null.
func (p PropertyDef) Nullable() bool {
	return p.BsonType.Has("null")
}

// Clone returns a deep copy of p.
func (p PropertyDef) Clone() PropertyDef {
	out := p
	out.BsonType = slices.Clone(p.BsonType)
	out.Enum = slices.Clone(p.Enum)
	if p.Minimum != nil {
		v := *p.Minimum
		out.Minimum = &v
	}
	if p.Maximum != nil {
		v := *p.Maximum
		out.Maximum = &v
	}
	if p.MinLength != nil {
		v := *p.MinLength
		out.MinLength = &v
	}
	if p.MaxLength != nil {
		v := *p.MaxLength
		out.MaxLength = &v
	}
	if p.Items != nil {
		items := p.Items.Clone()
		out.Items = &items
	}
	return out
}

// TypeList is a bsonType value. $jsonSchema accepts either a single type
// name or an array of names; a single-element list is written as a string.
type TypeList []string

// Has reports whether t is one of the listed types.
func (l TypeList) Has(t string) bool {
	return slices.Contains(l, t)
}

// IsZero lets the BSON encoder honour omitempty.
func (l TypeList) IsZero() bool { return len(l) == 0 }

func (l TypeList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]string(l))
}

func (l *TypeList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = TypeList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("bsonType must be a string or an array of strings")
	}
	*l = TypeList(many)
	return nil
}

func (l TypeList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if len(l) == 1 {
		return bson.MarshalValue(l[0])
	}
	return bson.MarshalValue([]string(l))
}

func (l *TypeList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if s, ok := raw.StringValueOK(); ok {
		*l = TypeList{s}
		return nil
	}
	var many []string
	if err := raw.Unmarshal(&many); err != nil {
		return errors.New("bsonType must be a string or an array of strings")
	}
	*l = TypeList(many)
	return nil
}

// KindProperty returns the discriminator property for a category title.
func KindProperty(title string) PropertyDef {
	return PropertyDef{Enum: []any{title}}
}
