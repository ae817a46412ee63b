// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package schema compiles catalogue categories into a single $jsonSchema
// validator and evaluates item documents against it.
//
// The validator is a discriminated union: the core category supplies the
// top-level properties and required list, and every other category becomes
// one oneOf variant keyed by its kind enum. The same document is installed
// on the MongoDB collection and enforced in-process for the relational
// backend, so only the $jsonSchema keywords MongoDB understands are used.
package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"alcoholdb/internal/models"
)

// Validator is a compiled catalogue validator.
type Validator struct {
	BsonType   models.TypeList               `json:"bsonType" bson:"bsonType"`
	Required   []string                      `json:"required,omitempty" bson:"required,omitempty"`
	Properties map[string]models.PropertyDef `json:"properties" bson:"properties"`
	OneOf      []Validator                   `json:"oneOf,omitempty" bson:"oneOf,omitempty"`
}

// KnownTypes are the bsonType names accepted in property definitions.
var KnownTypes = []string{
	"string", "int", "long", "double", "decimal", "number",
	"bool", "array", "object", "null", "date",
}

// ErrNoCore is returned by Compile when the core category is missing.
var ErrNoCore = errors.New("core category missing")

// Compile builds the validator from every stored category. Variants are
// ordered by title so the document is deterministic. When there are no
// non-core categories, OneOf is omitted.
func Compile(categories []*models.Category) (*Validator, error) {
	var core *models.Category
	var rest []*models.Category
	for _, c := range categories {
		if c.IsCore() {
			core = c
			continue
		}
		rest = append(rest, c)
	}
	if core == nil {
		return nil, ErrNoCore
	}
	slices.SortFunc(rest, func(a, b *models.Category) int {
		return strings.Compare(a.Title, b.Title)
	})

	v := &Validator{
		BsonType:   models.TypeList{"object"},
		Required:   cloneRequired(core.Required),
		Properties: cloneProps(core.Properties),
	}
	for _, c := range rest {
		v.OneOf = append(v.OneOf, Validator{
			BsonType:   models.TypeList{"object"},
			Required:   cloneRequired(c.Required),
			Properties: cloneProps(c.Properties),
		})
	}
	return v, nil
}

// Kinds returns the kind values of every variant, in validator order.
func (v *Validator) Kinds() []string {
	kinds := make([]string, 0, len(v.OneOf))
	for _, variant := range v.OneOf {
		if k, ok := variantKind(variant); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Variant returns the oneOf variant for kind.
func (v *Validator) Variant(kind string) (*Validator, bool) {
	for i := range v.OneOf {
		if k, ok := variantKind(v.OneOf[i]); ok && k == kind {
			return &v.OneOf[i], true
		}
	}
	return nil, false
}

// Check rejects validators that MongoDB would refuse or that break the
// catalogue's invariants: unknown bsonType names, empty enums, variants
// whose kind is not a single-value enum, non-nullable variant properties,
// required keys that are not properties, and duplicate kinds.
func Check(v *Validator) error {
	if len(v.BsonType) != 1 || v.BsonType[0] != "object" {
		return errors.New("validator bsonType must be object")
	}
	if err := checkObject("", v.Properties, v.Required); err != nil {
		return err
	}
	seen := map[string]bool{}
	for i, variant := range v.OneOf {
		path := fmt.Sprintf("oneOf[%d]", i)
		if err := checkObject(path, variant.Properties, variant.Required); err != nil {
			return err
		}
		kind, ok := variantKind(variant)
		if !ok {
			return fmt.Errorf("%s: kind must be an enum with exactly one string value", path)
		}
		if seen[kind] {
			return fmt.Errorf("%s: duplicate kind %q", path, kind)
		}
		seen[kind] = true
		if slices.Contains(variant.Required, models.KindField) {
			return fmt.Errorf("%s: kind must not be listed as required", path)
		}
		for name, def := range variant.Properties {
			if name != models.KindField && !def.Nullable() {
				return fmt.Errorf("%s.%s: property must allow null", path, name)
			}
		}
	}
	return nil
}

func checkObject(path string, props map[string]models.PropertyDef, required []string) error {
	for name, def := range props {
		if err := checkDef(join(path, name), def); err != nil {
			return err
		}
	}
	for _, r := range required {
		if _, ok := props[r]; !ok {
			return fmt.Errorf("%s: required key %q is not a property", pathOrRoot(path), r)
		}
	}
	return nil
}

func checkDef(path string, def models.PropertyDef) error {
	for _, t := range def.BsonType {
		if !slices.Contains(KnownTypes, t) {
			return fmt.Errorf("%s: unknown bsonType %q", path, t)
		}
	}
	if def.Enum != nil && len(def.Enum) == 0 {
		return fmt.Errorf("%s: enum must not be empty", path)
	}
	if def.Minimum != nil && def.Maximum != nil && *def.Minimum > *def.Maximum {
		return fmt.Errorf("%s: minimum exceeds maximum", path)
	}
	if def.MinLength != nil && def.MaxLength != nil && *def.MinLength > *def.MaxLength {
		return fmt.Errorf("%s: minLength exceeds maxLength", path)
	}
	if def.Items != nil {
		return checkDef(path+"[]", *def.Items)
	}
	return nil
}

func variantKind(v Validator) (string, bool) {
	def, ok := v.Properties[models.KindField]
	if !ok || len(def.Enum) != 1 {
		return "", false
	}
	s, ok := def.Enum[0].(string)
	return s, ok
}

func cloneProps(in map[string]models.PropertyDef) map[string]models.PropertyDef {
	out := make(map[string]models.PropertyDef, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneRequired(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return slices.Clone(in)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func pathOrRoot(path string) string {
	if path == "" {
		return "validator"
	}
	return path
}
