// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package schema

import (
	"fmt"
	"math"
	"slices"
	"time"
	"unicode/utf8"

	"alcoholdb/internal/models"
)

// ValidationError describes the first rule a document violated.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

func fail(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Validate evaluates doc against v. Numbers are matched by value, so a
// float64 holding 2015 satisfies "int"; this keeps documents read back from
// JSON columns valid. A document must match exactly one oneOf variant, so
// with no categories beyond core every kind is unknown.
func Validate(v *Validator, doc map[string]any) error {
	if err := validateObject("", v.Properties, v.Required, doc); err != nil {
		return err
	}
	kind, _ := doc[models.KindField].(string)
	if len(v.OneOf) == 0 {
		return fail(models.KindField, "unknown kind %q", kind)
	}

	matches := 0
	var kindErr error
	for _, variant := range v.OneOf {
		err := validateObject("", variant.Properties, variant.Required, doc)
		if err == nil {
			matches++
			continue
		}
		if k, ok := variantKind(variant); ok && k == kind {
			kindErr = err
		}
	}
	switch {
	case matches == 1:
		return nil
	case matches > 1:
		return fail(models.KindField, "document matches more than one category")
	case kindErr != nil:
		return kindErr
	default:
		return fail(models.KindField, "unknown kind %q", kind)
	}
}

func validateObject(path string, props map[string]models.PropertyDef, required []string, doc map[string]any) error {
	for _, r := range required {
		if _, ok := doc[r]; !ok {
			return fail(join(path, r), "is required")
		}
	}
	for name, def := range props {
		val, ok := doc[name]
		if !ok {
			continue
		}
		if err := validateValue(join(path, name), def, val); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, def models.PropertyDef, val any) error {
	if len(def.BsonType) > 0 && !slices.ContainsFunc(def.BsonType, func(t string) bool { return typeMatches(t, val) }) {
		return fail(path, "must be of type %v", []string(def.BsonType))
	}
	if len(def.Enum) > 0 && !slices.ContainsFunc(def.Enum, func(e any) bool { return equal(e, val) }) {
		return fail(path, "must be one of %v", def.Enum)
	}
	if val == nil {
		return nil
	}

	if f, ok := models.ToFloat(val); ok {
		if def.Minimum != nil && f < *def.Minimum {
			return fail(path, "must be at least %v", *def.Minimum)
		}
		if def.Maximum != nil && f > *def.Maximum {
			return fail(path, "must be at most %v", *def.Maximum)
		}
	}
	if s, ok := val.(string); ok {
		n := int64(utf8.RuneCountInString(s))
		if def.MinLength != nil && n < *def.MinLength {
			return fail(path, "must be at least %d characters", *def.MinLength)
		}
		if def.MaxLength != nil && n > *def.MaxLength {
			return fail(path, "must be at most %d characters", *def.MaxLength)
		}
	}
	if def.Items != nil {
		for i, e := range asList(val) {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), *def.Items, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func typeMatches(t string, val any) bool {
	switch t {
	case "null":
		return val == nil
	case "string":
		_, ok := val.(string)
		return ok
	case "bool":
		_, ok := val.(bool)
		return ok
	case "int":
		f, ok := models.ToFloat(val)
		return ok && models.IsIntegral(val) && f >= math.MinInt32 && f <= math.MaxInt32
	case "long":
		return models.IsIntegral(val)
	case "double", "decimal", "number":
		_, ok := models.ToFloat(val)
		return ok
	case "array":
		return asList(val) != nil
	case "object":
		_, ok := val.(map[string]any)
		return ok
	case "date":
		switch d := val.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339, d)
			return err == nil
		}
	}
	return false
}

func equal(a, b any) bool {
	fa, aok := models.ToFloat(a)
	fb, bok := models.ToFloat(b)
	if aok && bok {
		return fa == fb
	}
	if aok || bok {
		return false
	}
	switch a.(type) {
	case string, bool, nil:
		return a == b
	}
	return false
}

func asList(val any) []any {
	switch l := val.(type) {
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	}
	return nil
}

// Coerce returns a copy of doc with numbers and dates converted to the Go
// types the MongoDB driver encodes as the declared bsonType: int becomes
// int32, long becomes int64, double becomes float64 and RFC 3339 date
// strings become time.Time. Fields without a definition are copied as is.
func Coerce(v *Validator, doc map[string]any) map[string]any {
	props := v.Properties
	if kind, ok := doc[models.KindField].(string); ok {
		if variant, ok := v.Variant(kind); ok {
			merged := make(map[string]models.PropertyDef, len(props)+len(variant.Properties))
			for k, d := range props {
				merged[k] = d
			}
			for k, d := range variant.Properties {
				if k != models.KindField {
					merged[k] = d
				}
			}
			props = merged
		}
	}

	out := make(map[string]any, len(doc))
	for k, val := range doc {
		if def, ok := props[k]; ok {
			out[k] = coerceValue(def, val)
		} else {
			out[k] = val
		}
	}
	return out
}

func coerceValue(def models.PropertyDef, val any) any {
	if val == nil {
		return nil
	}
	if def.Items != nil {
		if list := asList(val); list != nil {
			out := make([]any, len(list))
			for i, e := range list {
				out[i] = coerceValue(*def.Items, e)
			}
			return out
		}
	}
	if s, ok := val.(string); ok && def.BsonType.Has("date") && !def.BsonType.Has("string") {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		return val
	}
	f, ok := models.ToFloat(val)
	if !ok {
		return val
	}
	switch {
	case def.BsonType.Has("int") && typeMatches("int", val):
		return int32(f)
	case def.BsonType.Has("long") && models.IsIntegral(val):
		return int64(f)
	case def.BsonType.Has("double") || def.BsonType.Has("decimal") || def.BsonType.Has("number"):
		return f
	}
	return val
}
