// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package schema

import "alcoholdb/internal/models"

// CoreCategory returns the definition of the core category seeded into
// every catalogue backend. Only name and kind are required.
func CoreCategory() *models.Category {
	zero, hundred := 0.0, 100.0
	one := int64(1)
	str := &models.PropertyDef{BsonType: models.TypeList{"string"}}
	return &models.Category{
		Title: models.CoreTitle,
		Properties: map[string]models.PropertyDef{
			models.FieldName:            {BsonType: models.TypeList{"string"}, MinLength: &one, Description: "display name"},
			models.FieldKind:            {BsonType: models.TypeList{"string"}, Description: "category title"},
			models.FieldVolume:          {BsonType: models.TypeList{"double", "null"}, Minimum: &zero, Description: "millilitres"},
			models.FieldAlcoholByVolume: {BsonType: models.TypeList{"double", "null"}, Minimum: &zero, Maximum: &hundred},
			models.FieldBarcodes:        {BsonType: models.TypeList{"array", "null"}, Items: str},
			models.FieldDescription:     {BsonType: models.TypeList{"string", "null"}},
			models.FieldManufacturer:    {BsonType: models.TypeList{"string", "null"}},
			models.FieldCountryID:       {BsonType: models.TypeList{"string", "null"}},
			models.FieldRegionID:        {BsonType: models.TypeList{"string", "null"}},
			models.FieldFlavourIDs:      {BsonType: models.TypeList{"array", "null"}, Items: str},
		},
		Required: []string{models.FieldName, models.FieldKind},
	}
}
