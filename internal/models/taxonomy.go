// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Country is a country of origin.
type Country struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Region belongs to a country.
type Region struct {
	ID        uuid.UUID `json:"id"`
	CountryID uuid.UUID `json:"country_id"`
	Name      string    `json:"name"`
}

// Flavour is a tasting note attachable to alcohols.
type Flavour struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Tag is a free-form label users attach to alcohols.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ReportedError is a user report of incorrect catalogue data.
type ReportedError struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	AlcoholID uuid.UUID `json:"alcohol_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
