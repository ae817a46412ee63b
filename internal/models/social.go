// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ListKind names a personal alcohol list.
type ListKind string

const (
	ListWishlist   ListKind = "wishlist"
	ListFavourites ListKind = "favourites"
)

// Valid reports whether k is a known list.
func (k ListKind) Valid() bool {
	return k == ListWishlist || k == ListFavourites
}

// CounterColumn is the users column that mirrors the list's size.
func (k ListKind) CounterColumn() string {
	if k == ListFavourites {
		return "favourites_count"
	}
	return "wishlist_count"
}

// ListEntry is one alcohol on a user's list.
type ListEntry struct {
	AlcoholID uuid.UUID `json:"alcohol_id"`
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"added_at"`
}

// SearchEntry is one phrase in a user's search history.
type SearchEntry struct {
	Phrase     string    `json:"phrase"`
	SearchedAt time.Time `json:"searched_at"`
}

// SearchHistoryLimit is how many phrases are kept per user.
const SearchHistoryLimit = 50
