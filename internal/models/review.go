// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a user's rating and optional text for one alcohol. A user has
// at most one review per alcohol.
type Review struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	AlcoholID    uuid.UUID `json:"alcohol_id"`
	Rating       int       `json:"rating"`
	Body         string    `json:"body"`
	ReportCount  int       `json:"report_count"`
	HelpfulCount int       `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Author is populated by listings that join the user.
	Author *PublicUser `json:"author,omitempty"`
}

// BannedReview is the copy of a review taken when it was banned.
type BannedReview struct {
	Review
	BannedAt time.Time `json:"banned_at"`
	BannedBy uuid.UUID `json:"banned_by"`
	Reason   string    `json:"reason"`
}

// ReviewState is the moderation state of a review.
type ReviewState string

const (
	ReviewActive   ReviewState = "active"
	ReviewReported ReviewState = "reported"
	ReviewBanned   ReviewState = "banned"
)

// State derives the moderation state of a live review.
func (r *Review) State() ReviewState {
	if r.ReportCount > 0 {
		return ReviewReported
	}
	return ReviewActive
}
