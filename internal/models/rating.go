// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// MinRating and MaxRating bound a review's rating.
const (
	MinRating = 1
	MaxRating = 5
)

// RatingStats is the denormalized rating aggregate kept on items and users.
// Avg is always Value/Count, or 0 when Count < 1.
type RatingStats struct {
	Count int     `json:"rate_count" bson:"rate_count"`
	Value int     `json:"rate_value" bson:"rate_value"`
	Avg   float64 `json:"avg_rating" bson:"avg_rating"`
}

// RatingDelta is a change to a rating aggregate.
type RatingDelta struct {
	Count int
	Value int
}

// DeltaCreated is the change caused by a new review with the given rating.
func DeltaCreated(rating int) RatingDelta { return RatingDelta{Count: 1, Value: rating} }

// DeltaDeleted is the change caused by removing a review with the given rating.
func DeltaDeleted(rating int) RatingDelta { return RatingDelta{Count: -1, Value: -rating} }

// DeltaChanged is the change caused by editing a review's rating.
func DeltaChanged(oldRating, newRating int) RatingDelta {
	return RatingDelta{Count: 0, Value: newRating - oldRating}
}

// Apply returns the aggregate after d. The count is not floored at zero;
// only the average is clamped so it never becomes NaN or negative-infinite.
func (s RatingStats) Apply(d RatingDelta) RatingStats {
	out := RatingStats{Count: s.Count + d.Count, Value: s.Value + d.Value}
	out.Avg = Average(out.Count, out.Value)
	return out
}

// Average computes value/count, returning 0 when count < 1.
func Average(count, value int) float64 {
	if count < 1 {
		return 0
	}
	return float64(value) / float64(count)
}

// ValidRating reports whether r is within [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
